package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xhad/bookrag/pkg/logging"
	"github.com/xhad/bookrag/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := a.config
			if port != 0 {
				config.Server.Port = port
			}
			if config.Log.Format == "" {
				if err := logging.Init(config.Log.Level, logging.FormatJSON); err != nil {
					return err
				}
			}
			if err := validate(config.ValidateServe()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			agent, guard, vectorStore, err := newAgent(ctx, config)
			if err != nil {
				return err
			}
			defer vectorStore.Close()

			srv, err := server.New(server.Config{
				Name:           config.Server.Name,
				Port:           config.Server.Port,
				Workers:        config.Server.Workers,
				AllowedOrigins: config.Server.AllowedOrigins,
			}, agent, guard)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides PORT)")
	return cmd
}
