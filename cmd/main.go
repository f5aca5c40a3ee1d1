package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgPkg "github.com/xhad/bookrag/pkg/config"
	"github.com/xhad/bookrag/pkg/logging"
)

// app holds state shared by every subcommand once the root pre-run has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string
	config     *cfgPkg.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bookrag",
		Short:         "Question answering over the Physical AI & Humanoid Robotics book",
		Long:          `Crawl the book's sitemap into a vector store, then answer questions about it over HTTP or from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newIngestCmd(a), newServeCmd(a), newAskCmd(a))
	return root
}

func (a *app) load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	config, err := cfgPkg.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		config.Log.Level = a.logLevel
	}
	if err := logging.Init(config.Log.Level, config.Log.Format); err != nil {
		return err
	}

	a.config = config
	return nil
}
