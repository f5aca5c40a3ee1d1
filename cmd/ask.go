package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/bookrag/pkg/llm"
)

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question from the book",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := a.config
			if err := validate(config.ValidateServe()); err != nil {
				return err
			}

			agent, _, vectorStore, err := newAgent(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer vectorStore.Close()

			question := strings.Join(args, " ")
			userPrompt := color.New(color.FgGreen).PrintfFunc()
			assistantPrompt := color.New(color.FgCyan).PrintfFunc()
			userPrompt("You: %s\n", question)

			spinner := getSpinner("🤖 Generating response...")
			answer, err := agent.Answer(cmd.Context(), question)
			_ = spinner.Finish()
			fmt.Print("\r")

			if err != nil {
				_, message := llm.ClassifyError(err)
				return errors.New(message)
			}
			assistantPrompt("Assistant: %s\n", answer)
			return nil
		},
	}
}
