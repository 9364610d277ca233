package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
)

var askMode string

var askCmd = &cobra.Command{
	Use:   "ask [text...]",
	Short: "Send one request and print the reply",
	Long: `Send one chat, summarize or codegen request and print the reply.

Examples:
  llmdemo ask "What is observability?"
  llmdemo ask --mode summarize "$(cat notes.txt)"
  llmdemo ask --mode codegen "an HTTP health check handler in Go"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := entities.ParseMode(askMode)
		if err != nil {
			return err
		}

		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		a.Start(ctx)
		if mode != entities.ModeChat {
			if _, err := a.Coordinator.SwitchMode(mode); err != nil {
				return err
			}
		}

		input := strings.Join(args, " ")
		var reply coordinator.Reply
		switch mode {
		case entities.ModeSummarize:
			reply, err = a.Coordinator.Summarize(ctx, input)
		case entities.ModeCodegen:
			reply, err = a.Coordinator.GenerateCode(ctx, input)
		default:
			reply, err = a.Coordinator.SendChat(ctx, input)
		}
		if err != nil {
			return fmt.Errorf("%s", coordinator.UserMessage(err))
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%s: %d tokens (%d prompt, %d completion) in %dms\n",
			reply.Model, reply.Usage.TotalTokens, reply.Usage.PromptTokens, reply.Usage.CompletionTokens, reply.ResponseTimeMs)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(entities.ModeChat), "chat, summarize or codegen")
}
