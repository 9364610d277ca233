package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
)

var selfCheckCmd = &cobra.Command{
	Use:   "selfcheck",
	Short: "Send a test request to check the telemetry pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		a.Start(ctx)

		res, err := a.Coordinator.SelfCheck(ctx)
		if err != nil {
			return fmt.Errorf("observability test failed: %s", coordinator.UserMessage(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "response:      %s\n", res.Content)
		fmt.Fprintf(out, "tokens:        %d\n", res.TotalTokens)
		fmt.Fprintf(out, "response time: %dms\n", res.ResponseTimeMs)
		fmt.Fprintf(out, "session:       %s\n", a.Coordinator.SessionID())
		if res.BackendConfigured {
			fmt.Fprintln(out, "Check your Datadog dashboard for the llm_request event.")
		} else {
			fmt.Fprintln(out, "Datadog is not configured: telemetry was written to the console only.")
		}
		return nil
	},
}
