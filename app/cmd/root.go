package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketconnect/llm-observability-demo/app/app"
	"github.com/marketconnect/llm-observability-demo/app/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "llmdemo",
	Short: "LLM observability demo: chat, summarize and generate code with telemetry",
	Long: `llmdemo sends chat, summarization and code generation requests to an
OpenAI-compatible completion endpoint and records every interaction as a
telemetry event: to the console, and to a Datadog-style log intake when one is
configured.

Settings come from the environment (and .env.local / .env). The client
configuration is stored in the repository selected by REPOSITORY_TYPE; use
REPOSITORY_TYPE=sqlite for it to outlive a single command.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, selfCheckCmd, configCmd)
}

// newApp reads the environment and builds the application. The returned
// cleanup closes the repository and flushes the logger.
func newApp() (*app.App, func(), error) {
	bootstrap := zap.Must(zap.NewProduction())
	env, err := config.LoadEnv(bootstrap)
	bootstrap.Sync()
	if err != nil {
		return nil, nil, err
	}
	logger, err := env.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a, err := app.NewApp(env, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Error("error closing application", zap.Error(err))
		}
		logger.Sync()
	}
	return a, cleanup, nil
}
