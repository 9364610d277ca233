package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

The server provides:
  - /api/chat, /api/summarize, /api/codegen  - completion requests (POST)
  - /api/mode                                 - switch the active mode (POST)
  - /api/config                               - show, save or reset the configuration
  - /api/metrics                              - session metrics
  - /                                         - static files from STATIC_DIR

The listen address comes from HOST and PORT. Ctrl+C or SIGTERM shuts the
server down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		return a.Run(cmd.Context())
	},
}
