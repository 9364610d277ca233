package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/coordinator"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored client configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration with the credential masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		a.Store.Load()
		return printConfig(cmd, a.Store.Get())
	},
}

var setFlags struct {
	apiKey        string
	model         string
	clientToken   string
	applicationID string
	site          string
	service       string
	env           string
	version       string
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update and save the configuration",
	Long: `Update the stored configuration. Only the given flags change; a credential
must be present after the update.

Example:
  llmdemo config set --api-key sk-... --client-token pub... --application-id ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		a.Store.Load()
		cfg := a.Store.Get()

		flags := cmd.Flags()
		set := func(name string, dst *string, v string) {
			if flags.Changed(name) {
				*dst = v
			}
		}
		set("api-key", &cfg.APIKey, setFlags.apiKey)
		set("model", &cfg.Model, setFlags.model)
		set("client-token", &cfg.Backend.ClientToken, setFlags.clientToken)
		set("application-id", &cfg.Backend.ApplicationID, setFlags.applicationID)
		set("site", &cfg.Backend.Site, setFlags.site)
		set("service", &cfg.Backend.Service, setFlags.service)
		set("env", &cfg.Backend.Env, setFlags.env)
		set("version", &cfg.Backend.Version, setFlags.version)

		saved, err := a.Coordinator.SaveConfig(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("%s", coordinator.UserMessage(err))
		}
		return printConfig(cmd, saved)
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the defaults and delete the stored configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := newApp()
		if err != nil {
			return err
		}
		defer cleanup()

		cfg, err := a.Coordinator.ResetConfig(cmd.Context())
		if err != nil {
			return err
		}
		return printConfig(cmd, cfg)
	},
}

func init() {
	f := configSetCmd.Flags()
	f.StringVar(&setFlags.apiKey, "api-key", "", "OpenAI API key (sk-...)")
	f.StringVar(&setFlags.model, "model", "", "model id, e.g. gpt-4o-mini")
	f.StringVar(&setFlags.clientToken, "client-token", "", "Datadog client token")
	f.StringVar(&setFlags.applicationID, "application-id", "", "Datadog application id")
	f.StringVar(&setFlags.site, "site", "", "Datadog site, e.g. datadoghq.eu or a custom site")
	f.StringVar(&setFlags.service, "service", "", "service name")
	f.StringVar(&setFlags.env, "env", "", "environment name")
	f.StringVar(&setFlags.version, "version", "", "application version")

	configCmd.AddCommand(configShowCmd, configSetCmd, configResetCmd)
}

func printConfig(cmd *cobra.Command, cfg entities.Config) error {
	openaiConfigured := cfg.IsCompletionServiceConfigured()
	cfg.APIKey = cfg.MaskedCredential()
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		entities.Config
		OpenAIConfigured  bool `json:"openaiConfigured"`
		DatadogConfigured bool `json:"datadogConfigured"`
		CustomSite        bool `json:"customSite"`
	}{
		Config:            cfg,
		OpenAIConfigured:  openaiConfigured,
		DatadogConfigured: cfg.IsBackendConfigured(),
		CustomSite:        cfg.Backend.IsCustomSite(),
	})
}
