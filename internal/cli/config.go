package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ThreatMonitor/internal/config"
)

const masked = "********"

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ThreatMonitor configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  `Display the configuration after defaults, config file, env vars and flags are applied. Secrets are masked.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := redact(opts.loadConfig())

			yamlData, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			printf(cmd, "%s", yamlData)
			return nil
		},
	})
	return cmd
}

func redact(cfg config.Config) config.Config {
	for _, secret := range []*string{
		&cfg.Database.DSN,
		&cfg.ML.APIKey,
		&cfg.Notifications.Telegram.BotToken,
		&cfg.ChatGPT.APIKey,
	} {
		if *secret != "" {
			*secret = masked
		}
	}
	return cfg
}
