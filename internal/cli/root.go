// Package cli implements the threatmonitor command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/logging"
)

const envPrefix = "THREATMON"

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
	stderr  io.Writer
}

// NewRootCommand assembles the command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New(), stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "threatmonitor",
		Short: "ThreatMonitor - periodic scanning of monitored pages for threat indicators",
		Long: `ThreatMonitor runs a fetch collaborator over a list of monitored URLs,
extracts plain text from the returned pages, scores every entry with the
configured classifier and reports an overall threat level.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (THREATMON_*, DATABASE_DSN, OPENAI_API_KEY, ...)
3. Config file (--config or $THREATMON_CONFIG)
4. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.stderr = cmd.ErrOrStderr()
			opts.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: $THREATMON_CONFIG)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("strategy", "", "classifier strategy: keyword, model or remote")

	_ = opts.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = opts.v.BindPFlag("classifier.strategy", flags.Lookup("strategy"))

	root.AddCommand(
		newRunCommand(opts),
		newMonitorCommand(opts),
		newTrainCommand(opts),
		newHistoryCommand(opts),
		newURLsCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// initConfig reads ENV variables that match THREATMON_*.
func (o *rootOptions) initConfig() {
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()
}

// loadConfig layers flags and THREATMON_* variables over the YAML file.
func (o *rootOptions) loadConfig() config.Config {
	var cfg config.Config
	if o.cfgFile != "" {
		cfg = config.LoadFile(o.cfgFile)
	} else {
		cfg = config.Load()
	}

	if o.v.IsSet("logging.level") {
		cfg.Logging.Level = o.v.GetString("logging.level")
	}
	if o.v.IsSet("logging.format") {
		cfg.Logging.Format = o.v.GetString("logging.format")
	}
	if o.v.IsSet("classifier.strategy") {
		cfg.Classifier.Strategy = o.v.GetString("classifier.strategy")
	}
	return cfg
}

func (o *rootOptions) logger(cfg config.Config) *slog.Logger {
	return logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, o.stderr)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
