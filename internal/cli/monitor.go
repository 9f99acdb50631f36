package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ThreatMonitor/internal/app"
	"ThreatMonitor/internal/domain"
)

const shutdownTimeout = 30 * time.Second

func newMonitorCommand(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the pipeline periodically until interrupted",
		Long: `Start the scheduler: one run immediately, then one run per interval.
A run still in progress when the next tick arrives causes that tick to be
skipped. SIGHUP reloads the configuration and applies a changed interval.
SIGINT or SIGTERM stop scheduling and wait for the in-flight run.

Common intervals: ` + presetList() + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			logger := opts.logger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer application.Close()

			every := interval
			if every <= 0 {
				every = cfg.Scheduler.Interval()
			}

			sched := application.Scheduler()
			if err := sched.Start(ctx, every); err != nil {
				return err
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			for {
				select {
				case <-ctx.Done():
					logger.Info("shutting down", "timeout", shutdownTimeout)
					return application.Shutdown(shutdownTimeout)
				case <-hup:
					if interval > 0 {
						logger.Info("config reload ignored, interval pinned by flag", "interval", interval)
						continue
					}
					next := opts.loadConfig().Scheduler.Interval()
					if next == sched.Interval() {
						continue
					}
					if err := sched.SetInterval(next); err != nil {
						logger.Warn("interval not applied", "interval", next, "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0,
		"run period, e.g. "+presetList()+" (default: scheduler.intervalSeconds)")
	return cmd
}

// presetList renders domain.IntervalPresets as duration flag values.
func presetList() string {
	parts := make([]string, 0, len(domain.IntervalPresets))
	for _, seconds := range domain.IntervalPresets {
		if seconds%60 == 0 {
			parts = append(parts, fmt.Sprintf("%dm", seconds/60))
			continue
		}
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, ", ")
}
