package cli

import (
	"github.com/spf13/cobra"

	"ThreatMonitor/internal/app"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring pipeline once",
		Long: `Fetch the monitored URLs, extract and classify every entry, then print
the threat analysis report. The exit status is non-zero when the run fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			ctx := cmd.Context()

			application, err := app.New(ctx, cfg, opts.logger(cfg), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer application.Close()

			_, err = application.RunOnce(ctx)
			return err
		},
	}
}
