package cli

import "github.com/spf13/cobra"

// version is overridden at build time with -ldflags "-X ThreatMonitor/internal/cli.version=...".
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			printf(cmd, "threatmonitor %s\n", version)
		},
	}
}
