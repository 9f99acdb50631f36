package cli

import (
	"github.com/spf13/cobra"

	"ThreatMonitor/internal/infrastructure/storage"
)

func newURLsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Manage the monitored URL list",
	}

	sources := func() *storage.SourceList {
		return storage.NewSourceList(opts.loadConfig().Sources.Path)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add URL...",
			Short: "Append URLs, skipping duplicates",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				list := sources()
				for _, url := range args {
					added, err := list.Add(url)
					if err != nil {
						return err
					}
					if added {
						printf(cmd, "added %s\n", url)
					} else {
						printf(cmd, "already monitored %s\n", url)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove URL...",
			Short: "Remove URLs from the list",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				list := sources()
				for _, url := range args {
					removed, err := list.Remove(url)
					if err != nil {
						return err
					}
					if removed {
						printf(cmd, "removed %s\n", url)
					} else {
						printf(cmd, "not monitored %s\n", url)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the monitored URLs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				urls, err := sources().List()
				if err != nil {
					return err
				}
				for _, url := range urls {
					printf(cmd, "%s\n", url)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every monitored URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				list := sources()
				if err := list.Clear(); err != nil {
					return err
				}
				printf(cmd, "cleared %s\n", list.Path())
				return nil
			},
		},
	)
	return cmd
}
