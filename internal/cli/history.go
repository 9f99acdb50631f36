package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/infrastructure/storage"
	"ThreatMonitor/internal/ports"
)

var errNoDatabase = errors.New("run history needs database.dsn or DATABASE_DSN")

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit uint64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			if cfg.Database.DSN == "" {
				return errNoDatabase
			}

			ctx := cmd.Context()
			db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := storage.NewPostgresRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
			return printHistory(cmd, repo, limit)
		},
	}

	cmd.Flags().Uint64Var(&limit, "limit", 10, "number of runs to show")
	return cmd
}

func printHistory(cmd *cobra.Command, repo ports.RunRepository, limit uint64) error {
	runs, err := repo.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return writeHistory(cmd.OutOrStdout(), runs)
}

// writeHistory prints one line per run, newest first.
func writeHistory(w io.Writer, runs []domain.RunReport) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	for _, run := range runs {
		line := fmt.Sprintf("%s  %-8s %3d/%-3d  %-9s %s",
			run.Timestamp.Format(time.RFC3339), run.ThreatLevel,
			run.SuspiciousCount, run.TotalCount, run.Strategy, run.Duration.Round(time.Millisecond))
		if run.Anomalies > 0 {
			line += fmt.Sprintf("  anomalies=%d", run.Anomalies)
		}
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
