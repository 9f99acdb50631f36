// Command fetcher is the fetch collaborator of threatmonitor: it downloads
// every monitored URL and writes the JSON artifact the pipeline consumes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/infrastructure/crawler"
	"ThreatMonitor/internal/infrastructure/storage"
	"ThreatMonitor/internal/logging"
)

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var cfgFile, urlsPath, outPath, socks string

	cmd := &cobra.Command{
		Use:           "fetcher",
		Short:         "Fetch monitored URLs into a JSON artifact",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			if cfgFile != "" {
				cfg = config.LoadFile(cfgFile)
			} else {
				cfg = config.Load()
			}
			if urlsPath == "" {
				urlsPath = cfg.Sources.Path
			}
			if outPath == "" {
				outPath = cfg.Fetch.OutputPath
			}
			if cmd.Flags().Changed("socks") {
				cfg.Crawler.SocksProxy = socks
			}
			logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			urls, err := storage.NewSourceList(urlsPath).List()
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				logger.Warn("no URLs to fetch", "path", urlsPath)
			}

			c, err := crawler.New(cfg.Crawler, logger)
			if err != nil {
				return err
			}
			results := c.Crawl(ctx, urls)
			if err := crawler.WriteResults(outPath, results); err != nil {
				return err
			}
			logger.Info("fetch complete", "urls", len(urls), "out", outPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $THREATMON_CONFIG)")
	flags.StringVar(&urlsPath, "urls", "", "monitored URL list (default: sources.path)")
	flags.StringVar(&outPath, "out", "", "output artifact (default: fetch.outputPath)")
	flags.StringVar(&socks, "socks", "", "SOCKS5 proxy address, e.g. 127.0.0.1:9050")
	return cmd
}
