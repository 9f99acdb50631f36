package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ThreatMonitor/internal/config"
	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/infrastructure/parser"
	"ThreatMonitor/internal/ports"
)

const waitDelay = 2 * time.Second

// ProcessFetcher runs the external fetch program and decodes the JSON
// document it leaves behind.
type ProcessFetcher struct {
	command    []string
	workDir    string
	outputPath string
	timeout    time.Duration
	env        []string
	logger     *slog.Logger
}

var _ ports.DocumentFetcher = (*ProcessFetcher)(nil)

// NewProcessFetcher wires the fetch section of the config.
func NewProcessFetcher(cfg config.FetchConfig, logger *slog.Logger) *ProcessFetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProcessFetcher{
		command:    cfg.Command,
		workDir:    cfg.WorkDir,
		outputPath: cfg.OutputPath,
		timeout:    cfg.Timeout,
		env:        cfg.Env,
		logger:     logger,
	}
}

// Fetch runs the command to completion, bounded by the configured timeout,
// and reads the output file. Every failure wraps domain.ErrFetchFailed.
func (f *ProcessFetcher) Fetch(ctx context.Context) ([]domain.RawDocument, error) {
	if len(f.command) == 0 {
		return nil, fmt.Errorf("%w: no fetch command configured", domain.ErrFetchFailed)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	started := time.Now()
	cmd := exec.CommandContext(ctx, f.command[0], f.command[1:]...)
	cmd.Dir = f.workDir
	cmd.WaitDelay = waitDelay
	if len(f.env) > 0 {
		cmd.Env = append(os.Environ(), f.env...)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	f.logger.Debug("run fetcher", "command", strings.Join(f.command, " "), "dir", f.workDir)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: after %s: %w", domain.ErrFetchFailed, time.Since(started).Round(time.Millisecond), ctxErr)
		}
		return nil, fmt.Errorf("%w: %v: %s", domain.ErrFetchFailed, err, tail(stderr.String(), 512))
	}

	raw, err := os.ReadFile(f.resolvedOutput())
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", domain.ErrFetchFailed, err)
	}

	docs, err := parser.DecodeDocuments(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}

	f.logger.Info("fetch finished", "documents", len(docs), "elapsed", time.Since(started).Round(time.Millisecond))
	return docs, nil
}

func (f *ProcessFetcher) resolvedOutput() string {
	if filepath.IsAbs(f.outputPath) || f.workDir == "" {
		return f.outputPath
	}
	return filepath.Join(f.workDir, f.outputPath)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
