package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/database"
	lflog "github.com/nao1215/linkfinder/internal/log"
)

// NewRootCmd creates the root command for LinkFinder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkfinder",
		Short: "Compare a website's sitemap with the pages its links reach",
		Long: `LinkFinder crawls a website by following its hyperlinks and reads its
sitemap, then reports pages that are missing from the sitemap and sitemap
entries that no link leads to.

Tests can run immediately (crawl) or be queued (enqueue) and processed by a
background worker (worker). Results are stored in a SQLite database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewEnqueueCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewTestsCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the secure structured logger for cmd and makes it the
// default logger.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	newLogger := lflog.NewSecureLogger
	if asJSON, err := cmd.Flags().GetBool("log-json"); err == nil && asJSON {
		newLogger = lflog.NewSecureJSONLogger
	}
	logger := newLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// dbDir returns the --db-dir flag or the XDG data directory.
func dbDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		dir, err = cmd.Root().PersistentFlags().GetString("db-dir")
	}
	if err != nil || dir == "" {
		return config.XDGDataDir()
	}
	return dir
}

// openDB opens the test database for cmd.
func openDB(cmd *cobra.Command, maxAttempts int) (*database.TestDB, error) {
	opts := database.DefaultOptions()
	if maxAttempts > 0 {
		opts.MaxAttempts = maxAttempts
	}
	db, err := database.Open(dbDir(cmd), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openExistingDB opens the test database without creating it.
func openExistingDB(cmd *cobra.Command) (*database.TestDB, error) {
	db, err := database.Open(dbDir(cmd), database.Options{EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
