package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/pipeline"
	"github.com/nao1215/linkfinder/internal/transport"
)

// NewWorkerCmd creates the worker command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued tests",
		Long: `Worker claims pending tests from the database, crawls each site and stores
the results. A test whose site could not be reached is retried with an
exponential backoff until --max-attempts is reached.

The worker polls for new tests until it is interrupted. With --once it
processes the tests that are due and exits.

Examples:
  # Run until interrupted
  linkfinder worker

  # Drain the queue once, two sites at a time
  linkfinder worker --once -b 2`,
		Args: cobra.NoArgs,
		RunE: runWorkerCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().Bool("once", false,
		"Process the pending tests and exit")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval,
		"How often an idle worker checks for pending tests")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Attempts per test before it is marked as failed")

	return cmd
}

// runWorkerCmd executes the worker command.
func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	once, err := flags.GetBool("once")
	if err != nil {
		return err
	}
	if cfg.PollInterval, err = flags.GetDuration("poll-interval"); err != nil {
		return err
	}
	if cfg.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
		return err
	}

	if err := cfg.ValidateOptions(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	factory, err := pipeline.NewFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}
	if cfg.ProxyAddress != "" {
		if status := factory.Client().CheckConnection(ctx); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed (make sure a SOCKS5 proxy is running at %s): %w",
				cfg.ProxyAddress, status.Error())
		}
	}

	db, err := openDB(cmd, cfg.MaxAttempts)
	if err != nil {
		return err
	}
	defer db.Close()

	worker := pipeline.NewWorker(db, factory.Pipeline,
		pipeline.WithPollInterval(cfg.PollInterval),
		pipeline.WithWorkerConcurrency(cfg.BatchSize),
		pipeline.WithWorkerLogger(logger),
	)

	if once {
		n, err := worker.RunOnce(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d test(s)\n", n)
		return err
	}

	logger.Info("worker started", "poll_interval", cfg.PollInterval, "database", db.Path())
	return worker.Run(ctx)
}
