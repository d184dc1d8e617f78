package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/crawler"
	"github.com/nao1215/linkfinder/internal/database"
	"github.com/nao1215/linkfinder/internal/model"
	"github.com/nao1215/linkfinder/internal/pipeline"
	"github.com/nao1215/linkfinder/internal/report"
	"github.com/nao1215/linkfinder/internal/transport"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Crawl sites and compare their links with their sitemaps",
		Long: `Crawl runs both strategies against each URL and prints the comparison:
pages reached by following links but missing from the sitemap, and sitemap
entries that no link leads to.

Examples:
  # Test a single site
  linkfinder crawl https://www.example.com

  # Test several sites, three at a time
  linkfinder crawl -b 3 https://a.example.com https://b.example.com https://c.example.com

  # Crawl through a SOCKS5 proxy and write a Markdown report
  linkfinder crawl --proxy 127.0.0.1:1080 -m -o report.md https://www.example.com

  # Output JSON without storing the test
  linkfinder crawl --json --no-save https://www.example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the test in the database")
	cmd.Flags().Bool("summary", false,
		"Print only the counts of each report")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave
	summaryOnly, err := flags.GetBool("summary")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := validateTargets(cfg.Targets); err != nil {
		return err
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runCrawl(ctx, cmd, cfg, summaryOnly, logger)
}

// validateTargets rejects seed URLs the crawler would refuse to start from.
func validateTargets(targets []string) error {
	validator := crawler.NewLinkValidator()
	for _, target := range targets {
		if err := validator.CheckLink(target); err != nil {
			return fmt.Errorf("invalid URL %q: %w", target, err)
		}
	}
	return nil
}

// runCrawl tests every target and writes one report per site as each
// finishes.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, summaryOnly bool, logger *slog.Logger) error {
	factory, err := pipeline.NewFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	if cfg.ProxyAddress != "" {
		if status := factory.Client().CheckConnection(ctx); status != transport.ProxyStatusOK {
			return fmt.Errorf("proxy check failed (make sure a SOCKS5 proxy is running at %s): %w",
				cfg.ProxyAddress, status.Error())
		}
		logger.Info("proxy connection verified", "address", factory.Client().ProxyAddress())
	}

	var db *database.TestDB
	if cfg.SaveToDB {
		db, err = openDB(cmd, cfg.MaxAttempts)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	output, closeOutput, err := openReportOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(cfg, output, summaryOnly)
	if cfg.ReportFile != "" {
		// The counts of each site still appear on the terminal.
		writer = report.NewMultiWriter(writer,
			report.NewSummaryWriter(report.NewSimpleWriter(cmd.OutOrStdout())))
	}
	status := cmd.ErrOrStderr()

	bp := pipeline.NewBatchProcessor(
		factory.Pipeline,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Fprintf(status, "Testing %d site(s) (concurrency: %d)...\n", len(cfg.Targets), cfg.BatchSize)
	startTime := time.Now()

	var mu sync.Mutex
	var failed int
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(tr *model.TestReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(status, "[%d/%d] finished %s\n", index+1, len(cfg.Targets), tr.Site)
		if tr.Error != nil {
			failed++
		}

		if err := saveReport(ctx, db, tr); err != nil {
			logger.Error("failed to save test", "site", tr.Site, "error", err)
		}
		if _, err := writer.Write(tr); err != nil {
			logger.Error("failed to write report", "site", tr.Site, "error", err)
		}
	})

	fmt.Fprintf(status, "Completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed == len(cfg.Targets) {
		return fmt.Errorf("all %d site(s) failed", failed)
	}
	return nil
}

// saveReport stores a finished report as a test. It is a no-op when db is nil.
// A report without any HTML link is stored as failed without retry.
func saveReport(ctx context.Context, db *database.TestDB, tr *model.TestReport) error {
	if db == nil {
		return nil
	}

	// The results are stored even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)

	id, err := db.StartTest(ctx, tr.Site)
	if err != nil {
		return err
	}
	tr.TestID = id

	if tr.Error != nil && len(tr.HTMLLinks) == 0 {
		_, err := db.FailTest(ctx, id, tr.Error, false)
		return err
	}
	return db.CompleteTest(ctx, id, tr.HTMLLinks, tr.SitemapLinks)
}

// openReportOutput returns the report destination: the file given with -o,
// or the command's standard output.
func openReportOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may include URLs with session data, so only the owner can read them.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter selects the report format from cfg.
func newReportWriter(cfg *config.Config, output io.Writer, summaryOnly bool) report.Writer {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose), report.WithShowEmpty(cfg.Verbose))
	}
	if summaryOnly {
		return report.NewSummaryWriter(w)
	}
	return w
}
