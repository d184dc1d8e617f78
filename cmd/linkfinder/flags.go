package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/config"
)

// addCrawlFlags registers the flags shared by every command that crawls.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link depth of the HTML crawl (0 for no limit)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of links collected per strategy (0 for no limit)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of pages fetched in parallel within one crawl")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites tested concurrently")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all requests (e.g., 127.0.0.1:1080)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkfinder in current or home directory)")
	cmd.Flags().Bool("strict-host", false,
		"Compare host names instead of checking that a link contains the seed URL")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with each request")
}

// buildConfig creates a Config from the crawl flags of cmd and loads the
// site configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.StrictHost, err = flags.GetBool("strict-host"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = dbDir(cmd)
	cfg.Targets = args

	// An explicit --config that does not exist is an error; otherwise a
	// missing file means no site overrides.
	if err := cfg.LoadSiteConfigs(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	return cfg, nil
}
