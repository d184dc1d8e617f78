package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "linkfinder"

	// DefaultTimeout is the per-request timeout. A page that does not answer
	// in time is treated as unreachable and pruned.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDepth limits how many links away from the seed the HTML
	// crawl goes.
	DefaultCrawlDepth = 10

	// DefaultMaxPages caps the number of links collected per strategy and
	// site. 0 means unlimited. A capped crawl marks its report truncated.
	DefaultMaxPages = 0

	// DefaultConcurrency is the number of pages fetched in parallel within one
	// crawl run. 1 keeps the traversal strictly sequential.
	DefaultConcurrency = 1

	// DefaultBatchSize is the number of sites tested concurrently.
	DefaultBatchSize = 2

	// DefaultUserAgent identifies LinkFinder in HTTP requests.
	DefaultUserAgent = "LinkFinder/1.0 (+https://github.com/nao1215/linkfinder)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultPollInterval is how often an idle worker looks for pending tests.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxAttempts is how many times a test is tried before it is
	// marked as failed.
	DefaultMaxAttempts = 3
)

// Config holds all configuration options for LinkFinder.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	ProxyAddress string

	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// CrawlDepth is the maximum link depth of the HTML crawl.
	// 0 means unlimited.
	CrawlDepth int

	// MaxPages is the maximum number of links collected per strategy.
	// 0 means unlimited.
	MaxPages int

	// Concurrency is the number of pages fetched in parallel within one crawl.
	Concurrency int

	// BatchSize is the number of sites tested concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// StrictHost makes site membership compare hosts instead of testing
	// whether a link contains the seed URL.
	StrictHost bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Targets are the seed URLs to test.
	Targets []string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/linkfinder on Linux).
	DBDir string

	// SaveToDB stores crawl results in the database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// PollInterval is how often an idle worker checks for pending tests.
	PollInterval time.Duration

	// MaxAttempts is how many times a test is tried before it fails for good.
	MaxAttempts int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		CrawlDepth:   DefaultCrawlDepth,
		MaxPages:     DefaultMaxPages,
		Concurrency:  DefaultConcurrency,
		BatchSize:    DefaultBatchSize,
		DBDir:        XDGDataDir(),
		SaveToDB:     true,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// XDGDataDir returns the XDG data directory for LinkFinder.
// On Linux: ~/.local/share/linkfinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for LinkFinder.
// On Linux: ~/.config/linkfinder
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration of a command that takes targets.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.ValidateOptions()
}

// ValidateOptions checks everything except the targets. Commands without
// positional URLs, such as the worker, call it directly.
func (c *Config) ValidateOptions() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}
