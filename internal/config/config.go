package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMaxDepth of -1 means unlimited: discovery expands the tree
	// until no unvisited internal page remains. Script-rendered document
	// trees are finite in practice, and the visited-set check prevents
	// revisiting, so unlimited depth terminates.
	DefaultMaxDepth = -1

	// DefaultWorkers of 4 concurrent browser processes balances download
	// throughput against memory use. Each worker holds a full headless
	// browser, which is the dominant cost.
	DefaultWorkers = 4

	// DefaultMaxRetries is how many times a failed download is requeued
	// before being recorded as a permanent failure. Transient renderer
	// crashes usually succeed on the first retry.
	DefaultMaxRetries = 2

	// DefaultPageTimeout bounds a single page render. Script-heavy pages
	// can take tens of seconds to settle; 60 seconds covers slow pages
	// without letting a hung renderer stall a worker forever.
	DefaultPageTimeout = 60 * time.Second

	// DefaultPageWait is the settle delay after the document is ready,
	// giving client-side rendering time to populate the page body before
	// the snapshot is taken.
	DefaultPageWait = 1500 * time.Millisecond

	// DefaultOutputDir is the mirror root when none is given.
	DefaultOutputDir = "mirror"

	// AppName is the application name used for XDG directory paths.
	AppName = "webmirror"
)

// Config holds all configuration options for webmirror.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, PoolConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// RootURL is the page the mirror is rooted at. Discovery starts here
	// and only follows links on the same host.
	RootURL string

	// OutputDir is the directory the mirrored tree is written under.
	// Created if it does not exist.
	OutputDir string

	// MaxDepth bounds discovery. Negative means unlimited. Zero means
	// the root is registered but never expanded.
	MaxDepth int

	// Workers is the number of concurrent browser worker processes.
	Workers int

	// MaxRetries is how many times a failed download is retried before
	// it is recorded as a permanent failure.
	MaxRetries int

	// PageTimeout bounds a single page render inside a worker.
	PageTimeout time.Duration

	// PageWait is the settle delay after document-ready before the page
	// is snapshotted.
	PageWait time.Duration

	// Cookie is the session cookie header sent with every page load.
	// Format: "name=value" or "name1=value1; name2=value2". Required for
	// sites behind authentication; empty for public sites.
	Cookie string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webmirror in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// ReportFile is the output file path for the run report.
	// When set, the Markdown report is written there instead of stdout.
	ReportFile string

	// DBDir is the directory for the run database.
	// Defaults to the XDG data directory (~/.local/share/webmirror on Linux).
	DBDir string

	// SaveToDB indicates whether run history is persisted to the
	// database. Defaults to true; --no-db disables it.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, worker
// count). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		Workers:     DefaultWorkers,
		MaxRetries:  DefaultMaxRetries,
		PageTimeout: DefaultPageTimeout,
		PageWait:    DefaultPageWait,
		OutputDir:   DefaultOutputDir,
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for webmirror.
// On Linux: ~/.local/share/webmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webmirror.
// On Linux: ~/.config/webmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any work begins.
func (c *Config) Validate() error {
	if c.RootURL == "" {
		return ErrNoRootURL
	}
	u, err := url.Parse(c.RootURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidRootURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidRootURL
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	// Workers must be positive; zero would mean no downloading
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.PageTimeout <= 0 {
		return ErrInvalidPageTimeout
	}

	// PageWait may be zero (no settle delay) but not negative
	if c.PageWait < 0 {
		return ErrInvalidPageWait
	}

	return nil
}

// ApplySiteOverrides merges per-site overrides for the root URL's host into
// the config. Explicit values from the config file win over defaults, but
// never over values the user set on the command line; callers pass the set
// of flags the user touched.
func (c *Config) ApplySiteOverrides(flagSet func(name string) bool) {
	if c.SiteConfigs == nil {
		return
	}
	u, err := url.Parse(c.RootURL)
	if err != nil {
		return
	}
	site := c.SiteConfigs.SiteConfig(u.Host)

	if site.Cookie != "" && !flagSet("cookie") {
		c.Cookie = site.Cookie
	}
	if site.Depth != 0 && !flagSet("depth") {
		c.MaxDepth = site.Depth
	}
	if site.Workers != 0 && !flagSet("workers") {
		c.Workers = site.Workers
	}
	if site.PageWaitMillis != 0 && !flagSet("page-wait") {
		c.PageWait = time.Duration(site.PageWaitMillis) * time.Millisecond
	}
}
