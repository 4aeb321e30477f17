package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoRootURL is returned when no root URL is specified.
	ErrNoRootURL = errors.New("no root URL specified: provide the page to mirror")

	// ErrInvalidRootURL is returned when the root URL is not an absolute
	// http or https URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http(s) URL")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would mean nothing gets downloaded.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxRetries is returned when the retry limit is negative.
	// Use 0 to fail tasks on their first error.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidPageTimeout is returned when the page timeout is not positive.
	ErrInvalidPageTimeout = errors.New("invalid page timeout: must be positive")

	// ErrInvalidPageWait is returned when the page settle delay is negative.
	// Use 0 for no delay after document-ready.
	ErrInvalidPageWait = errors.New("invalid page wait: must be non-negative")
)
