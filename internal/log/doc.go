// Package log provides logging with automatic redaction of sensitive
// values, built on top of the standard slog package.
//
// Mirroring an authenticated site means session cookies travel through the
// process: they are read from configuration, forwarded to worker processes
// and attached to browser sessions. The RedactHandler masks cookie values
// and other credentials in all log output so that logs can be shared or
// stored without leaking a live session.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("session prepared",
//	    "cookie", "token_v2=abc123", // masked in output
//	    "url", "https://site.example/",
//	)
package log
