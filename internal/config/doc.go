// Package config provides configuration structures and utilities for
// webmirror. It defines the main options for mirroring a site, the worker
// pool settings, and per-site overrides loaded from the .webmirror file.
package config
