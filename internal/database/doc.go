// Package database provides SQLite-based storage for mirror runs.
//
// Each run records the discovered page tree, the classified edges between
// pages, and the outcome of every download. A full graph snapshot is stored
// as JSON so a later run (or the rewrite pass alone) can reload the exact
// tree that produced a mirror on disk.
//
// The database lives in a single file, webmirror.db, under the output
// directory by default so that the mirror and its run history travel
// together.
package database
