// Package pipeline orchestrates a mirror run as an ordered sequence of
// steps: discover the page tree, plan output paths and download tasks,
// execute downloads through the worker pool, rewrite links in the saved
// documents, and report the outcome.
//
// Steps share state through a RunState value. A step failure normally
// records the error and lets later steps decide what they can still do;
// the execution step is the one hard gate, refusing to download anything
// without a confirmed page tree.
package pipeline
