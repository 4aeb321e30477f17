// Package main provides the entry point for the webmirror CLI.
//
// webmirror downloads a script-rendered site into a browsable tree of
// static documents, preserving the site's own hierarchy and rewriting
// links so the mirror works offline.
//
// Usage:
//
//	webmirror mirror <url>
//	webmirror mirror --cookie "token_v2=..." <url>
//
// See --help for all available options.
package main

// main is the entry point for webmirror.
func main() {
	Execute()
}
