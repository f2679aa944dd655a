// Package main provides the entry point for the crawldash CLI.
//
// crawldash is a terminal dashboard for a URL analysis service. It lists
// submitted URLs with their link and heading statistics, starts and cancels
// crawls, and runs bulk re-analysis and deletion.
//
// Usage:
//
//	crawldash login
//	crawldash add https://example.com
//	crawldash list --sort broken_links --desc
//	crawldash tui
//
// See --help for all available options.
package main

// main is the entry point for crawldash.
func main() {
	Execute()
}
