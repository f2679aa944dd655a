// Package report renders dashboard data for the command line.
//
// This package contains writers for different output formats:
//   - SimpleWriter: aligned text for terminal display
//   - JSONWriter: structured JSON for scripts
//   - MarkdownWriter: tables and mermaid pie charts for sharing
//
// Every writer renders three documents: a page listing, the detail of one
// report and the crawl history of one report.
package report
