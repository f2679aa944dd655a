// Package database provides the local SQLite cache of crawldash.
//
// The Cache stores:
//   - Page snapshots: the last successful page fetch per API, page and size,
//     shown when a fetch fails and the dashboard has nothing to display
//   - Crawl history: one row per crawl settlement, listed by "crawldash history"
//
// All rows are scoped by the API base URL so that switching between servers
// never mixes their reports.
//
// The driver is modernc.org/sqlite, which needs no CGO. The database is a
// single file in the XDG data directory, opened in WAL mode.
package database
