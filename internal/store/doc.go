// Package store holds the reports of the page currently shown by the dashboard.
//
// A Store has no I/O of its own. It is filled by page fetches (ReplacePage),
// updated by crawl settlements (MergeOne) and receives optimistic status
// flips (SetStatus) before the network settles. Every mutation is visible to
// the next read and bumps a version number that projections use to detect
// change.
package store
