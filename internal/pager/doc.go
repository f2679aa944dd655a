// Package pager tracks the page index and page size of the dashboard and the
// total page count derived from the server-reported total.
//
// Mutators report whether the cursor changed; the caller refetches the page
// when they do.
package pager
