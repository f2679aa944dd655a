// Package dashboard wires the report store, the selection, the page cursor,
// the view projection and the crawl coordinator into the object driven by
// the command line and the terminal UI.
//
// Page changes refetch through the gateway and replace the store. Row
// actions go through the coordinator, which owns every crawl handle. Bulk
// delete is the only operation that interrupts the user: when any of the
// concurrent deletes fails, the Notifier receives one alert and the page is
// not refetched.
//
// A Dashboard may be given a local cache. Successful fetches are saved as
// page snapshots, a failed fetch on an empty dashboard shows the last
// snapshot instead, and every crawl settlement is appended to the crawl
// history.
package dashboard
