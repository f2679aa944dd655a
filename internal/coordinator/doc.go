// Package coordinator runs crawl jobs for the reports of the dashboard.
//
// The Coordinator keeps a table from report id to the handle of its
// in-flight crawl. The table is the only source of truth for whether an id is
// running, and it holds at most one handle per id:
//
//   - StartOrCancel on an id without a handle creates one, marks the report
//     running and starts the crawl on its own goroutine.
//   - StartOrCancel on an id with a handle cancels it, removes it and marks
//     the report pending. No request is sent.
//
// When a crawl settles, its handle is removed and the outcome is written to
// the store: the returned report and its status on success, pending on
// cancellation and error on any other failure. Failures never reach the
// caller; they are logged and visible through the report status only.
//
// A settlement whose handle was already cancelled by a toggle is stale. It
// releases its resources and changes nothing else, so a late response cannot
// override the pending status or a newer crawl for the same id.
//
// Lock order is coordinator before store. Store writes for one transition
// happen while the coordinator lock is held, so the status in the store and
// the handle table never disagree for a reader that goes through the
// coordinator.
package coordinator
