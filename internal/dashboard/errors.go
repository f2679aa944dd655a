package dashboard

import "errors"

// BulkDeleteAlert is the message sent to the Notifier when a bulk delete
// fails for at least one id.
const BulkDeleteAlert = "Failed to delete one or more URLs."

var (
	// ErrBulkDelete is returned when one or more deletes of a bulk delete failed.
	ErrBulkDelete = errors.New("failed to delete one or more URLs")

	// ErrInvalidPageSize is returned when the page size is outside 1..100.
	ErrInvalidPageSize = errors.New("invalid page size: must be between 1 and 100")

	// ErrNoCache is returned by History when the dashboard has no cache.
	ErrNoCache = errors.New("crawl history is not available without a local cache")
)
