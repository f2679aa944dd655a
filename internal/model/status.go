package model

import (
	"encoding/json"
	"strings"
)

// Status represents the lifecycle state of the crawl job for one report.
// Values received from the server are normalised with ParseStatus. A
// decoded Report leaves Status empty when the server sent none.
type Status string

const (
	// StatusPending means no analysis is active and none has completed since
	// the last cancellation. New reports start here.
	StatusPending Status = "pending"

	// StatusQueued means the report was selected for a bulk re-analyze and
	// its crawl has not been dispatched yet.
	StatusQueued Status = "queued"

	// StatusRunning means a crawl request is in flight.
	StatusRunning Status = "running"

	// StatusDone means the last analysis succeeded.
	StatusDone Status = "done"

	// StatusError means the last analysis failed for a reason other than
	// cancellation.
	StatusError Status = "error"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusQueued, StatusRunning, StatusDone, StatusError}

// statusAliases maps the status names the backend uses internally to the
// dashboard's status set.
var statusAliases = map[string]Status{
	"pending":   StatusPending,
	"queued":    StatusQueued,
	"running":   StatusRunning,
	"crawling":  StatusRunning,
	"done":      StatusDone,
	"completed": StatusDone,
	"error":     StatusError,
	"failed":    StatusError,
}

// ParseStatus converts a raw status string into a Status.
// Matching is case-insensitive. Detailed failures such as
// "failed with status 404" map to StatusError. Unknown values map to
// StatusPending.
func ParseStatus(s string) Status {
	v := strings.ToLower(strings.TrimSpace(s))
	if st, ok := statusAliases[v]; ok {
		return st
	}
	if strings.HasPrefix(v, "failed") {
		return StatusError
	}
	return StatusPending
}

// String returns the wire representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known status constants.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusRunning, StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// UnmarshalJSON normalises the decoded status with ParseStatus. A null or
// blank status decodes to the empty Status so callers can tell it apart
// from an explicit "pending".
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*s = ""
		return nil
	}
	*s = ParseStatus(*raw)
	return nil
}
