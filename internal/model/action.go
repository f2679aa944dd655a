package model

// Action describes the per-row control offered for a report in a given status.
type Action struct {
	// Label is the text shown on the control.
	Label string

	// Disabled reports whether the control cannot be used.
	Disabled bool
}

// fallbackAction is returned for statuses that have no entry in actionMapping.
var fallbackAction = Action{Label: "Unknown", Disabled: true}

// actionMapping maps each status to the row control derived from it.
// The crawl state machine itself lives in the coordinator package; this table
// only drives presentation.
var actionMapping = map[Status]Action{
	StatusPending: {Label: "Start"},
	StatusRunning: {Label: "Stop"},
	StatusDone:    {Label: "Reanalyze"},
	StatusError:   {Label: "Retry"},
	StatusQueued:  {Label: "Stop"},
}

// ActionFor returns the row control for the given status.
func ActionFor(s Status) Action {
	if a, ok := actionMapping[s]; ok {
		return a
	}
	return fallbackAction
}
