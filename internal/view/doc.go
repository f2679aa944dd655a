// Package view derives the rendered rows of the dashboard from the reports of
// the current page, a free-text filter and a sort specification.
//
// Filtering runs first on the full page: a report is kept if the lower-cased
// needle is a substring of its lower-cased URL or title. Sorting is stable and
// keyed by one column at a time. Numeric columns compare numerically, all
// other columns compare as strings.
//
// Project is a pure function. Projector wraps it and recomputes only when the
// store version, the needle or the sort specification changes.
package view
