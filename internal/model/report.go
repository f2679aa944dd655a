package model

import (
	"encoding/json"
	"time"
)

// Report represents one analyzed URL.
// The JSON tags follow the wire format of the report API.
type Report struct {
	// ID is assigned by the server and never changes.
	ID int64 `json:"ID"`

	// URL is the analyzed source URL.
	URL string `json:"url"`

	// Title is the page title found by the last analysis.
	Title string `json:"title"`

	// Status is the lifecycle state of the crawl job for this report.
	Status Status `json:"status"`

	// HTMLVersion is the detected HTML version tag, e.g. "HTML5".
	HTMLVersion string `json:"html_version"`

	// Heading counts by level.
	H1Count int `json:"h1_count"`
	H2Count int `json:"h2_count"`
	H3Count int `json:"h3_count"`
	H4Count int `json:"h4_count"`
	H5Count int `json:"h5_count"`
	H6Count int `json:"h6_count"`

	// Link counts.
	InternalLinks int `json:"internal_links"`
	ExternalLinks int `json:"external_links"`
	BrokenLinks   int `json:"broken_links"`

	// HasLoginForm reports whether a login form was detected on the page.
	HasLoginForm bool `json:"has_login_form"`

	// CreatedAt is when the URL was submitted.
	CreatedAt time.Time `json:"created_at"`

	// BrokenLinkDetails lists the broken links found by the last analysis.
	// Only populated by the single report endpoint.
	BrokenLinkDetails []BrokenLink `json:"broken_links_details,omitempty"`
}

// BrokenLink is a link that could not be fetched successfully.
type BrokenLink struct {
	// Link is the target of the broken link.
	Link string `json:"link"`

	// StatusCode is the HTTP status observed for Link.
	// Zero when the request failed before a response was received.
	StatusCode int `json:"status_code,omitempty"`
}

// UnmarshalJSON accepts both the "link" and the "url" spelling of the target.
func (b *BrokenLink) UnmarshalJSON(data []byte) error {
	var raw struct {
		Link       string `json:"link"`
		URL        string `json:"url"`
		StatusCode int    `json:"status_code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Link = raw.Link
	if b.Link == "" {
		b.Link = raw.URL
	}
	b.StatusCode = raw.StatusCode
	return nil
}

// UnmarshalJSON decodes a Report, accepting "broken_links_list" as an
// alternative name for the broken link details and clamping negative counts
// to zero. A missing, null or blank status decodes as the empty Status so
// callers can tell it apart from an explicit one.
func (r *Report) UnmarshalJSON(data []byte) error {
	type plain Report
	var raw struct {
		plain
		BrokenLinksList []BrokenLink `json:"broken_links_list"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Report(raw.plain)
	if len(r.BrokenLinkDetails) == 0 && len(raw.BrokenLinksList) > 0 {
		r.BrokenLinkDetails = raw.BrokenLinksList
	}
	for _, n := range []*int{
		&r.H1Count, &r.H2Count, &r.H3Count, &r.H4Count, &r.H5Count, &r.H6Count,
		&r.InternalLinks, &r.ExternalLinks, &r.BrokenLinks,
	} {
		if *n < 0 {
			*n = 0
		}
	}
	return nil
}

// Headings returns the heading counts indexed from h1 to h6.
func (r Report) Headings() [6]int {
	return [6]int{r.H1Count, r.H2Count, r.H3Count, r.H4Count, r.H5Count, r.H6Count}
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	if r.BrokenLinkDetails != nil {
		r.BrokenLinkDetails = append([]BrokenLink(nil), r.BrokenLinkDetails...)
	}
	return r
}

// Page is a bounded window of reports for one page index and size, plus the
// total number of reports across all pages as reported by the server.
type Page struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalCount int      `json:"total_count"`
	Reports    []Report `json:"urls"`
}

// TotalPages returns ceil(TotalCount/PageSize), never less than 1.
// A non-positive page size yields 1.
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 1
	}
	return (totalCount + pageSize - 1) / pageSize
}

// IDs returns the report ids of the page in order.
func (p Page) IDs() []int64 {
	ids := make([]int64, len(p.Reports))
	for i, r := range p.Reports {
		ids[i] = r.ID
	}
	return ids
}
