// Package model defines the data structures shared by the crawldash packages.
//
// This package contains the following main types:
//   - Report: One analyzed URL as returned by the report API
//   - BrokenLink: A broken link found while crawling a Report's URL
//   - Page: A bounded window of reports plus the server-side total count
//   - Status: The lifecycle state of a crawl job for one report
//
// The models are serializable to JSON in the wire format of the report API
// and are stored as JSON in the local cache.
package model
