package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidAPIURL is returned when the API URL is not an absolute
	// http or https URL.
	ErrInvalidAPIURL = errors.New("invalid API URL: must be an absolute http or https URL")

	// ErrInvalidPageSize is returned when the page size is outside 1..100.
	ErrInvalidPageSize = errors.New("invalid page size: must be between 1 and 100")

	// ErrInvalidTimeout is returned when the request timeout is negative.
	// Zero disables the timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrConflictingFormats is returned when both --json and --markdown are set.
	ErrConflictingFormats = errors.New("conflicting output formats: --json and --markdown cannot be used together")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
