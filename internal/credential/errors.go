package credential

import "errors"

var (
	// ErrNoCredential is returned when no credential has been stored.
	ErrNoCredential = errors.New("no stored credential: run 'crawldash login'")

	// ErrExpired is returned when the stored token is past its expiry.
	ErrExpired = errors.New("stored credential has expired: run 'crawldash login'")

	// ErrMalformedToken is returned when a token cannot be parsed as a JWT.
	ErrMalformedToken = errors.New("malformed token")

	// ErrNoExpiry is returned when a token carries no expiry claim.
	ErrNoExpiry = errors.New("token has no expiry claim")
)
