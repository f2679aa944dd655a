package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Source supplies the bearer token for a request.
// An empty token means the request is sent without an Authorization header.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Static is a Source that always returns the same token.
type Static string

// Token returns the static token.
func (s Static) Token(context.Context) (string, error) {
	return string(s), nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f SourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Chain returns a Source that tries each source in order and returns the
// first non-empty token. A source that reports ErrNoCredential is skipped.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			token, err := s.Token(ctx)
			if errors.Is(err, ErrNoCredential) {
				continue
			}
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	})
}

// ExpiresAt returns the expiry ("exp" claim) of a JWT without verifying its
// signature.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Expired reports whether token is past its expiry at now.
// Tokens without a readable expiry are treated as not expired.
func Expired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}
