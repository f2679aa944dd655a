// Package gateway defines the contract between the dashboard core and the
// remote report API, and provides its HTTP implementation.
//
// The Gateway interface covers the five report operations the core depends
// on: fetching a page, fetching one report with its details, creating,
// removing and crawling. StartCrawl is the only long-running call; it honours
// context cancellation and reports it as ErrCancelled so callers can tell a
// user abort apart from a transport failure.
//
// Client talks to the API over HTTP. Every request carries a bearer
// credential from a credential.Source, a User-Agent and a fresh X-Request-ID.
// Requests can optionally be routed through a SOCKS5 proxy.
//
// AuthClient covers the login and registration endpoints, which are called
// without a credential and return one.
package gateway
