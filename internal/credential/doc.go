// Package credential provides the bearer credential attached to report API
// requests.
//
// The dashboard core never reads the credential directly. It receives a
// Source when the gateway is constructed, so the credential can come from a
// flag, an environment variable or the file written by "crawldash login".
//
// Tokens are JWTs issued by the report API. ExpiresAt inspects the expiry
// claim without verifying the signature; verification is the server's job.
package credential
