// Package log builds the slog loggers of crawldash.
//
// Every logger wraps its handler in a SecureHandler, which masks the API
// credential before a record is written:
//   - attributes whose key names a secret (authorization, token, password,
//     cookie and similar)
//   - string values that are a bearer token, a basic auth header or a JWT
//   - JWTs and bearer tokens embedded in longer strings such as error
//     messages and the log message itself
//
// Masking also applies at debug level.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("request sent", "authorization", "Bearer eyJ...") // authorization=***REDACTED***
package log
