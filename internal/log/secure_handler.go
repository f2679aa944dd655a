package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"bearer":              true,
	"jwt":                 true,
	"api_key":             true,
	"apikey":              true,
	"session":             true,
	"credential":          true,
	"credentials":         true,
}

// sensitiveKeywords mask any key that contains them, e.g. "auth_token".
// The bare word "key" is not listed because of names like "sort_key".
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "auth", "credential", "cookie"}

// wholeValuePatterns mask a string value that matches as a whole.
var wholeValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+\S+$`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// embeddedPatterns are replaced wherever they occur inside a longer string.
var embeddedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`),
}

// SecureHandler wraps an slog.Handler and masks credentials in every record
// before passing it on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// A nil handler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, MaskString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks one attribute, recursing into groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, maskValue(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if masked := MaskString(msg); masked != msg {
				return slog.Any(a.Key, maskedError{msg: masked, err: err})
			}
		}
	}
	return a
}

// maskedError replaces the message of an error that contained a credential.
// The original error stays reachable through Unwrap.
type maskedError struct {
	msg string
	err error
}

func (e maskedError) Error() string { return e.msg }

func (e maskedError) Unwrap() error { return e.err }

// isSensitiveKey reports whether an attribute key names a secret.
func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// maskValue masks a whole value or the credentials inside it.
func maskValue(v string) string {
	for _, p := range wholeValuePatterns {
		if p.MatchString(v) {
			return MaskValue
		}
	}
	return MaskString(v)
}

// MaskString replaces bearer tokens and JWTs inside s with MaskValue.
func MaskString(s string) string {
	for _, p := range embeddedPatterns {
		s = p.ReplaceAllString(s, MaskValue)
	}
	return s
}

// NewSecureLogger creates a text logger with secure handling.
// verbose sets the level to Debug; otherwise it is Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON logger with secure handling.
// verbose sets the level to Debug; otherwise it is Warn.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
