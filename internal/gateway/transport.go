package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/crawldash/internal/credential"
)

// maxRedirects bounds redirect chains followed by the HTTP client.
const maxRedirects = 10

// RequestIDHeader is set on every request with a fresh UUID so that server
// logs can be correlated with client logs.
const RequestIDHeader = "X-Request-ID"

// TransportOptions configures NewHTTPClient.
type TransportOptions struct {
	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	// Empty means direct connections.
	ProxyAddress string

	// Timeout is the overall request timeout. Zero means no timeout; crawl
	// requests may legitimately run for a long time.
	Timeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// Credential supplies the bearer token. Nil sends no Authorization header.
	Credential credential.Source

	// Headers are added to every request. They never replace the
	// Authorization header set from Credential.
	Headers map[string]string
}

// NewHTTPClient creates an HTTP client for the report API.
// All requests pass through a RoundTripper that attaches the bearer
// credential, the user agent and a request id.
func NewHTTPClient(opts TransportOptions) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if opts.ProxyAddress != "" {
		if !ValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &http.Client{
		Transport: &authTransport{
			base:       transport,
			userAgent:  opts.UserAgent,
			credential: opts.Credential,
			headers:    opts.Headers,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// authTransport wraps an http.RoundTripper to inject the bearer credential,
// user agent and request id into every request.
type authTransport struct {
	base       http.RoundTripper
	userAgent  string
	credential credential.Source
	headers    map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	for k, v := range t.headers {
		if http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		clone.Header.Set(k, v)
	}
	if clone.Header.Get(RequestIDHeader) == "" {
		clone.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if t.userAgent != "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	if t.credential != nil && clone.Header.Get("Authorization") == "" {
		token, err := t.credential.Token(req.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to obtain credential: %w", err)
		}
		if token != "" {
			clone.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return t.base.RoundTrip(clone)
}

// ValidProxyAddress reports whether address is in "host:port" format with a
// port between 1 and 65535.
func ValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
