package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/crawldash/internal/model"
)

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 64 * 1024

// Client is the HTTP implementation of Gateway and Authenticator.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Use NewHTTPClient to build one that
// attaches credentials.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a Client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPage implements Gateway.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) (model.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var p model.Page
	if err := c.do(ctx, "fetch page", http.MethodGet, "/urls", q, nil, &p); err != nil {
		return model.Page{}, err
	}
	return p, nil
}

// FetchOne implements Gateway.
func (c *Client) FetchOne(ctx context.Context, id int64) (model.Report, error) {
	var r model.Report
	if err := c.do(ctx, "fetch report", http.MethodGet, reportPath("/url", id), nil, nil, &r); err != nil {
		return model.Report{}, err
	}
	return r, nil
}

// Create implements Gateway. The URL is trimmed before submission.
func (c *Client) Create(ctx context.Context, rawURL string) (model.Report, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.Report{}, ErrEmptyURL
	}

	var r model.Report
	body := map[string]string{"url": rawURL}
	if err := c.do(ctx, "create report", http.MethodPost, "/urls", nil, body, &r); err != nil {
		return model.Report{}, err
	}
	return r, nil
}

// Remove implements Gateway.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, "remove report", http.MethodDelete, reportPath("/url", id), nil, nil, nil)
}

// StartCrawl implements Gateway.
func (c *Client) StartCrawl(ctx context.Context, id int64) (model.Report, error) {
	var r model.Report
	if err := c.do(ctx, "start crawl", http.MethodPost, reportPath("/crawl", id), nil, nil, &r); err != nil {
		return model.Report{}, err
	}
	return r, nil
}

// Login implements Authenticator and returns the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "login", "/auth/login", email, password)
}

// Register implements Authenticator and returns the issued token.
func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "register", "/auth/registration", email, password)
}

func (c *Client) authenticate(ctx context.Context, op, path, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, op, http.MethodPost, path, nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &TransportError{Op: op, Message: "response carried no token"}
	}
	return resp.Token, nil
}

func reportPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

// do sends one request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "op", op, "method", method, "url", u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classify(ctx, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// readErrorMessage extracts the "error" field of a JSON error body, falling
// back to the raw body text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
