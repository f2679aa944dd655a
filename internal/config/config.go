package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/crawldash/internal/gateway"
	"github.com/nao1215/crawldash/internal/pager"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "crawldash"

	// DefaultAPIURL is where the report API listens in a local setup.
	DefaultAPIURL = "http://localhost:8080"

	// DefaultPageSize is the number of URLs per page.
	DefaultPageSize = pager.DefaultPageSize

	// DefaultTimeout disables the request timeout. A crawl stays running
	// until the server answers or the user cancels it.
	DefaultTimeout time.Duration = 0

	// DefaultUserAgent identifies crawldash in API requests.
	DefaultUserAgent = "crawldash (+https://github.com/nao1215/crawldash)"
)

// Config holds all configuration options for crawldash.
type Config struct {
	// APIURL is the base URL of the report API.
	APIURL string

	// PageSize is the initial number of URLs per page.
	PageSize int

	// Timeout bounds every API request. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with API requests.
	UserAgent string

	// Token is a bearer token that takes precedence over the stored
	// credential. Usually set through CRAWLDASH_TOKEN.
	Token string

	// ProxyAddress routes API requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Headers are extra HTTP headers sent with every API request.
	Headers map[string]string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// DataDir holds the local cache database.
	// Defaults to the XDG data directory (~/.local/share/crawldash on Linux).
	DataDir string

	// NoCache disables the local cache.
	NoCache bool

	// CredentialPath is the file holding the stored login.
	// Empty means $XDG_CONFIG_HOME/crawldash/credentials.json.
	CredentialPath string

	// ConfigFilePath is the configuration file given with --config.
	ConfigFilePath string

	// MetricsAddr serves Prometheus metrics on this address when set.
	MetricsAddr string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		PageSize:  DefaultPageSize,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		DataDir:   XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for crawldash.
// On Linux: ~/.local/share/crawldash
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for crawldash.
// On Linux: ~/.config/crawldash
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIURL
	}

	if !pager.ValidPageSize(c.PageSize) {
		return ErrInvalidPageSize
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingFormats
	}

	if c.ProxyAddress != "" && !gateway.ValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	return nil
}
