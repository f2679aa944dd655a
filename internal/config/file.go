package config

import (
	"maps"
	"strings"
	"time"
)

// ServerConfig holds settings for one report API.
type ServerConfig struct {
	// PageSize is the initial number of URLs per page.
	PageSize int `yaml:"page_size,omitempty"`

	// Timeout bounds every API request.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent is the User-Agent header sent with API requests.
	UserAgent string `yaml:"user_agent,omitempty"`

	// Proxy is a SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// Headers are extra HTTP headers sent with every API request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .crawldash configuration file.
type File struct {
	// APIURL selects the report API when no flag or environment variable does.
	APIURL string `yaml:"api_url,omitempty"`

	// DataDir overrides the directory of the local cache.
	DataDir string `yaml:"data_dir,omitempty"`

	// Format is the default output format: "text", "json" or "markdown".
	Format string `yaml:"format,omitempty"`

	// Defaults apply to every server unless overridden in Servers.
	Defaults ServerConfig `yaml:"defaults,omitempty"`

	// Servers maps API base URLs to their settings.
	Servers map[string]ServerConfig `yaml:"servers,omitempty"`
}

// ServerConfig returns the settings for apiURL: the defaults overridden by
// the non-zero fields of the matching Servers entry. Trailing slashes are
// ignored when matching.
func (f *File) ServerConfig(apiURL string) ServerConfig {
	result := f.Defaults
	if f.Defaults.Headers != nil {
		result.Headers = maps.Clone(f.Defaults.Headers)
	}

	sc, ok := f.Servers[apiURL]
	if !ok {
		sc, ok = f.Servers[strings.TrimRight(apiURL, "/")]
	}
	if !ok {
		return result
	}

	if sc.PageSize != 0 {
		result.PageSize = sc.PageSize
	}
	if sc.Timeout != 0 {
		result.Timeout = sc.Timeout
	}
	if sc.UserAgent != "" {
		result.UserAgent = sc.UserAgent
	}
	if sc.Proxy != "" {
		result.Proxy = sc.Proxy
	}
	if len(sc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(sc.Headers))
		}
		maps.Copy(result.Headers, sc.Headers)
	}
	return result
}

// Apply copies the settings of f onto c. The API URL is applied first so
// that the matching Servers entry is used.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.DataDir != "" {
		c.DataDir = f.DataDir
	}
	switch strings.ToLower(f.Format) {
	case "json":
		c.JSONReport = true
	case "markdown", "md":
		c.MarkdownReport = true
	}

	sc := f.ServerConfig(c.APIURL)
	if sc.PageSize != 0 {
		c.PageSize = sc.PageSize
	}
	if sc.Timeout != 0 {
		c.Timeout = sc.Timeout
	}
	if sc.UserAgent != "" {
		c.UserAgent = sc.UserAgent
	}
	if sc.Proxy != "" {
		c.ProxyAddress = sc.Proxy
	}
	if len(sc.Headers) > 0 {
		c.Headers = sc.Headers
	}
}
