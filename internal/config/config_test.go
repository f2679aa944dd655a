package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies the defaults so that changing one is intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default APIURL is localhost:8080", func(t *testing.T) {
		t.Parallel()
		if cfg.APIURL != "http://localhost:8080" {
			t.Errorf("expected APIURL to be 'http://localhost:8080', got '%s'", cfg.APIURL)
		}
	})

	t.Run("default PageSize is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.PageSize != 10 {
			t.Errorf("expected PageSize to be 10, got %d", cfg.PageSize)
		}
	})

	t.Run("default Timeout is disabled", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 0 {
			t.Errorf("expected Timeout to be 0, got %v", cfg.Timeout)
		}
	})

	t.Run("default DataDir is under XDG data home", func(t *testing.T) {
		t.Parallel()
		if cfg.DataDir != XDGDataDir() {
			t.Errorf("expected DataDir %q, got %q", XDGDataDir(), cfg.DataDir)
		}
		if filepath.Base(cfg.DataDir) != AppName {
			t.Errorf("expected DataDir to end with %q, got %q", AppName, cfg.DataDir)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid", modify: func(*Config) {}, wantErr: nil},
		{name: "https api url", modify: func(c *Config) { c.APIURL = "https://api.example.com/v1" }, wantErr: nil},
		{name: "api url without scheme", modify: func(c *Config) { c.APIURL = "localhost:8080" }, wantErr: ErrInvalidAPIURL},
		{name: "api url with ftp scheme", modify: func(c *Config) { c.APIURL = "ftp://example.com" }, wantErr: ErrInvalidAPIURL},
		{name: "api url without host", modify: func(c *Config) { c.APIURL = "http://" }, wantErr: ErrInvalidAPIURL},
		{name: "page size zero", modify: func(c *Config) { c.PageSize = 0 }, wantErr: ErrInvalidPageSize},
		{name: "page size 101", modify: func(c *Config) { c.PageSize = 101 }, wantErr: ErrInvalidPageSize},
		{name: "page size 100", modify: func(c *Config) { c.PageSize = 100 }, wantErr: nil},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "both formats", modify: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, wantErr: ErrConflictingFormats},
		{name: "json only", modify: func(c *Config) { c.JSONReport = true }, wantErr: nil},
		{name: "bad proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1" }, wantErr: ErrInvalidProxyAddress},
		{name: "good proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFileServerConfig tests the merge of defaults and per-server settings.
func TestFileServerConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when server not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: ServerConfig{PageSize: 20, UserAgent: "default-agent"},
			Servers:  map[string]ServerConfig{},
		}

		sc := file.ServerConfig("http://unknown:8080")
		if sc.PageSize != 20 {
			t.Errorf("expected page size 20, got %d", sc.PageSize)
		}
		if sc.UserAgent != "default-agent" {
			t.Errorf("expected default user agent, got %q", sc.UserAgent)
		}
	})

	t.Run("server settings override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: ServerConfig{PageSize: 20, Timeout: time.Minute},
			Servers: map[string]ServerConfig{
				"https://api.example.com": {PageSize: 50, Proxy: "127.0.0.1:9050"},
			},
		}

		sc := file.ServerConfig("https://api.example.com")
		if sc.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", sc.PageSize)
		}
		if sc.Timeout != time.Minute {
			t.Errorf("expected default timeout, got %v", sc.Timeout)
		}
		if sc.Proxy != "127.0.0.1:9050" {
			t.Errorf("expected server proxy, got %q", sc.Proxy)
		}
	})

	t.Run("trailing slash is ignored", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Servers: map[string]ServerConfig{
				"https://api.example.com": {PageSize: 30},
			},
		}

		if sc := file.ServerConfig("https://api.example.com/"); sc.PageSize != 30 {
			t.Errorf("expected page size 30, got %d", sc.PageSize)
		}
	})

	t.Run("headers are merged and server wins", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: ServerConfig{
				Headers: map[string]string{"X-Default": "value1", "X-Team": "default"},
			},
			Servers: map[string]ServerConfig{
				"http://localhost:8080": {
					Headers: map[string]string{"X-Team": "crawl"},
				},
			},
		}

		sc := file.ServerConfig("http://localhost:8080")
		if sc.Headers["X-Default"] != "value1" {
			t.Errorf("expected default header, got %v", sc.Headers)
		}
		if sc.Headers["X-Team"] != "crawl" {
			t.Errorf("expected server header to override, got %v", sc.Headers)
		}
		if file.Defaults.Headers["X-Team"] != "default" {
			t.Error("merging modified the default headers")
		}
	})

	t.Run("nil servers map", func(t *testing.T) {
		t.Parallel()

		file := &File{Defaults: ServerConfig{PageSize: 25}}
		if sc := file.ServerConfig("http://any"); sc.PageSize != 25 {
			t.Errorf("expected page size 25, got %d", sc.PageSize)
		}
	})
}

func TestConfigApply(t *testing.T) {
	t.Parallel()

	t.Run("api url selects the server entry", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Apply(&File{
			APIURL:  "https://api.example.com",
			DataDir: "/tmp/crawldash",
			Format:  "Markdown",
			Servers: map[string]ServerConfig{
				"https://api.example.com": {
					PageSize: 25,
					Timeout:  30 * time.Second,
					Headers:  map[string]string{"X-Team": "crawl"},
				},
			},
		})

		if cfg.APIURL != "https://api.example.com" {
			t.Errorf("APIURL = %q", cfg.APIURL)
		}
		if cfg.DataDir != "/tmp/crawldash" {
			t.Errorf("DataDir = %q", cfg.DataDir)
		}
		if !cfg.MarkdownReport || cfg.JSONReport {
			t.Errorf("expected markdown format, got json=%v markdown=%v", cfg.JSONReport, cfg.MarkdownReport)
		}
		if cfg.PageSize != 25 || cfg.Timeout != 30*time.Second {
			t.Errorf("PageSize = %d, Timeout = %v", cfg.PageSize, cfg.Timeout)
		}
		if cfg.Headers["X-Team"] != "crawl" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
	})

	t.Run("nil file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Apply(nil)
		if cfg.APIURL != DefaultAPIURL || cfg.PageSize != DefaultPageSize {
			t.Errorf("defaults changed: %+v", cfg)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads valid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `api_url: https://api.example.com
format: json
defaults:
  page_size: 20
  timeout: 45s
  headers:
    X-Team: crawl
servers:
  https://api.example.com:
    page_size: 50
    proxy: 127.0.0.1:9050
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}
		if f.APIURL != "https://api.example.com" || f.Format != "json" {
			t.Errorf("unexpected top level: %+v", f)
		}
		if f.Defaults.Timeout != 45*time.Second {
			t.Errorf("expected timeout 45s, got %v", f.Defaults.Timeout)
		}
		sc := f.ServerConfig(f.APIURL)
		if sc.PageSize != 50 || sc.Proxy != "127.0.0.1:9050" || sc.Headers["X-Team"] != "crawl" {
			t.Errorf("unexpected server config: %+v", sc)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("servers: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("empty file initializes servers", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}
		if f.Servers == nil {
			t.Error("expected Servers to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path that exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("dotenv file overridden by process environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "CRAWLDASH_API_URL=https://from-file.example\nCRAWLDASH_PAGE_SIZE=25\nUNRELATED=1\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvAPIURL, "https://from-env.example")

		env, err := LoadEnv(path)
		if err != nil {
			t.Fatalf("LoadEnv failed: %v", err)
		}
		if env[EnvAPIURL] != "https://from-env.example" {
			t.Errorf("%s = %q", EnvAPIURL, env[EnvAPIURL])
		}
		if env[EnvPageSize] != "25" {
			t.Errorf("%s = %q", EnvPageSize, env[EnvPageSize])
		}
		if _, ok := env["UNRELATED"]; ok {
			t.Error("unrelated variable was returned")
		}
	})

	t.Run("missing dotenv file is not an error", func(t *testing.T) {
		if _, err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestConfigApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("applies all variables", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(map[string]string{
			EnvAPIURL:   "https://api.example.com",
			EnvToken:    "opaque",
			EnvProxy:    "127.0.0.1:9050",
			EnvPageSize: "50",
		})
		if err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}
		if cfg.APIURL != "https://api.example.com" || cfg.Token != "opaque" ||
			cfg.ProxyAddress != "127.0.0.1:9050" || cfg.PageSize != 50 {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	t.Run("non-numeric page size", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(map[string]string{EnvPageSize: "many"})
		if !errors.Is(err, ErrInvalidPageSize) {
			t.Errorf("expected ErrInvalidPageSize, got %v", err)
		}
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := cfg.ApplyEnv(map[string]string{EnvAPIURL: ""}); err != nil {
			t.Fatal(err)
		}
		if cfg.APIURL != DefaultAPIURL {
			t.Errorf("APIURL = %q", cfg.APIURL)
		}
	})
}
