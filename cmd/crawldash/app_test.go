package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/config"
)

// parseCommand returns the list command with args parsed, without running it.
func parseCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd, rest, err := NewRootCmd().Find([]string{"list"})
	if err != nil {
		t.Fatalf("failed to find list: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected rest: %v", rest)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const staging = "https://staging.example.com"

const testConfig = `
api_url: https://staging.example.com
format: markdown
defaults:
  page_size: 25
  timeout: 30s
  headers:
    X-Team: platform
servers:
  https://staging.example.com:
    page_size: 50
    headers:
      X-Env: staging
`

// The precedence tests modify the environment and cannot run in parallel.

func TestBuildConfigFromFile(t *testing.T) {
	for _, key := range []string{config.EnvAPIURL, config.EnvToken, config.EnvProxy, config.EnvPageSize} {
		t.Setenv(key, "")
	}
	path := writeConfigFile(t, testConfig)

	cfg, err := buildConfig(parseCommand(t, "--config", path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != staging {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, staging)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want the server value 50", cfg.PageSize)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Headers["X-Team"] != "platform" || cfg.Headers["X-Env"] != "staging" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if !cfg.MarkdownReport || cfg.JSONReport {
		t.Error("expected markdown format from the file")
	}
	if cfg.ConfigFilePath != path {
		t.Errorf("ConfigFilePath = %q, want %q", cfg.ConfigFilePath, path)
	}
	if !strings.HasPrefix(cfg.UserAgent, "crawldash/") {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestBuildConfigPrecedence(t *testing.T) {
	path := writeConfigFile(t, testConfig)
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvToken, "env-token")
	t.Setenv(config.EnvProxy, "")
	t.Setenv(config.EnvPageSize, "10")

	t.Run("environment overrides the file", func(t *testing.T) {
		cfg, err := buildConfig(parseCommand(t, "--config", path))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PageSize != 10 {
			t.Errorf("PageSize = %d, want 10", cfg.PageSize)
		}
		if cfg.Token != "env-token" {
			t.Errorf("Token = %q, want env-token", cfg.Token)
		}
	})

	t.Run("flags override the environment", func(t *testing.T) {
		cfg, err := buildConfig(parseCommand(t,
			"--config", path,
			"--page-size", "5",
			"--token", "flag-token",
			"--timeout", "1m",
			"--json",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PageSize != 5 || cfg.Token != "flag-token" || cfg.Timeout != time.Minute {
			t.Errorf("flags not applied: %+v", cfg)
		}
		if !cfg.JSONReport || cfg.MarkdownReport {
			t.Error("--json did not replace the file format")
		}
	})

	t.Run("api url flag selects the server entry", func(t *testing.T) {
		cfg, err := buildConfig(parseCommand(t, "--config", path, "--api-url", "https://prod.example.com"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIURL != "https://prod.example.com" {
			t.Errorf("APIURL = %q", cfg.APIURL)
		}
		if _, ok := cfg.Headers["X-Env"]; ok {
			t.Errorf("staging headers applied to another server: %v", cfg.Headers)
		}
		// The environment still sets the page size.
		if cfg.PageSize != 10 {
			t.Errorf("PageSize = %d, want 10", cfg.PageSize)
		}
	})

	t.Run("invalid page size in the environment", func(t *testing.T) {
		t.Setenv(config.EnvPageSize, "many")
		if _, err := buildConfig(parseCommand(t, "--config", path)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBuildConfigMissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := buildConfig(parseCommand(t, "--config", missing))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    []int64
		wantErr bool
	}{
		{name: "single", args: []string{"42"}, want: []int64{42}},
		{name: "keeps order", args: []string{"3", "1", "2"}, want: []int64{3, 1, 2}},
		{name: "removes duplicates", args: []string{"1", "2", "1"}, want: []int64{1, 2}},
		{name: "empty", args: nil, want: []int64{}},
		{name: "zero", args: []string{"0"}, wantErr: true},
		{name: "negative", args: []string{"-1"}, wantErr: true},
		{name: "not a number", args: []string{"abc"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseIDs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
