package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/config"
	"github.com/nao1215/crawldash/internal/gateway"
)

// NewRootCmd creates the root command for crawldash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawldash",
		Short: "Terminal dashboard for URL analysis crawls",
		Long: `crawldash talks to a URL analysis API. It lists the submitted URLs with
their heading counts, link counts, broken links and login form detection,
and starts, cancels and re-runs the crawls that produce them.

Run "crawldash login" first, or set CRAWLDASH_TOKEN.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .crawldash in current or home directory)")
	flags.String("api-url", "", fmt.Sprintf("Base URL of the report API (default %q)", config.DefaultAPIURL))
	flags.String("token", "", "Bearer token, overrides the stored login")
	flags.String("proxy", "", "Route API requests through a SOCKS5 proxy (host:port)")
	flags.Duration("timeout", 0, "Timeout for each API request (0 disables it)")
	flags.String("data-dir", "", "Directory of the local cache (default: XDG data directory)")
	flags.String("credentials", "", "Credential file (default: XDG config directory)")
	flags.Bool("no-cache", false, "Disable the local cache of pages and crawl history")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReanalyzeCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewTUICmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, gateway.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Run 'crawldash login' or set "+config.EnvToken+".")
		}
		os.Exit(1)
	}
}
