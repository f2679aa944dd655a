package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/config"
	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/credential"
	"github.com/nao1215/crawldash/internal/dashboard"
	"github.com/nao1215/crawldash/internal/database"
	"github.com/nao1215/crawldash/internal/gateway"
	"github.com/nao1215/crawldash/internal/log"
	"github.com/nao1215/crawldash/internal/report"
)

// dotenvFile is read from the working directory when present.
const dotenvFile = ".env"

// app holds the collaborators shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *gateway.Client
	creds   *credential.FileStore
	cache   *database.Cache
	metrics *coordinator.Metrics
	server  *http.Server
	stdout  io.Writer
	stderr  io.Writer

	transport gateway.TransportOptions
}

// newApp resolves the configuration of cmd and builds the API client.
// The caller must call close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	creds := credential.NewFileStore(cfg.CredentialPath)
	a := &app{
		cfg:    cfg,
		logger: logger,
		creds:  creds,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	a.transport = gateway.TransportOptions{
		ProxyAddress: cfg.ProxyAddress,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		Headers:      cfg.Headers,
	}

	a.client, err = a.newClient(credential.Chain(credential.Static(cfg.Token), creds))
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		if err := a.serveMetrics(); err != nil {
			return nil, err
		}
	}

	logger.Debug("configuration resolved",
		"api_url", cfg.APIURL,
		"page_size", cfg.PageSize,
		"proxy", cfg.ProxyAddress,
		"config_file", cfg.ConfigFilePath,
		"no_cache", cfg.NoCache,
	)
	return a, nil
}

// newClient creates an API client that authenticates with source.
// A nil source sends no Authorization header.
func (a *app) newClient(source credential.Source) (*gateway.Client, error) {
	opts := a.transport
	opts.Credential = source
	httpClient, err := gateway.NewHTTPClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return gateway.NewClient(a.cfg.APIURL,
		gateway.WithHTTPClient(httpClient),
		gateway.WithLogger(a.logger),
	)
}

// buildConfig creates a Config from the configuration file, the environment
// and the command line flags, in increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.UserAgent = "crawldash/" + getVersion()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently continue without one.
	var file *config.File
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ConfigFilePath = configPath
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	env, err := config.LoadEnv(dotenvFile)
	if err != nil {
		return nil, err
	}

	// The API URL is resolved first so that the matching servers entry of
	// the configuration file applies.
	if file != nil {
		if v := env[config.EnvAPIURL]; v != "" {
			file.APIURL = v
		}
		if flags.Changed("api-url") {
			if file.APIURL, err = flags.GetString("api-url"); err != nil {
				return nil, err
			}
		}
		cfg.Apply(file)
	}

	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"api-url":      &cfg.APIURL,
		"token":        &cfg.Token,
		"proxy":        &cfg.ProxyAddress,
		"data-dir":     &cfg.DataDir,
		"metrics-addr": &cfg.MetricsAddr,
		"credentials":  &cfg.CredentialPath,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	boolFlags := map[string]*bool{
		"verbose":  &cfg.Verbose,
		"no-cache": &cfg.NoCache,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	// A format flag replaces the format of the configuration file.
	// Commands without the flag get false.
	if flags.Changed("json") || flags.Changed("markdown") {
		cfg.JSONReport, _ = flags.GetBool("json")         //nolint:errcheck // Undefined flag reads as false
		cfg.MarkdownReport, _ = flags.GetBool("markdown") //nolint:errcheck // Undefined flag reads as false
	}

	if flags.Changed("page-size") {
		if cfg.PageSize, err = flags.GetInt("page-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// serveMetrics exposes the coordinator metrics and the Go runtime
// collectors on cfg.MetricsAddr.
func (a *app) serveMetrics() error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = coordinator.NewMetrics(registry)

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	a.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()

	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// openCache opens the local cache unless it is disabled. A cache that
// cannot be opened is reported and skipped.
func (a *app) openCache() *database.Cache {
	if a.cache != nil || a.cfg.NoCache {
		return a.cache
	}
	cache, err := database.Open(a.cfg.DataDir, database.DefaultOptions())
	if err != nil {
		a.logger.Warn("local cache disabled", "dir", a.cfg.DataDir, "error", err)
		return nil
	}
	a.cache = cache
	a.logger.Debug("cache opened", "path", cache.Path())
	return cache
}

// newDashboard creates a Dashboard with the shared collaborators and opts.
func (a *app) newDashboard(opts ...dashboard.Option) *dashboard.Dashboard {
	base := []dashboard.Option{
		dashboard.WithLogger(a.logger),
		dashboard.WithPageSize(a.cfg.PageSize),
		dashboard.WithNotifier(dashboard.NotifierFunc(func(message string) {
			fmt.Fprintln(a.stderr, "Error:", message)
		})),
	}
	if cache := a.openCache(); cache != nil {
		base = append(base, dashboard.WithCache(cache, a.client.BaseURL()))
	}
	if a.metrics != nil {
		base = append(base, dashboard.WithCoordinatorOptions(coordinator.WithMetrics(a.metrics)))
	}
	return dashboard.New(a.client, append(base, opts...)...)
}

// writer returns the report writer for the configured format.
func (a *app) writer(output io.Writer) report.Writer {
	switch {
	case a.cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case a.cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(a.cfg.Verbose))
	}
}

// output returns the destination of a report: the file given with
// --output, or stdout. The returned function closes the file.
func (a *app) output(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("output") //nolint:errcheck // Commands without --output write to stdout
	if path == "" {
		return a.stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may list private URLs, so the file is only readable by the owner.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// close releases the cache and stops the metrics server.
func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close cache", "error", err)
		}
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to stop metrics server", "error", err)
		}
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
