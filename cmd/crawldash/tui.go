package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/coordinator"
	"github.com/nao1215/crawldash/internal/credential"
	"github.com/nao1215/crawldash/internal/dashboard"
	"github.com/nao1215/crawldash/internal/log"
	"github.com/nao1215/crawldash/internal/tui"
)

// NewTUICmd creates the tui command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard",
		Long: `Tui opens a full screen dashboard of the submitted URLs. Crawls run in the
background while you browse; press ? for the key bindings.

Logs would corrupt the screen, so they are discarded unless --log-file is
given.

Examples:
  crawldash tui
  crawldash tui --page-size 25 --log-file /tmp/crawldash.log -v`,
		Args: cobra.NoArgs,
		RunE: runTUICmd,
	}

	addPageFlags(cmd)
	cmd.Flags().String("log-file", "", "Write logs to this file")

	return cmd
}

// runTUICmd executes the tui command.
func runTUICmd(cmd *cobra.Command, _ []string) error {
	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // User-provided log path is intentional
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	a.logger = log.NewSecureLogger(logOut, a.cfg.Verbose)
	slog.SetDefault(a.logger)
	if a.client, err = a.newClient(credential.Chain(credential.Static(a.cfg.Token), a.creds)); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, a.logger)
	defer cancel()

	events := tui.NewEvents()
	d := a.newDashboard(
		dashboard.WithPage(page),
		dashboard.WithNotifier(events),
		dashboard.WithCoordinatorOptions(coordinator.WithSettleFunc(events.Settled)),
	)

	program := tea.NewProgram(tui.New(ctx, d, events),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err = program.Run()

	events.Close()
	d.Close()
	return err
}
