package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/dashboard"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <id>...",
		Short: "Analyze URLs and wait for the results",
		Long: `Crawl starts the analysis of the given URLs concurrently and waits until
every one of them has finished. Press Ctrl+C to cancel the crawls that are
still running; cancelled URLs go back to pending.

Examples:
  crawldash crawl 42
  crawldash crawl 42 43 44`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd, a.logger)
	defer cancel()

	results := newSettlementLog()
	d := a.newDashboard(results.option())
	defer d.Close()

	for _, id := range ids {
		d.StartOrCancel(ctx, id)
	}
	fmt.Fprintf(a.stdout, "Analyzing %d URL(s)...\n", len(ids))
	d.Wait()

	return results.print(a.stdout)
}

// NewReanalyzeCmd creates the reanalyze command.
func NewReanalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reanalyze [id]...",
		Short: "Re-analyze selected URLs of one page",
		Long: `Reanalyze selects URLs on one page and re-runs their analysis as a bulk
action. A selected URL whose analysis is already running is cancelled
instead. The command waits for every crawl to finish.

The ids must be on the page given by --page and --page-size.

Examples:
  # Re-analyze two URLs of the first page
  crawldash reanalyze 42 43

  # Re-analyze every URL of the second page
  crawldash reanalyze --all --page 2`,
		RunE: runReanalyzeCmd,
	}

	addPageFlags(cmd)
	cmd.Flags().BoolP("all", "a", false, "Select every URL of the page")

	return cmd
}

// runReanalyzeCmd executes the reanalyze command.
func runReanalyzeCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(cmd, a.logger)
	defer cancel()

	results := newSettlementLog()
	d, err := selectFromPage(ctx, cmd, a, args, results.option())
	if err != nil {
		return err
	}
	defer d.Close()

	decisions := d.BulkReanalyze(ctx)
	fmt.Fprintf(a.stdout, "Re-analyzing %d URL(s)...\n", len(decisions))
	d.Wait()

	return results.print(a.stdout)
}

// errNothingSelected is returned when a bulk command selects no URL.
var errNothingSelected = errors.New("no URL selected: give ids or --all")

// selectFromPage loads the page given by the page flags and selects the ids
// in args, or the whole page with --all.
func selectFromPage(ctx context.Context, cmd *cobra.Command, a *app, args []string, opts ...dashboard.Option) (*dashboard.Dashboard, error) {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return nil, err
	}
	if len(args) == 0 && !all {
		return nil, errNothingSelected
	}
	ids, err := parseIDs(args)
	if err != nil {
		return nil, err
	}
	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return nil, err
	}

	d := a.newDashboard(append([]dashboard.Option{dashboard.WithPage(page)}, opts...)...)
	if err := loadPage(ctx, a, d); err != nil {
		d.Close()
		return nil, err
	}

	if all {
		d.SelectAll()
	}
	for _, id := range ids {
		if d.IsSelected(id) {
			continue
		}
		if !d.Toggle(id) {
			d.Close()
			return nil, fmt.Errorf("URL #%d is not on page %d (see --page and --page-size)", id, d.Cursor().Page())
		}
	}
	if !d.CanBulk() {
		d.Close()
		return nil, errNothingSelected
	}
	return d, nil
}
