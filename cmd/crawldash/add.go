package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/coordinator"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>...",
		Short: "Submit URLs for analysis",
		Long: `Add submits one or more URLs to the report API. New URLs start as pending.

Examples:
  # Submit a URL
  crawldash add https://example.com

  # Submit two URLs and analyze them right away
  crawldash add --crawl https://example.com https://example.org`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAddCmd,
	}

	cmd.Flags().Bool("crawl", false, "Start the analysis of each added URL and wait for it")

	return cmd
}

// runAddCmd executes the add command.
func runAddCmd(cmd *cobra.Command, args []string) error {
	crawl, err := cmd.Flags().GetBool("crawl")
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

	var ids []int64
	for _, u := range args {
		r, err := d.Add(ctx, u)
		if err != nil && r.ID == 0 {
			return fmt.Errorf("failed to add %s: %w", u, err)
		}
		if err != nil {
			a.logger.Warn("failed to refresh after add", "error", err)
		}
		fmt.Fprintf(a.stdout, "Added URL #%d: %s\n", r.ID, r.URL)
		ids = append(ids, r.ID)
	}

	if !crawl {
		return nil
	}

	for _, id := range ids {
		if d.StartOrCancel(ctx, id) != coordinator.Started {
			a.logger.Warn("crawl was already running and has been cancelled", "id", id)
		}
	}
	fmt.Fprintf(a.stdout, "Analyzing %d URL(s)...\n", len(ids))
	d.Wait()

	return results.print(a.stdout)
}
