package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/config"
	"github.com/nao1215/crawldash/internal/dashboard"
	"github.com/nao1215/crawldash/internal/report"
	"github.com/nao1215/crawldash/internal/view"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted URLs and their analysis results",
		Long: `List fetches one page of URLs from the report API and prints it.

The filter and sort apply to the fetched page only.

Sort columns: ` + strings.Join(view.ColumnKeys(), ", ") + `

Examples:
  # First page with the default page size
  crawldash list

  # Third page, 25 URLs per page
  crawldash list --page 3 --page-size 25

  # URLs containing "blog", most broken links first
  crawldash list --filter blog --sort broken_links --desc

  # Markdown report written to a file
  crawldash list --markdown -o urls.md`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}

	addPageFlags(cmd)
	cmd.Flags().StringP("filter", "f", "", "Show only URLs whose URL or title contains this text")
	cmd.Flags().StringP("sort", "s", "", "Sort by this column")
	cmd.Flags().Bool("desc", false, "Sort in descending order")
	addOutputFlags(cmd)

	return cmd
}

// addPageFlags adds --page and --page-size.
func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("page", "p", 1, "Page number")
	cmd.Flags().IntP("page-size", "n", config.DefaultPageSize, "Number of URLs per page (1-100)")
}

// addOutputFlags adds the report format flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the output to the specified file path (creates directories if needed)")
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return err
	}
	sortKey, err := cmd.Flags().GetString("sort")
	if err != nil {
		return err
	}
	desc, err := cmd.Flags().GetBool("desc")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd, a.logger)
	defer cancel()

	d := a.newDashboard(dashboard.WithPage(page))
	defer d.Close()

	spec := view.Sort{Key: sortKey}
	if desc {
		spec.Dir = view.Desc
	}
	if err := d.SetSort(spec); err != nil {
		return err
	}
	d.SetFilter(filter)

	if err := loadPage(ctx, a, d); err != nil {
		return err
	}

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	c := d.Cursor()
	listing := report.NewListing(c.Page(), c.PageSize(), c.TotalCount(), d.Filter(), d.Sort(), d.Rows())
	_, err = a.writer(out).WriteListing(listing)
	return err
}

// loadPage fetches the current page. When the fetch fails but a cached
// snapshot was loaded, a warning is printed and the snapshot is used.
func loadPage(ctx context.Context, a *app, d *dashboard.Dashboard) error {
	err := d.Refresh(ctx)
	if err == nil {
		return nil
	}
	if len(d.Rows()) == 0 && d.Cursor().TotalCount() == 0 {
		return err
	}
	fmt.Fprintf(a.stderr, "Warning: %v\nShowing the cached copy of this page.\n\n", err)
	return nil
}
