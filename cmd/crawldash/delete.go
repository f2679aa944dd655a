package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]...",
		Short: "Delete selected URLs of one page",
		Long: `Delete selects URLs on one page and removes them concurrently. If any
removal fails, the command reports one error and the page is not reloaded.

The ids must be on the page given by --page and --page-size.

Examples:
  # Delete two URLs after confirmation
  crawldash delete 42 43

  # Delete the whole first page without asking
  crawldash delete --all --yes`,
		RunE: runDeleteCmd,
	}

	addPageFlags(cmd)
	cmd.Flags().BoolP("all", "a", false, "Select every URL of the page")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// runDeleteCmd executes the delete command.
func runDeleteCmd(cmd *cobra.Command, args []string) error {
	yes, err := cmd.Flags().GetBool("yes")
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

	d, err := selectFromPage(ctx, cmd, a, args)
	if err != nil {
		return err
	}
	defer d.Close()

	selected := d.Selected()
	if !yes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete %d URL(s) %v?", len(selected), selected))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.stdout, "Aborted.")
			return nil
		}
	}

	if err := d.BulkDelete(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted %d URL(s).\n", len(selected))
	return nil
}

// confirm asks a yes/no question on the command's input. Anything but
// "y" or "yes" is a no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, nil //nolint:nilerr // EOF without an answer is a no
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
