package main

import (
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of crawls shown by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the recorded crawls of one URL",
		Long: `History lists the crawls of one URL recorded in the local cache, newest
first. Only crawls run by this machine are recorded.

Examples:
  crawldash history 42
  crawldash history 42 --limit 5 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of crawls to show (0 for all)")
	addOutputFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
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

	d := a.newDashboard()
	defer d.Close()

	records, err := d.History(ctx, ids[0], limit)
	if err != nil {
		return err
	}

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	_, err = a.writer(out).WriteHistory(ids[0], records)
	return err
}
