package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the analysis of one URL including its broken links",
		Long: `Show fetches one URL with the list of its broken links and the HTTP
status observed for each.

Examples:
  crawldash show 42
  crawldash show 42 --markdown -o url-42.md`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	addOutputFlags(cmd)

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
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

	d := a.newDashboard()
	defer d.Close()

	r, err := d.Detail(ctx, ids[0])
	if err != nil {
		return err
	}

	out, closeOut, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer closeOut()

	_, err = a.writer(out).WriteReport(&r)
	return err
}

// parseIDs parses report ids given as arguments. Duplicates are removed.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	seen := make(map[int64]bool, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, &invalidIDError{arg: arg}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// invalidIDError reports an argument that is not a report id.
type invalidIDError struct {
	arg string
}

func (e *invalidIDError) Error() string {
	return "invalid URL id " + strconv.Quote(e.arg) + ": must be a positive integer"
}
