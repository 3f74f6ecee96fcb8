package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	EntryPoint string
	Outcome    string
	Limit      int
}

// JournalResult is the payload of the journal command.
type JournalResult struct {
	Calls  []store.Call   `json:"calls"`
	Counts map[string]int `json:"counts"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <db>",
		Short: "List calls recorded in a journal database",
		Long: `List bridge calls recorded by "relaxir run --journal", oldest first,
followed by per-outcome totals for the whole journal.

Examples:
  relaxir journal calls.db
  relaxir journal calls.db --outcome engine_error
  relaxir journal calls.db --entry-point relax.Call --limit 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EntryPoint, "entry-point", "", "only calls to this entry point")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only calls with this outcome (ok, argument_error, engine_error, type_mismatch)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N calls (0 = all)")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must be >= 0", opts.Limit))
	}
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("journal not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	st, err := store.Open(path, store.ReadOnly())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	calls, err := st.ListCalls(ctx, store.Filter{
		EntryPoint: opts.EntryPoint,
		Outcome:    opts.Outcome,
		Limit:      opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	counts, err := st.CountByOutcome(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	formatter.VerboseLog("%d call(s) matched", len(calls))

	if opts.Format == "json" {
		return formatter.Success(JournalResult{Calls: calls, Counts: counts})
	}

	w := formatter.Writer
	if len(calls) == 0 {
		fmt.Fprintln(w, "No calls recorded.")
	} else {
		fmt.Fprintf(w, "%-5s %-36s %-28s %-15s %s\n", "SEQ", "ID", "ENTRY POINT", "OUTCOME", "RESULT")
		for _, c := range calls {
			res := c.ResultType
			if res == "" {
				res = "-"
			}
			fmt.Fprintf(w, "%-5d %-36s %-28s %-15s %s\n", c.Seq, c.ID, c.EntryPoint, c.Outcome, res)
		}
	}

	fmt.Fprintln(w)
	for _, outcome := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "%s: %d\n", outcome, counts[outcome])
	}
	return nil
}
