package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pollscript/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Scenario string // optional - filter the run list
}

// TraceResult is the output of trace for a single run.
type TraceResult struct {
	Run    store.Run     `json:"run"`
	Events []store.Event `json:"events"`
}

// RunList is the output of trace without a run ID.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show recorded scenario runs",
		Long: `Show runs recorded by "pollscript test --db".

Without a run ID, lists recorded runs in the order they were written.
With a run ID, prints that run's trace.

Examples:
  pollscript trace --db runs.db
  pollscript trace --db runs.db --scenario consumer_shared_script
  pollscript trace --db runs.db 0190c8e2-7d4f-7cc1-9a4b-2f6d1e0a5b3c --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	// store.Open creates missing files.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx, opts.Scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if formatter.JSON() {
			return formatter.Success(RunList{Runs: runs})
		}
		outputRunListText(formatter.Writer, runs)
		return nil
	}

	run, events, err := st.ReadRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", args[0]), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", args[0]))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if formatter.JSON() {
		return formatter.Success(TraceResult{Run: run, Events: events})
	}
	outputTraceText(formatter.Writer, run, events)
	return nil
}

func outputRunListText(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s %-32s %s (%d events)\n",
			passMark(r.Pass), r.ID, r.Scenario, r.Kind, r.Events)
	}
}

func outputTraceText(w io.Writer, run store.Run, events []store.Event) {
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Scenario: %s (%s)\n", run.Scenario, run.Kind)
	fmt.Fprintf(w, "Status: %s\n", passStatus(run.Pass))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Trace ===")
	if len(events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range events {
		fmt.Fprintf(w, "  [%d] %s", ev.Seq, ev.Op)
		if ev.Item != "" {
			fmt.Fprintf(w, "(%s)", ev.Item)
		}
		fmt.Fprintf(w, " -> %s", ev.Outcome)
		if ev.Error != "" {
			fmt.Fprintf(w, ": %s", ev.Error)
		}
		fmt.Fprintln(w)
	}

	if len(run.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Errors ===")
		for _, e := range run.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func passMark(pass bool) string {
	if pass {
		return "✓"
	}
	return "✗"
}

func passStatus(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
