package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Field    string // optional - filter to one field
	Kind     string // optional - filter to one event kind
	Rule     string // optional - filter to one rule
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      store.Run      `json:"run"`
	Timeline []engine.Event `json:"timeline"`
	Stats    TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int                      `json:"total_events"`
	ByKind      map[engine.EventKind]int `json:"by_kind"`
	Fields      int                      `json:"fields"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded trace of a run",
		Long: `Show the event trace recorded by "formrules run".

Without --run, lists the recorded runs. With --run, prints the run's
timeline in seq order followed by per-kind counts.

Examples:
  formrules trace --db ./formrules.db
  formrules trace --db ./formrules.db --run 0190a1b2-...
  formrules trace --db ./formrules.db --run 0190a1b2-... --field email
  formrules trace --db ./formrules.db --run 0190a1b2-... --kind rule_run
  formrules trace --db ./formrules.db --run 0190a1b2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to FORMRULES_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace")
	cmd.Flags().StringVar(&opts.Field, "field", "", "filter to one field")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "filter to one rule")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	if opts.Kind != "" && !slices.Contains(statKinds, engine.EventKind(opts.Kind)) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q", opts.Kind))
	}
	if _, err := os.Stat(dbPath); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRunList(formatter, runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.QueryEvents(ctx, store.EventQuery{
		RunID: opts.RunID,
		Field: opts.Field,
		Kind:  engine.EventKind(opts.Kind),
		Rule:  opts.Rule,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: events,
		Stats:    buildTraceStats(events),
	}

	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result})
	}
	return outputTraceText(formatter.Writer, result, opts)
}

func buildTraceStats(events []engine.Event) TraceStats {
	stats := TraceStats{
		TotalEvents: len(events),
		ByKind:      make(map[engine.EventKind]int),
	}
	fields := make(map[string]bool)
	for _, ev := range events {
		stats.ByKind[ev.Kind]++
		fields[ev.Field] = true
	}
	stats.Fields = len(fields)
	return stats
}

// statKinds fixes the order kinds are listed in text output.
var statKinds = []engine.EventKind{
	engine.EventRuleAdded,
	engine.EventRuleRemoved,
	engine.EventRuleRun,
	engine.EventEvaluated,
	engine.EventMarkedDirty,
	engine.EventDeferredRun,
	engine.EventDeferredSkipped,
}

func outputRunList(formatter *OutputFormatter, runs []store.Run) error {
	if formatter.Format == "json" {
		if runs == nil {
			runs = []store.Run{}
		}
		return formatter.JSON(CLIResponse{Status: "ok", Data: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s  %s/%s\n", passMark(r.Pass), r.ID, r.Form, r.Scenario)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, opts *TraceOptions) error {
	run := result.Run
	fmt.Fprintf(w, "Trace for Run: %s\n", run.ID)
	fmt.Fprintf(w, "Form: %s  Scenario: %s  Status: %s\n", run.Form, run.Scenario, passStatus(run.Pass))
	for _, f := range []struct{ name, value string }{
		{"Field", opts.Field}, {"Kind", opts.Kind}, {"Rule", opts.Rule},
	} {
		if f.value != "" {
			fmt.Fprintf(w, "%s: %s\n", f.name, f.value)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  %s\n", formatEvent(ev))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Fields:       %d\n", result.Stats.Fields)
	for _, kind := range statKinds {
		if n := result.Stats.ByKind[kind]; n > 0 {
			fmt.Fprintf(w, "  %-17s %d\n", string(kind)+":", n)
		}
	}

	if len(run.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Failures ===")
		for _, e := range run.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return nil
}

// formatEvent renders one event as "[seq] kind field rule=.. message=..".
func formatEvent(ev engine.Event) string {
	s := fmt.Sprintf("[%d] %s %s", ev.Seq, ev.Kind, ev.Field)
	if ev.Rule != "" {
		s += " rule=" + ev.Rule
	}
	if ev.Message != "" {
		s += fmt.Sprintf(" message=%q", ev.Message)
	}
	return s
}

func passMark(pass bool) string {
	if pass {
		return "✓"
	}
	return "✗"
}

func passStatus(pass bool) string {
	if pass {
		return "Passed"
	}
	return "Failed"
}
