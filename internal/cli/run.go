package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/formrules/internal/compiler"
	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/harness"
	"github.com/roach88/formrules/internal/ir"
	"github.com/roach88/formrules/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// RunSummary is the output of a recorded run.
type RunSummary struct {
	RunID    string   `json:"run_id"`
	Form     string   `json:"form"`
	Scenario string   `json:"scenario"`
	SpecHash string   `json:"spec_hash"`
	Pass     bool     `json:"pass"`
	Events   int      `json:"events"`
	Errors   []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <specs-dir> <scenario>",
		Short: "Run one scenario and record its trace",
		Long: `Run one scenario against the compiled specs and record the run and its
full event trace in a SQLite database (created if it doesn't exist).

The recorded run can be inspected later with "formrules trace".

Example:
  formrules run ./specs ./scenarios/signup_flow.yaml --db ./formrules.db
  formrules run ./specs ./scenarios/login_burst.yaml --db /tmp/runs.db --verbose`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to FORMRULES_DB)")

	return cmd
}

func runScenarioFile(opts *RunOptions, specsDir, scenarioFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := opts.logger()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database path: set --db or FORMRULES_DB")
	}

	log.Debug("compiling specs", "dir", specsDir)
	spec, scenario, err := loadRunInputs(specsDir, scenarioFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run inputs", err)
	}

	if scenario.RunID == "" {
		gen := opts.RunIDGenerator
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		scenario.RunID = gen.Generate()
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := harness.RunForm(scenario, spec,
		harness.WithContext(ctx),
		harness.WithMaxMicrotasks(opts.maxMicrotasks()),
		harness.WithLogger(log),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	hash, err := ir.SpecHash(*spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash spec", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	run := store.Run{
		ID:       result.RunID,
		Form:     spec.Name,
		Scenario: scenario.Name,
		SpecHash: hash,
		Pass:     result.Pass,
		Errors:   result.Errors,
	}
	if err := st.WriteTrace(ctx, run, result.Trace); err != nil {
		if errors.Is(err, store.ErrRunExists) {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("run %s is already recorded in %s (change the scenario's run_id or use another database)", run.ID, dbPath), err)
		}
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	log.Info("run recorded", "run_id", run.ID, "db", dbPath, "events", len(result.Trace))

	summary := RunSummary{
		RunID:    run.ID,
		Form:     run.Form,
		Scenario: run.Scenario,
		SpecHash: run.SpecHash,
		Pass:     run.Pass,
		Events:   len(result.Trace),
		Errors:   run.Errors,
	}
	if err := outputRunSummary(formatter, summary); err != nil {
		return err
	}

	if !summary.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// loadRunInputs compiles the specs directory and loads the scenario, whose
// spec references resolve against specsDir.
func loadRunInputs(specsDir, scenarioFile string) (*ir.FormSpec, *harness.Scenario, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return nil, nil, loadErrors[0]
	}

	scenario, err := harness.LoadScenarioWithBasePath(scenarioFile, specsDir)
	if err != nil {
		return nil, nil, err
	}

	spec, ok := compiler.FindForm(loadResult.Forms, scenario.Form)
	if !ok {
		return nil, nil, fmt.Errorf("form %q not found in %s", scenario.Form, specsDir)
	}
	return spec, scenario, nil
}

func outputRunSummary(formatter *OutputFormatter, s RunSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(s)
	}

	w := formatter.Writer
	mark := "✓"
	if !s.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (form %s)\n", mark, s.Scenario, s.Form)
	fmt.Fprintf(w, "  Run:    %s\n", s.RunID)
	fmt.Fprintf(w, "  Events: %d\n", s.Events)
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}
