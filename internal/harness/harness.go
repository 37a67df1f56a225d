package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/formrules/internal/compiler"
	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/host"
	"github.com/roach88/formrules/internal/ir"
	"github.com/roach88/formrules/internal/rules"
	"github.com/roach88/formrules/internal/testutil"
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	ctx           context.Context
	maxMicrotasks int
	logger        *slog.Logger
}

// WithContext sets the context the run's loop observes. Cancelling it stops
// the scenario before the next step.
func WithContext(ctx context.Context) Option {
	return func(c *runConfig) {
		c.ctx = ctx
	}
}

// WithMaxMicrotasks overrides the per-drain microtask limit.
func WithMaxMicrotasks(n int) Option {
	return func(c *runConfig) {
		c.maxMicrotasks = n
	}
}

// WithLogger sets the logger for run progress and engine debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Harness holds the per-run world: one document, one engine, one loop.
type Harness struct {
	spec   *ir.FormSpec
	form   *host.Form
	engine *engine.Engine
	loop   *engine.Loop
	rules  map[string]*engine.Rule // by rule ID
	logger *slog.Logger
	result *Result

	// Owned by the loop goroutine while Run is active.
	label string // task being dispatched, for dispatch errors
	err   error  // first scenario error; later tasks are skipped
}

// Run loads the scenario's specs and executes it.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	forms, err := compiler.LoadFiles(scenario.Specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	spec, ok := compiler.FindForm(forms, scenario.Form)
	if !ok {
		return nil, fmt.Errorf("form %q not found in specs", scenario.Form)
	}
	return RunForm(scenario, spec, opts...)
}

// RunForm executes the scenario against an already compiled form.
//
// Execution flow:
//  1. Build the host form and bind a fresh engine to it
//  2. Post rule registration and every step to the loop; a step with
//     flush: false is posted without a drain so its microtasks stay pending
//  3. Run the loop until the queue is empty or the context is cancelled
//  4. Capture final state and evaluate assertions
func RunForm(scenario *Scenario, spec *ir.FormSpec, opts ...Option) (*Result, error) {
	cfg := runConfig{
		ctx:           context.Background(),
		maxMicrotasks: engine.DefaultMaxMicrotasks,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := testutil.NewFixedRunIDGenerator(scenario.RunID).Generate()
	result := NewResult(runID)

	h := &Harness{
		spec:   spec,
		rules:  make(map[string]*engine.Rule),
		logger: cfg.logger,
		result: result,
	}

	loop := engine.NewLoop(
		engine.WithMaxMicrotasks(cfg.maxMicrotasks),
		engine.WithLoopLogger(cfg.logger),
		engine.WithDispatchErrorHandler(h.dispatchFailed),
	)
	eng := engine.New(loop,
		engine.WithObserver(result),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithLogger(cfg.logger),
	)

	doc := host.NewDocument()
	form, err := host.Build(doc, spec)
	if err != nil {
		return nil, err
	}
	host.Bind(doc, eng, loop)

	h.form = form
	h.engine = eng
	h.loop = loop

	loop.Post(h.task("setup", h.attachSpecRules))
	for i, step := range scenario.Steps {
		h.post(i, step)
	}
	loop.Stop()

	if err := loop.Run(cfg.ctx); err != nil {
		return nil, fmt.Errorf("scenario %s interrupted: %w", scenario.Name, err)
	}
	if h.err != nil {
		return nil, h.err
	}

	h.captureState(result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"run_id", runID,
		"events", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// task wraps fn as a loop task labelled for dispatch errors. Once a scenario
// error is recorded every later task is a no-op.
func (h *Harness) task(label string, fn func() error) func() {
	return func() {
		if h.err != nil {
			return
		}
		h.label = label
		if err := fn(); err != nil {
			h.err = err
		}
	}
}

func (h *Harness) dispatchFailed(err error) {
	h.result.AddError(fmt.Sprintf("%s: %v", h.label, err))
}

// attachSpecRules registers every rule declared in the form spec, field by field.
func (h *Harness) attachSpecRules() error {
	for _, fs := range h.spec.Fields {
		for _, rs := range fs.Rules {
			if err := h.addRule(fs.Name, rs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Harness) resolve(name string) (engine.Field, bool) {
	c, ok := h.form.Control(name)
	if !ok {
		return nil, false
	}
	return c, true
}

func (h *Harness) addRule(field string, rs ir.RuleSpec) error {
	if rs.ID == "" {
		rs.ID = field + "." + rs.Kind
	}
	if _, dup := h.rules[rs.ID]; dup {
		return fmt.Errorf("rule %q registered twice", rs.ID)
	}
	el, ok := h.form.Element(field)
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	rule, err := rules.FromSpec(rs, h.resolve)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	h.rules[rs.ID] = rule
	h.engine.Field(el).AddRule(rule)
	return nil
}

func (h *Harness) control(i int, name string) (*host.Control, error) {
	c, ok := h.form.Control(name)
	if !ok {
		return nil, fmt.Errorf("steps[%d]: unknown control %q", i, name)
	}
	return c, nil
}

// post queues one step. Errors a step returns are scenario errors (unknown
// fields, bad rules); expectation mismatches are recorded on the result.
//
// A flushing step is dispatched, so its microtasks drain before its
// expectations are checked. A step with flush: false runs without a drain and
// its expectations see the microtasks still pending.
func (h *Harness) post(i int, step Step) {
	label := fmt.Sprintf("steps[%d] (%s)", i, step.Action)
	var returned *bool

	run := h.task(label, func() error {
		var err error
		returned, err = h.apply(i, step)
		if err != nil {
			return err
		}
		h.logger.Debug("step executed", "step", i, "action", step.Action, "field", step.Field, "pending", h.loop.Pending())
		return nil
	})
	if step.flushes() {
		h.loop.Post(run)
	} else {
		h.loop.PostExec(run)
	}

	if step.Expect == nil {
		return
	}
	h.loop.PostExec(h.task(label, func() error {
		for _, msg := range h.checkExpect(i, step, returned) {
			h.result.AddError(msg)
		}
		return nil
	}))
}

// apply performs the host operation. It returns the validity result for
// check_validity and report_validity.
func (h *Harness) apply(i int, step Step) (*bool, error) {
	switch step.Action {
	case ActionSetValue:
		c, err := h.control(i, step.Field)
		if err != nil {
			return nil, err
		}
		c.SetValue(*step.Value)

	case ActionBurst:
		c, err := h.control(i, step.Field)
		if err != nil {
			return nil, err
		}
		for _, v := range step.Values {
			c.SetValue(v)
		}

	case ActionSelectOption:
		c, err := h.control(i, step.Field)
		if err != nil {
			return nil, err
		}
		if step.Index != nil {
			c.SetSelectedIndex(*step.Index)
			return nil, nil
		}
		for _, opt := range c.Options() {
			if opt.Value() == *step.Value {
				opt.SetSelected(true)
				return nil, nil
			}
		}
		return nil, fmt.Errorf("steps[%d]: control %q has no option %q", i, step.Field, *step.Value)

	case ActionAddRule:
		if err := h.addRule(step.Field, step.Rule.Spec()); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}

	case ActionRemoveRule:
		rule, ok := h.rules[step.RuleID]
		if !ok {
			return nil, fmt.Errorf("steps[%d]: unknown rule %q", i, step.RuleID)
		}
		el, ok := h.form.Element(step.Field)
		if !ok {
			return nil, fmt.Errorf("steps[%d]: unknown field %q", i, step.Field)
		}
		h.engine.Field(el).RemoveRule(rule)

	case ActionRevalidate:
		el, ok := h.form.Element(step.Field)
		if !ok {
			return nil, fmt.Errorf("steps[%d]: unknown field %q", i, step.Field)
		}
		h.engine.Field(el).RequestRevalidation()

	case ActionRevalidateForm:
		h.engine.Container(h.form).RequestRevalidation()

	case ActionChange:
		c, err := h.control(i, step.Field)
		if err != nil {
			return nil, err
		}
		if step.Value != nil {
			c.Input(*step.Value)
		}
		c.Change()

	case ActionClick:
		el, ok := h.form.Element(step.Field)
		if !ok {
			return nil, fmt.Errorf("steps[%d]: unknown field %q", i, step.Field)
		}
		clicker, ok := el.(interface{ Click() })
		if !ok {
			return nil, fmt.Errorf("steps[%d]: %q cannot be clicked", i, step.Field)
		}
		clicker.Click()

	case ActionReset:
		h.form.Reset(step.Prevent)

	case ActionCheckValidity, ActionReportValidity:
		report := step.Action == ActionReportValidity
		var ok bool
		if step.Field == "" {
			if report {
				ok = h.form.ReportValidity()
			} else {
				ok = h.form.CheckValidity()
			}
			return &ok, nil
		}
		c, err := h.control(i, step.Field)
		if err != nil {
			return nil, err
		}
		if report {
			ok = c.ReportValidity()
		} else {
			ok = c.CheckValidity()
		}
		return &ok, nil

	case ActionFlush:
		// The loop drains after the empty task.

	default:
		return nil, fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
	}
	return nil, nil
}

// fieldState reads a control's state without running any hooks.
func (h *Harness) fieldState(c *host.Control) FieldState {
	st := FieldState{
		Value:   c.Value(),
		Error:   c.CustomError(),
		Message: c.ValidationMessage(),
		Dirty:   h.engine.IsDirty(c),
		Valid:   !c.WillValidate() || c.Validity().Valid(),
	}
	if r := h.engine.Offender(c); r != nil {
		st.Offender = r.Name()
	}
	return st
}

func (h *Harness) checkExpect(i int, step Step, returned *bool) []string {
	var errs []string
	exp := step.Expect
	prefix := fmt.Sprintf("steps[%d] (%s)", i, step.Action)

	for name, fe := range exp.Fields {
		c, ok := h.form.Control(name)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown control %q in expect", prefix, name))
			continue
		}
		errs = append(errs, compareField(prefix+": "+name, fe, h.fieldState(c))...)
	}

	if exp.FormValid != nil {
		if got := len(h.form.Invalid()) == 0; got != *exp.FormValid {
			errs = append(errs, fmt.Sprintf("%s: form_valid: expected %t, got %t", prefix, *exp.FormValid, got))
		}
	}
	if exp.Submitted != nil && h.form.Submitted() != *exp.Submitted {
		errs = append(errs, fmt.Sprintf("%s: submitted: expected %d, got %d", prefix, *exp.Submitted, h.form.Submitted()))
	}
	if exp.Pending != nil && h.loop.Pending() != *exp.Pending {
		errs = append(errs, fmt.Sprintf("%s: pending: expected %d, got %d", prefix, *exp.Pending, h.loop.Pending()))
	}
	if exp.Returns != nil {
		switch {
		case returned == nil:
			errs = append(errs, fmt.Sprintf("%s: returns: action has no result", prefix))
		case *returned != *exp.Returns:
			errs = append(errs, fmt.Sprintf("%s: returns: expected %t, got %t", prefix, *exp.Returns, *returned))
		}
	}
	return errs
}

// compareField reports every expected attribute that differs from got.
func compareField(label string, exp FieldExpect, got FieldState) []string {
	var errs []string
	str := func(name string, want *string, have string) {
		if want != nil && *want != have {
			errs = append(errs, fmt.Sprintf("%s.%s: expected %q, got %q", label, name, *want, have))
		}
	}
	boolean := func(name string, want *bool, have bool) {
		if want != nil && *want != have {
			errs = append(errs, fmt.Sprintf("%s.%s: expected %s, got %s", label, name,
				strconv.FormatBool(*want), strconv.FormatBool(have)))
		}
	}

	str("value", exp.Value, got.Value)
	str("error", exp.Error, got.Error)
	str("message", exp.Message, got.Message)
	str("offender", exp.Offender, got.Offender)
	boolean("dirty", exp.Dirty, got.Dirty)
	boolean("valid", exp.Valid, got.Valid)
	return errs
}

func (h *Harness) captureState(result *Result) {
	for _, c := range h.form.Controls() {
		result.State[c.Name()] = h.fieldState(c)
	}
	result.FormValid = len(h.form.Invalid()) == 0
	result.Submitted = h.form.Submitted()
}
