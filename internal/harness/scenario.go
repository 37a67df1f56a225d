package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/ir"
)

// Scenario scripts host operations against one form.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE spec files, relative to the scenario file.
	Specs []string `yaml:"specs"`

	// Form names the form under test.
	Form string `yaml:"form"`

	// RunID is an optional fixed run ID; defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one host operation.
type Step struct {
	Action  string   `yaml:"action"`
	Field   string   `yaml:"field,omitempty"`
	Value   *string  `yaml:"value,omitempty"`
	Values  []string `yaml:"values,omitempty"`
	Index   *int     `yaml:"index,omitempty"`
	Rule    *RuleDef `yaml:"rule,omitempty"`
	RuleID  string   `yaml:"rule_id,omitempty"`
	Prevent bool     `yaml:"prevent,omitempty"`

	// Flush drains microtasks after the step. Defaults to true; false leaves
	// deferred work pending so the next step runs in the same task.
	Flush *bool `yaml:"flush,omitempty"`

	Expect *StepExpect `yaml:"expect,omitempty"`
}

// flushes reports whether the step drains microtasks.
func (s Step) flushes() bool {
	return s.Flush == nil || *s.Flush
}

// RuleDef declares a rule inline, with the same keys as a CUE rule.
type RuleDef struct {
	ID      string   `yaml:"id"`
	Kind    string   `yaml:"kind"`
	Message string   `yaml:"message,omitempty"`
	Min     int      `yaml:"min,omitempty"`
	Max     int      `yaml:"max,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
	Values  []string `yaml:"values,omitempty"`
	Field   string   `yaml:"field,omitempty"`
}

// Spec converts the definition to a RuleSpec.
func (d RuleDef) Spec() ir.RuleSpec {
	return ir.RuleSpec{
		ID:      d.ID,
		Kind:    d.Kind,
		Message: d.Message,
		Min:     d.Min,
		Max:     d.Max,
		Pattern: d.Pattern,
		Values:  d.Values,
		Field:   d.Field,
	}
}

// StepExpect is checked right after a step. Unset fields are not checked.
type StepExpect struct {
	Fields    map[string]FieldExpect `yaml:"fields,omitempty"`
	FormValid *bool                  `yaml:"form_valid,omitempty"`
	Submitted *int                   `yaml:"submitted,omitempty"`
	Pending   *int                   `yaml:"pending,omitempty"` // queued microtasks
	Returns   *bool                  `yaml:"returns,omitempty"` // check_validity / report_validity result
}

// FieldExpect is a subset match against FieldState.
type FieldExpect struct {
	Value    *string `yaml:"value,omitempty"`
	Error    *string `yaml:"error,omitempty"`
	Message  *string `yaml:"message,omitempty"`
	Offender *string `yaml:"offender,omitempty"`
	Dirty    *bool   `yaml:"dirty,omitempty"`
	Valid    *bool   `yaml:"valid,omitempty"`
}

// EventMatch selects trace events. Empty fields match anything; Message is a
// pointer so an empty message can be matched explicitly.
type EventMatch struct {
	Kind    string  `yaml:"kind"`
	Field   string  `yaml:"field,omitempty"`
	Rule    string  `yaml:"rule,omitempty"`
	Message *string `yaml:"message,omitempty"`
}

// Matches reports whether ev satisfies m.
func (m EventMatch) Matches(ev engine.Event) bool {
	if m.Kind != "" && string(ev.Kind) != m.Kind {
		return false
	}
	if m.Field != "" && ev.Field != m.Field {
		return false
	}
	if m.Rule != "" && ev.Rule != m.Rule {
		return false
	}
	if m.Message != nil && ev.Message != *m.Message {
		return false
	}
	return true
}

func (m EventMatch) String() string {
	s := m.Kind
	if m.Field != "" {
		s += " field=" + m.Field
	}
	if m.Rule != "" {
		s += " rule=" + m.Rule
	}
	if m.Message != nil {
		s += fmt.Sprintf(" message=%q", *m.Message)
	}
	return s
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_count, trace_order, final_state.
	Type string `yaml:"type"`

	// EventMatch selects events for trace_contains and trace_count.
	EventMatch `yaml:",inline"`

	// Count is the expected number of matches for trace_count.
	Count int `yaml:"count,omitempty"`

	// Events is the expected order for trace_order.
	Events []EventMatch `yaml:"events,omitempty"`

	// Expect is the field state for final_state (Field names the field).
	Expect *FieldExpect `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Step action constants.
const (
	ActionSetValue       = "set_value"
	ActionBurst          = "burst"
	ActionSelectOption   = "select_option"
	ActionAddRule        = "add_rule"
	ActionRemoveRule     = "remove_rule"
	ActionRevalidate     = "revalidate"
	ActionRevalidateForm = "revalidate_form"
	ActionChange         = "change"
	ActionClick          = "click"
	ActionReset          = "reset"
	ActionCheckValidity  = "check_validity"
	ActionReportValidity = "report_validity"
	ActionFlush          = "flush"
)

var validKinds = map[string]bool{
	string(engine.EventRuleAdded):       true,
	string(engine.EventRuleRemoved):     true,
	string(engine.EventRuleRun):         true,
	string(engine.EventEvaluated):       true,
	string(engine.EventMarkedDirty):     true,
	string(engine.EventDeferredRun):     true,
	string(engine.EventDeferredSkipped): true,
}

// LoadScenario reads a scenario file. Spec paths are resolved relative to
// the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving relative spec
// paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" for "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and per-action arguments.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if s.Form == "" {
		return fmt.Errorf("form is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	needField := func() error {
		if s.Field == "" {
			return fmt.Errorf("steps[%d]: field is required for %s", index, s.Action)
		}
		return nil
	}

	switch s.Action {
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	case ActionSetValue:
		if err := needField(); err != nil {
			return err
		}
		if s.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for set_value", index)
		}
	case ActionBurst:
		if err := needField(); err != nil {
			return err
		}
		if len(s.Values) == 0 {
			return fmt.Errorf("steps[%d]: values list is required for burst", index)
		}
	case ActionSelectOption:
		if err := needField(); err != nil {
			return err
		}
		if (s.Value == nil) == (s.Index == nil) {
			return fmt.Errorf("steps[%d]: exactly one of value or index is required for select_option", index)
		}
	case ActionAddRule:
		if err := needField(); err != nil {
			return err
		}
		if s.Rule == nil || s.Rule.Kind == "" {
			return fmt.Errorf("steps[%d]: rule with kind is required for add_rule", index)
		}
	case ActionRemoveRule:
		if err := needField(); err != nil {
			return err
		}
		if s.RuleID == "" {
			return fmt.Errorf("steps[%d]: rule_id is required for remove_rule", index)
		}
	case ActionRevalidate, ActionChange, ActionClick:
		if err := needField(); err != nil {
			return err
		}
	case ActionRevalidateForm, ActionReset, ActionCheckValidity, ActionReportValidity, ActionFlush:
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, s.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	checkKind := func(m EventMatch) error {
		if m.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for %s", index, a.Type)
		}
		if !validKinds[m.Kind] {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, m.Kind)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		return checkKind(a.EventMatch)
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		return checkKind(a.EventMatch)
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
		for _, m := range a.Events {
			if err := checkKind(m); err != nil {
				return err
			}
		}
	case AssertFinalState:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for final_state", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
