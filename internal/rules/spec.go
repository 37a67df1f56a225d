package rules

import (
	"errors"
	"fmt"

	"github.com/roach88/formrules/internal/engine"
	"github.com/roach88/formrules/internal/ir"
)

// Resolver looks up another field of the same form by name.
type Resolver func(name string) (engine.Field, bool)

// SpecErrorCode categorises rule construction failures.
type SpecErrorCode string

const (
	ErrCodeUnknownKind  SpecErrorCode = "UNKNOWN_KIND"
	ErrCodeBadPattern   SpecErrorCode = "BAD_PATTERN"
	ErrCodeBadBound     SpecErrorCode = "BAD_BOUND"
	ErrCodeUnknownField SpecErrorCode = "UNKNOWN_FIELD"
	ErrCodeEmptyValues  SpecErrorCode = "EMPTY_VALUES"
)

// SpecError reports a RuleSpec that cannot be turned into a rule.
type SpecError struct {
	Code    SpecErrorCode
	RuleID  string
	Message string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: rule %q: %s", e.Code, e.RuleID, e.Message)
}

// IsSpecError reports whether err is (or wraps) a SpecError.
func IsSpecError(err error) bool {
	var specErr *SpecError
	return errors.As(err, &specErr)
}

// FromSpec builds the rule described by spec. resolve is consulted for
// "matches" rules only and may be nil otherwise. The returned rule is named
// after spec.ID when set.
func FromSpec(spec ir.RuleSpec, resolve Resolver) (*engine.Rule, error) {
	id := spec.ID
	if id == "" {
		id = spec.Kind
	}
	fail := func(code SpecErrorCode, format string, args ...any) error {
		return &SpecError{Code: code, RuleID: id, Message: fmt.Sprintf(format, args...)}
	}

	var r *engine.Rule
	switch spec.Kind {
	case ir.RuleRequired:
		r = Required(spec.Message)

	case ir.RuleMinLength:
		if spec.Min <= 0 {
			return nil, fail(ErrCodeBadBound, "min must be positive, got %d", spec.Min)
		}
		r = MinLength(spec.Min, spec.Message)

	case ir.RuleMaxLength:
		if spec.Max <= 0 {
			return nil, fail(ErrCodeBadBound, "max must be positive, got %d", spec.Max)
		}
		r = MaxLength(spec.Max, spec.Message)

	case ir.RulePattern:
		var err error
		r, err = Pattern(spec.Pattern, spec.Message)
		if err != nil {
			return nil, fail(ErrCodeBadPattern, "%v", err)
		}

	case ir.RuleEmail:
		r = Email(spec.Message)

	case ir.RuleOneOf:
		if len(spec.Values) == 0 {
			return nil, fail(ErrCodeEmptyValues, "one_of needs at least one value")
		}
		r = OneOf(spec.Values, spec.Message)

	case ir.RuleMatches:
		if resolve == nil {
			return nil, fail(ErrCodeUnknownField, "no resolver for field %q", spec.Field)
		}
		other, ok := resolve(spec.Field)
		if !ok {
			return nil, fail(ErrCodeUnknownField, "field %q not found", spec.Field)
		}
		r = Matches(other, spec.Message)

	default:
		return nil, fail(ErrCodeUnknownKind, "unknown kind %q", spec.Kind)
	}

	if spec.ID == "" {
		return r, nil
	}
	return engine.NewRule(spec.ID, r.Check), nil
}
