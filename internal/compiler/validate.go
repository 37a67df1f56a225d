package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/formrules/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrFormPurposeEmpty   = "E101" // purpose is required
	ErrFormNoFields       = "E102" // at least one field required
	ErrInvalidControlType = "E103" // unknown control type
	ErrDuplicateName      = "E104" // duplicate field name or rule id
	ErrUnknownRuleKind    = "E105" // unknown rule kind
	ErrInvalidBound       = "E106" // non-positive or inverted length bound
	ErrInvalidPattern     = "E107" // pattern does not compile
	ErrUnknownFieldRef    = "E108" // matches rule references a missing field
	ErrRuleOnBarredType   = "E109" // custom rule on an action-only control
	ErrInvalidOptions     = "E110" // options on a non-select, or select without options
)

var barredTypes = map[string]bool{
	"submit": true,
	"reset":  true,
	"button": true,
	"image":  true,
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled form. Returns all errors found.
func Validate(form *ir.FormSpec) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if strings.TrimSpace(form.Purpose) == "" {
		add("purpose", ErrFormPurposeEmpty, "purpose is required and must be non-empty")
	}
	if len(form.Fields) == 0 {
		add("fields", ErrFormNoFields, "at least one field is required")
	}

	fieldNames := make(map[string]bool, len(form.Fields))
	for _, f := range form.Fields {
		if fieldNames[f.Name] {
			add("field."+f.Name, ErrDuplicateName, "duplicate field name: %q", f.Name)
		}
		fieldNames[f.Name] = true
	}

	ruleIDs := make(map[string]bool)
	for _, f := range form.Fields {
		path := "field." + f.Name

		if !ir.ValidControlTypes[f.Type] {
			add(path+".type", ErrInvalidControlType, "invalid control type: %q", f.Type)
		}
		if f.MinLength < 0 || f.MaxLength < 0 || (f.MaxLength > 0 && f.MinLength > f.MaxLength) {
			add(path, ErrInvalidBound, "invalid length bounds: min_length=%d max_length=%d", f.MinLength, f.MaxLength)
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				add(path+".pattern", ErrInvalidPattern, "invalid pattern %q: %v", f.Pattern, err)
			}
		}
		switch {
		case f.Type == "select-one" && len(f.Options) == 0:
			add(path+".options", ErrInvalidOptions, "select-one requires options")
		case f.Type != "select-one" && len(f.Options) > 0:
			add(path+".options", ErrInvalidOptions, "options are only allowed on select-one")
		}
		if barredTypes[f.Type] && len(f.Rules) > 0 {
			add(path+".rules", ErrRuleOnBarredType, "%s controls cannot carry rules", f.Type)
		}

		for i, r := range f.Rules {
			rpath := fmt.Sprintf("%s.rules[%d]", path, i)
			if ruleIDs[r.ID] {
				add(rpath+".id", ErrDuplicateName, "duplicate rule id: %q", r.ID)
			}
			ruleIDs[r.ID] = true
			errs = append(errs, validateRule(rpath, r, fieldNames)...)
		}
	}

	return errs
}

func validateRule(path string, r ir.RuleSpec, fieldNames map[string]bool) []ValidationError {
	var errs []ValidationError
	add := func(code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: path, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if !ir.ValidRuleKinds[r.Kind] {
		add(ErrUnknownRuleKind, "unknown rule kind: %q", r.Kind)
		return errs
	}

	switch r.Kind {
	case ir.RuleMinLength:
		if r.Min <= 0 {
			add(ErrInvalidBound, "min_length rule needs a positive min, got %d", r.Min)
		}
	case ir.RuleMaxLength:
		if r.Max <= 0 {
			add(ErrInvalidBound, "max_length rule needs a positive max, got %d", r.Max)
		}
	case ir.RulePattern:
		if _, err := regexp.Compile(r.Pattern); err != nil || r.Pattern == "" {
			add(ErrInvalidPattern, "invalid pattern %q", r.Pattern)
		}
	case ir.RuleOneOf:
		if len(r.Values) == 0 {
			add(ErrInvalidOptions, "one_of rule needs values")
		}
	case ir.RuleMatches:
		if !fieldNames[r.Field] {
			add(ErrUnknownFieldRef, "matches references unknown field %q", r.Field)
		}
	}
	return errs
}
