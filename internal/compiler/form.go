package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/formrules/internal/ir"
)

var fieldKeys = map[string]bool{
	"type":       true,
	"default":    true,
	"required":   true,
	"min_length": true,
	"max_length": true,
	"pattern":    true,
	"options":    true,
	"group":      true,
	"rules":      true,
}

var ruleKeys = map[string]bool{
	"id":      true,
	"kind":    true,
	"message": true,
	"min":     true,
	"max":     true,
	"pattern": true,
	"values":  true,
	"field":   true,
}

// CompileForm parses a CUE form value into a FormSpec.
//
// The value should be the form struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`form: signup: { ... }`)
//	spec, err := CompileForm(v.LookupPath(cue.ParsePath("form.signup")))
//
// Fields and rules keep their declaration order. Rules without an id get
// "<field>.<kind>".
func CompileForm(v cue.Value) (*ir.FormSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.FormSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{Field: "purpose", Message: "purpose is required", Pos: v.Pos()}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Purpose = purpose

	fieldsVal := v.LookupPath(cue.ParsePath("field"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "field", Message: "at least one field is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		field, err := parseField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Fields = append(spec.Fields, field)
	}
	if len(spec.Fields) == 0 {
		return nil, &CompileError{Field: "field", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}

	return spec, nil
}

func parseField(name string, v cue.Value) (ir.FieldSpec, error) {
	field := ir.FieldSpec{Name: name}
	path := "field." + name

	if err := checkKeys(v, path, fieldKeys); err != nil {
		return field, err
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return field, &CompileError{Field: path + ".type", Message: "type is required", Pos: v.Pos()}
	}
	var err error
	if field.Type, err = typeVal.String(); err != nil {
		return field, formatCUEError(err)
	}

	if field.Default, err = optionalString(v, "default"); err != nil {
		return field, err
	}
	if field.Pattern, err = optionalString(v, "pattern"); err != nil {
		return field, err
	}
	if field.Group, err = optionalString(v, "group"); err != nil {
		return field, err
	}
	if field.MinLength, err = optionalInt(v, "min_length"); err != nil {
		return field, err
	}
	if field.MaxLength, err = optionalInt(v, "max_length"); err != nil {
		return field, err
	}
	if field.Options, err = optionalStrings(v, "options"); err != nil {
		return field, err
	}

	if reqVal := v.LookupPath(cue.ParsePath("required")); reqVal.Exists() {
		if field.Required, err = reqVal.Bool(); err != nil {
			return field, formatCUEError(err)
		}
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return field, nil
	}
	list, err := rulesVal.List()
	if err != nil {
		return field, formatCUEError(err)
	}
	for i := 0; list.Next(); i++ {
		rule, err := parseRule(name, fmt.Sprintf("%s.rules[%d]", path, i), list.Value())
		if err != nil {
			return field, err
		}
		field.Rules = append(field.Rules, rule)
	}
	return field, nil
}

func parseRule(fieldName, path string, v cue.Value) (ir.RuleSpec, error) {
	var rule ir.RuleSpec

	if err := checkKeys(v, path, ruleKeys); err != nil {
		return rule, err
	}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return rule, &CompileError{Field: path + ".kind", Message: "kind is required", Pos: v.Pos()}
	}
	var err error
	if rule.Kind, err = kindVal.String(); err != nil {
		return rule, formatCUEError(err)
	}

	if rule.ID, err = optionalString(v, "id"); err != nil {
		return rule, err
	}
	if rule.ID == "" {
		rule.ID = fieldName + "." + rule.Kind
	}
	if rule.Message, err = optionalString(v, "message"); err != nil {
		return rule, err
	}
	if rule.Pattern, err = optionalString(v, "pattern"); err != nil {
		return rule, err
	}
	if rule.Field, err = optionalString(v, "field"); err != nil {
		return rule, err
	}
	if rule.Min, err = optionalInt(v, "min"); err != nil {
		return rule, err
	}
	if rule.Max, err = optionalInt(v, "max"); err != nil {
		return rule, err
	}
	if rule.Values, err = optionalStrings(v, "values"); err != nil {
		return rule, err
	}
	return rule, nil
}

// checkKeys rejects struct keys outside allowed.
func checkKeys(v cue.Value, path string, allowed map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		key := iter.Label()
		if !allowed[key] {
			return &CompileError{
				Field:   path + "." + key,
				Message: fmt.Sprintf("unknown key %q", key),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func optionalString(v cue.Value, key string) (string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, key string) (int, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return 0, nil
	}
	n, err := val.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func optionalStrings(v cue.Value, key string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	list, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for list.Next() {
		s, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
