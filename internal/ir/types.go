package ir

// FormSpec represents a compiled form definition.
type FormSpec struct {
	Name    string      `json:"name"`
	Purpose string      `json:"purpose"`
	Fields  []FieldSpec `json:"fields"` // Declaration order
}

// Field returns the field with the given name.
func (f *FormSpec) Field(name string) (FieldSpec, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldSpec{}, false
}

// FieldSpec describes one form member: its control type, native constraints
// and the custom rules registered on it in declaration order.
type FieldSpec struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"` // "text", "email", "select-one", "submit", ...
	Default   string     `json:"default,omitempty"`
	Required  bool       `json:"required,omitempty"`
	MinLength int        `json:"min_length,omitempty"`
	MaxLength int        `json:"max_length,omitempty"`
	Pattern   string     `json:"pattern,omitempty"`
	Options   []string   `json:"options,omitempty"` // select-one only
	Group     string     `json:"group,omitempty"`   // enclosing fieldset name
	Rules     []RuleSpec `json:"rules,omitempty"`
}

// RuleSpec describes a custom rule by kind and parameters.
//
// Only the parameters meaningful for Kind are set; the rest stay zero.
type RuleSpec struct {
	ID      string   `json:"id"`   // Unique within the form, defaults to "<field>.<kind>"
	Kind    string   `json:"kind"` // See ValidRuleKinds
	Message string   `json:"message,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Values  []string `json:"values,omitempty"`
	Field   string   `json:"field,omitempty"` // matches: the other field
}

// Rule kinds understood by the rules package.
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleOneOf     = "one_of"
	RuleMatches   = "matches"
)

// ValidRuleKinds defines allowed rule kinds.
var ValidRuleKinds = map[string]bool{
	RuleRequired:  true,
	RuleMinLength: true,
	RuleMaxLength: true,
	RulePattern:   true,
	RuleEmail:     true,
	RuleOneOf:     true,
	RuleMatches:   true,
}

// ValidControlTypes defines the control types a FieldSpec may declare.
var ValidControlTypes = map[string]bool{
	"text":       true,
	"email":      true,
	"password":   true,
	"search":     true,
	"tel":        true,
	"url":        true,
	"number":     true,
	"hidden":     true,
	"checkbox":   true,
	"textarea":   true,
	"select-one": true,
	"submit":     true,
	"reset":      true,
	"button":     true,
	"image":      true,
}
