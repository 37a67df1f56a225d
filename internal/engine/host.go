package engine

// Element is anything a Container can enumerate: value-bearing fields as well
// as grouping or action-only controls.
type Element interface {
	ControlType() string
}

// Field is the host collaborator the engine validates.
//
// Implementations must be comparable (pointer types in practice): the engine
// keys its per-field state by field identity.
type Field interface {
	Element

	// Name identifies the field in traces and logs.
	Name() string

	// Value returns the current value.
	Value() string

	// HasCustomError reports whether a custom error message is currently set.
	HasCustomError() bool

	// SetCustomError sets the custom error message; "" clears it.
	SetCustomError(message string)
}

// Container enumerates its members in document order.
type Container interface {
	Members() []Element
}

// barredTypes are action-only control types that never carry custom rules.
var barredTypes = map[string]bool{
	"image":  true,
	"submit": true,
	"reset":  true,
	"button": true,
}

// Eligible reports whether el can carry custom rules and returns it as a Field.
// Elements without a value, without a control type, or with an action-only
// control type are not eligible.
func Eligible(el Element) (Field, bool) {
	f, ok := el.(Field)
	if !ok || f == nil {
		return nil, false
	}
	t := f.ControlType()
	if t == "" || barredTypes[t] {
		return nil, false
	}
	return f, true
}
