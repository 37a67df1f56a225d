package engine

// CheckFunc validates a value and returns an error message.
// An empty message means the value is valid.
type CheckFunc func(value string) string

// Rule is a registered custom validation rule.
//
// Rules are compared by pointer identity: registering the same *Rule twice
// yields two entries, and removal matches the pointer, not the behaviour.
type Rule struct {
	name  string
	check CheckFunc
}

// NewRule creates a rule. Panics if check is nil.
func NewRule(name string, check CheckFunc) *Rule {
	if check == nil {
		panic("engine: NewRule called with nil CheckFunc")
	}
	return &Rule{name: name, check: check}
}

// Name returns the rule's display name.
func (r *Rule) Name() string {
	return r.name
}

// Check runs the rule against value.
func (r *Rule) Check(value string) string {
	return r.check(value)
}

func (r *Rule) String() string {
	return r.name
}
