package engine

// fieldState is the engine's auxiliary state for one field.
//
// INVARIANTS:
//   - offender is nil or present in rules
//   - at most one deferred evaluation is pending while dirty is true
type fieldState struct {
	rules    []*Rule
	offender *Rule
	dirty    bool
}

// currentErrorRule returns the rule whose message is the field's active error.
func (st *fieldState) currentErrorRule() *Rule {
	return st.offender
}

func (st *fieldState) setCurrentErrorRule(r *Rule) {
	st.offender = r
}

func (st *fieldState) clearCurrentErrorRule() {
	st.offender = nil
}
