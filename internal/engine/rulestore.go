package engine

import "slices"

// register appends r to f's rules. If f shows no custom error, r runs once
// immediately so a new rule can surface an error without a value change.
// Ineligible fields and nil rules are ignored.
func (e *Engine) register(f Field, r *Rule) {
	if r == nil {
		return
	}
	if _, ok := Eligible(f); !ok {
		e.logger.Debug("rule ignored: field not eligible",
			"field", f.Name(), "type", f.ControlType(), "rule", r.Name())
		return
	}

	st := e.ensureState(f)
	st.rules = append(st.rules, r)
	e.logger.Debug("rule registered", "field", f.Name(), "rule", r.Name(), "count", len(st.rules))
	e.emit(EventRuleAdded, f, r, "")

	if !f.HasCustomError() {
		e.runOne(f, st, f.Value(), r)
	}
}

// unregister removes the first occurrence of r from f's rules. Removing a rule
// that is not registered is a no-op. If r was the offender, the custom error is
// cleared and the remaining rules are re-evaluated.
func (e *Engine) unregister(f Field, r *Rule) {
	st, ok := e.states[f]
	if !ok {
		return
	}
	idx := slices.Index(st.rules, r)
	if idx < 0 {
		return
	}

	st.rules = slices.Delete(st.rules, idx, idx+1)
	e.logger.Debug("rule unregistered", "field", f.Name(), "rule", r.Name(), "count", len(st.rules))
	e.emit(EventRuleRemoved, f, r, "")

	if st.currentErrorRule() == r {
		st.clearCurrentErrorRule()
		f.SetCustomError("")
		e.runAll(f)
	}
}
