package engine

// runOne applies a single rule to value and writes its message to the field.
// A failing rule becomes the offender; a passing rule that was the offender
// gives up the role.
func (e *Engine) runOne(f Field, st *fieldState, value string, r *Rule) string {
	message := r.Check(value)
	f.SetCustomError(message)

	if message != "" {
		st.setCurrentErrorRule(r)
	} else if st.currentErrorRule() == r {
		st.clearCurrentErrorRule()
	}

	e.emit(EventRuleRun, f, r, message)
	return message
}

// runAll re-evaluates f against its rules and clears the dirty flag.
//
// If the current offender still fails it keeps the error and no other rule
// runs. Otherwise rules run in registration order, skipping the stale
// offender, until one fails. A custom error with no offender was set outside
// the engine and is left alone; the evaluated event then carries no message.
func (e *Engine) runAll(f Field) {
	st, ok := e.states[f]
	if !ok {
		return
	}

	value := f.Value()
	offender := st.currentErrorRule()

	// written is the last message this evaluation set on the field.
	var written string
	scan := !f.HasCustomError()
	if !scan && offender != nil {
		written = e.runOne(f, st, value, offender)
		scan = written == ""
	}
	if scan {
		for _, r := range st.rules {
			if r == offender {
				continue
			}
			if written = e.runOne(f, st, value, r); written != "" {
				break
			}
		}
	}

	st.dirty = false
	e.emit(EventEvaluated, f, st.currentErrorRule(), written)
}
