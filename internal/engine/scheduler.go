package engine

// markDirty flags f and schedules one deferred runAll. Further calls before
// that task runs are absorbed. If something evaluates f in the meantime the
// flag is cleared and the deferred task does nothing.
func (e *Engine) markDirty(f Field) {
	st, ok := e.states[f]
	if !ok || st.dirty {
		return
	}

	st.dirty = true
	e.emit(EventMarkedDirty, f, nil, "")

	e.deferrer.Defer(func() {
		if e.states[f] != st || !st.dirty {
			e.emit(EventDeferredSkipped, f, nil, "")
			return
		}
		e.emit(EventDeferredRun, f, nil, "")
		e.runAll(f)
	})
}
