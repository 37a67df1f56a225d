package host

// Interceptor observes the host operations that affect custom validation.
//
// Hooks run synchronously, before the host performs its default behaviour.
type Interceptor interface {
	// ValueWritten runs before a control's value changes programmatically,
	// including option selection on a select control.
	ValueWritten(c *Control)

	// Changed runs when a control commits a user edit.
	Changed(c *Control)

	// BeforeValidityCheck runs before CheckValidity / ReportValidity on a control.
	BeforeValidityCheck(c *Control)

	// BeforeFormValidityCheck runs before CheckValidity / ReportValidity on a form.
	BeforeFormValidityCheck(f *Form)

	// SubmitterActivated runs when a submit button or image input of f is clicked.
	SubmitterActivated(f *Form)

	// ResetStarted runs when f begins a reset, before any listener can
	// prevent it and before default values are restored.
	ResetStarted(f *Form, ev *ResetEvent)
}

// ResetEvent is the event a form dispatches when it is reset.
type ResetEvent struct {
	prevented bool
}

// PreventDefault cancels the default reset processing.
func (ev *ResetEvent) PreventDefault() {
	ev.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (ev *ResetEvent) DefaultPrevented() bool {
	return ev.prevented
}

// NopInterceptor ignores every hook.
type NopInterceptor struct{}

func (NopInterceptor) ValueWritten(*Control)           {}
func (NopInterceptor) Changed(*Control)                {}
func (NopInterceptor) BeforeValidityCheck(*Control)    {}
func (NopInterceptor) BeforeFormValidityCheck(*Form)   {}
func (NopInterceptor) SubmitterActivated(*Form)        {}
func (NopInterceptor) ResetStarted(*Form, *ResetEvent) {}
