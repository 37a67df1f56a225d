package host

import "github.com/roach88/formrules/internal/engine"

// Bind installs an interceptor on doc that drives eng. Deferred reset
// revalidation is scheduled on d, which must be the deferrer eng uses.
func Bind(doc *Document, eng *engine.Engine, d engine.Deferrer) {
	doc.SetInterceptor(&engineInterceptor{engine: eng, deferrer: d})
}

type engineInterceptor struct {
	engine   *engine.Engine
	deferrer engine.Deferrer
}

func (i *engineInterceptor) ValueWritten(c *Control) {
	i.engine.Field(c).MarkDirty()
}

func (i *engineInterceptor) Changed(c *Control) {
	i.engine.Field(c).RequestRevalidation()
}

func (i *engineInterceptor) BeforeValidityCheck(c *Control) {
	i.engine.Field(c).RequestRevalidation()
}

func (i *engineInterceptor) BeforeFormValidityCheck(f *Form) {
	i.engine.Container(f).RequestRevalidation()
}

func (i *engineInterceptor) SubmitterActivated(f *Form) {
	i.engine.Container(f).RequestRevalidation()
}

// ResetStarted defers the revalidation until default reset processing has
// restored the controls, and drops it if the reset was prevented.
func (i *engineInterceptor) ResetStarted(f *Form, ev *ResetEvent) {
	i.deferrer.Defer(func() {
		if !ev.DefaultPrevented() {
			i.engine.Container(f).RequestRevalidation()
		}
	})
}
