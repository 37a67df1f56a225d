package host

import "github.com/roach88/formrules/internal/engine"

// Form is an ordered collection of controls, buttons and fieldsets.
// It is the container the engine fans form-level revalidation out over.
type Form struct {
	doc       *Document
	name      string
	members   []engine.Element
	submitted int
	reported  []string
}

// Name returns the form's name.
func (f *Form) Name() string {
	return f.name
}

// AddControl appends a control of the given type.
func (f *Form) AddControl(name, typ string) *Control {
	c := newControl(f, name, typ)
	f.members = append(f.members, c)
	return c
}

// AddButton appends a button of type "submit", "reset" or "button".
func (f *Form) AddButton(name, typ string) *Button {
	b := &Button{form: f, name: name, typ: typ}
	f.members = append(f.members, b)
	return b
}

// AddFieldSet appends an empty fieldset. Elements added to it afterwards are
// appended to the form as well, so they must be added before the next
// sibling of the fieldset to keep document order.
func (f *Form) AddFieldSet(name string) *FieldSet {
	fs := &FieldSet{form: f, name: name}
	f.members = append(f.members, fs)
	return fs
}

// Members returns every element in document order.
func (f *Form) Members() []engine.Element {
	out := make([]engine.Element, len(f.members))
	copy(out, f.members)
	return out
}

// Controls returns the form's controls in document order.
func (f *Form) Controls() []*Control {
	var out []*Control
	for _, m := range f.members {
		if c, ok := m.(*Control); ok {
			out = append(out, c)
		}
	}
	return out
}

// Control looks up a control by name.
func (f *Form) Control(name string) (*Control, bool) {
	for _, c := range f.Controls() {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Element looks up any member by name.
func (f *Form) Element(name string) (engine.Element, bool) {
	for _, m := range f.members {
		if named, ok := m.(interface{ Name() string }); ok && named.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Invalid returns the controls that take part in validation and are
// currently invalid. No hooks run.
func (f *Form) Invalid() []*Control {
	var out []*Control
	for _, c := range f.Controls() {
		if c.WillValidate() && !c.Validity().Valid() {
			out = append(out, c)
		}
	}
	return out
}

// CheckValidity reports whether every control is valid.
func (f *Form) CheckValidity() bool {
	f.doc.interceptor.BeforeFormValidityCheck(f)
	return len(f.Invalid()) == 0
}

// ReportValidity is CheckValidity that also records the invalid controls'
// names, retrievable with Reported.
func (f *Form) ReportValidity() bool {
	f.doc.interceptor.BeforeFormValidityCheck(f)
	return f.report()
}

func (f *Form) report() bool {
	invalid := f.Invalid()
	f.reported = f.reported[:0]
	for _, c := range invalid {
		f.reported = append(f.reported, c.name)
	}
	return len(invalid) == 0
}

// Reported returns the names recorded by the last report.
func (f *Form) Reported() []string {
	out := make([]string, len(f.reported))
	copy(out, f.reported)
	return out
}

// Submitted returns how many submissions passed interactive validation.
func (f *Form) Submitted() int {
	return f.submitted
}

// submit runs interactive validation and counts the submission if it passes.
// Native interactive validation does not go through the intercepted
// CheckValidity.
func (f *Form) submit() {
	if f.report() {
		f.submitted++
	}
}

// Reset dispatches a reset event and, unless it is prevented, restores every
// control's default value. prevent simulates a listener that calls
// PreventDefault. Restoring defaults is not a programmatic value write and
// does not reach ValueWritten. Returns false if the reset was prevented.
func (f *Form) Reset(prevent bool) bool {
	ev := &ResetEvent{}
	f.doc.interceptor.ResetStarted(f, ev)
	if prevent {
		ev.PreventDefault()
	}
	if ev.DefaultPrevented() {
		return false
	}

	for _, c := range f.Controls() {
		c.restoreDefault()
	}
	return true
}

// Button is a submit, reset or plain button. It never carries a value and is
// ignored by the engine.
type Button struct {
	form *Form
	name string
	typ  string
}

// Name returns the button's name.
func (b *Button) Name() string {
	return b.name
}

// ControlType returns "submit", "reset" or "button".
func (b *Button) ControlType() string {
	return b.typ
}

// Click activates the button.
func (b *Button) Click() {
	if b.form == nil {
		return
	}
	switch b.typ {
	case "submit":
		b.form.doc.interceptor.SubmitterActivated(b.form)
		b.form.submit()
	case "reset":
		b.form.Reset(false)
	}
}

// FieldSet groups form members. It is itself a container the engine can
// revalidate, but it carries no rules.
type FieldSet struct {
	form    *Form
	name    string
	members []engine.Element
}

// Name returns the fieldset's name.
func (fs *FieldSet) Name() string {
	return fs.name
}

// ControlType returns "fieldset".
func (fs *FieldSet) ControlType() string {
	return "fieldset"
}

// AddControl appends a control to the fieldset and its form.
func (fs *FieldSet) AddControl(name, typ string) *Control {
	c := fs.form.AddControl(name, typ)
	fs.members = append(fs.members, c)
	return c
}

// AddButton appends a button to the fieldset and its form.
func (fs *FieldSet) AddButton(name, typ string) *Button {
	b := fs.form.AddButton(name, typ)
	fs.members = append(fs.members, b)
	return b
}

// Members returns the fieldset's elements in document order.
func (fs *FieldSet) Members() []engine.Element {
	out := make([]engine.Element, len(fs.members))
	copy(out, fs.members)
	return out
}
