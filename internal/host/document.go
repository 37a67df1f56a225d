package host

// Document owns forms and the interceptor their elements report to.
type Document struct {
	forms       []*Form
	interceptor Interceptor
}

// NewDocument creates an empty document with a NopInterceptor.
func NewDocument() *Document {
	return &Document{interceptor: NopInterceptor{}}
}

// SetInterceptor replaces the interceptor. nil restores NopInterceptor.
func (d *Document) SetInterceptor(i Interceptor) {
	if i == nil {
		i = NopInterceptor{}
	}
	d.interceptor = i
}

// NewForm appends a form.
func (d *Document) NewForm(name string) *Form {
	f := &Form{doc: d, name: name}
	d.forms = append(d.forms, f)
	return f
}

// Forms returns the forms in creation order.
func (d *Document) Forms() []*Form {
	out := make([]*Form, len(d.forms))
	copy(out, d.forms)
	return out
}

// Form looks up a form by name.
func (d *Document) Form(name string) (*Form, bool) {
	for _, f := range d.forms {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}
