package host

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// notValidated lists control types barred from constraint validation.
var notValidated = map[string]bool{
	"hidden": true,
	"submit": true,
	"reset":  true,
	"button": true,
	"image":  true,
}

// Constraints are a control's native validation attributes.
type Constraints struct {
	Required  bool
	MinLength int // 0 disables
	MaxLength int // 0 disables
	Pattern   string
}

// Validity mirrors a control's validity flags.
type Validity struct {
	ValueMissing    bool
	TypeMismatch    bool
	PatternMismatch bool
	TooLong         bool
	TooShort        bool
	CustomError     bool
}

// Valid reports whether no flag is set.
func (v Validity) Valid() bool {
	return !v.ValueMissing && !v.TypeMismatch && !v.PatternMismatch &&
		!v.TooLong && !v.TooShort && !v.CustomError
}

// Control is a value-bearing form control: an input, a textarea or a
// select-one. It implements engine.Field.
type Control struct {
	form         *Form
	name         string
	typ          string
	value        string
	defaultValue string
	custom       string
	constraints  Constraints
	pattern      *regexp.Regexp
	options      []*Option
	selected     int // select-one only; -1 for none
	reported     string
}

func newControl(form *Form, name, typ string) *Control {
	return &Control{form: form, name: name, typ: typ, selected: -1}
}

// Name returns the control's name.
func (c *Control) Name() string {
	return c.name
}

// ControlType returns the control type ("text", "select-one", ...).
func (c *Control) ControlType() string {
	return c.typ
}

// Form returns the owning form.
func (c *Control) Form() *Form {
	return c.form
}

// Value returns the current value. For a select-one it is the selected
// option's value, or "" when nothing is selected.
func (c *Control) Value() string {
	if c.typ == "select-one" {
		if c.selected < 0 || c.selected >= len(c.options) {
			return ""
		}
		return c.options[c.selected].value
	}
	return c.value
}

// SetValue writes the value programmatically. For a select-one it selects the
// first option with that value, or none.
func (c *Control) SetValue(v string) {
	c.form.doc.interceptor.ValueWritten(c)
	c.assign(v)
}

// Input replaces the value the way a user edit does, without reaching
// ValueWritten. Call Change to commit it.
func (c *Control) Input(v string) {
	c.assign(v)
}

func (c *Control) assign(v string) {
	if c.typ != "select-one" {
		c.value = v
		return
	}
	c.selected = -1
	for i, opt := range c.options {
		if opt.value == v {
			c.selected = i
			return
		}
	}
}

// Change dispatches a change event.
func (c *Control) Change() {
	c.form.doc.interceptor.Changed(c)
}

// DefaultValue returns the value restored on form reset.
func (c *Control) DefaultValue() string {
	return c.defaultValue
}

// SetDefaultValue sets the reset value and, like a freshly parsed control,
// the current value. Hooks do not run.
func (c *Control) SetDefaultValue(v string) {
	c.defaultValue = v
	if c.typ != "select-one" {
		c.value = v
	}
}

func (c *Control) restoreDefault() {
	if c.typ != "select-one" {
		c.value = c.defaultValue
		return
	}
	c.selected = -1
	for i, opt := range c.options {
		if opt.defaultSelected {
			c.selected = i
			return
		}
	}
	if len(c.options) > 0 {
		c.selected = 0
	}
}

// SetConstraints replaces the native constraints.
func (c *Control) SetConstraints(cons Constraints) error {
	var re *regexp.Regexp
	if cons.Pattern != "" {
		var err error
		re, err = regexp.Compile(`^(?:` + cons.Pattern + `)$`)
		if err != nil {
			return fmt.Errorf("control %q: compile pattern %q: %w", c.name, cons.Pattern, err)
		}
	}
	c.constraints = cons
	c.pattern = re
	return nil
}

// HasCustomError reports whether a custom error is set.
func (c *Control) HasCustomError() bool {
	return c.custom != ""
}

// CustomError returns the custom error message.
func (c *Control) CustomError() string {
	return c.custom
}

// SetCustomError sets the custom error; "" clears it.
func (c *Control) SetCustomError(message string) {
	c.custom = message
}

// WillValidate reports whether the control takes part in validation.
func (c *Control) WillValidate() bool {
	return !notValidated[c.typ]
}

// Validity computes the control's validity flags.
func (c *Control) Validity() Validity {
	value := c.Value()
	cons := c.constraints
	v := Validity{CustomError: c.custom != ""}

	if cons.Required && value == "" {
		v.ValueMissing = true
	}
	if value == "" {
		return v
	}

	v.TypeMismatch = typeMismatch(c.typ, value)
	if c.pattern != nil && !c.pattern.MatchString(value) {
		v.PatternMismatch = true
	}
	n := utf8.RuneCountInString(value)
	if cons.MaxLength > 0 && n > cons.MaxLength {
		v.TooLong = true
	}
	if cons.MinLength > 0 && n < cons.MinLength {
		v.TooShort = true
	}
	return v
}

func typeMismatch(typ, value string) bool {
	switch typ {
	case "email":
		addr, err := mail.ParseAddress(value)
		return err != nil || addr.Address != value || !strings.Contains(value, "@")
	case "url":
		u, err := url.Parse(value)
		return err != nil || u.Scheme == ""
	case "number":
		// Decimal only: ParseFloat also takes hex, underscores, Inf and NaN.
		if strings.ContainsAny(value, "xX_") {
			return true
		}
		f, err := strconv.ParseFloat(value, 64)
		return err != nil || math.IsInf(f, 0) || math.IsNaN(f)
	}
	return false
}

// ValidationMessage returns the message a browser would show. Native
// constraint failures take precedence over the custom error.
func (c *Control) ValidationMessage() string {
	if !c.WillValidate() {
		return ""
	}
	v := c.Validity()
	n := utf8.RuneCountInString(c.Value())
	switch {
	case v.ValueMissing:
		return "Please fill out this field."
	case v.TypeMismatch && c.typ == "email":
		return "Please enter an email address."
	case v.TypeMismatch && c.typ == "number":
		return "Please enter a number."
	case v.TypeMismatch:
		return "Please enter a URL."
	case v.PatternMismatch:
		return "Please match the requested format."
	case v.TooLong:
		return fmt.Sprintf("Please shorten this text to %d characters or less (you are currently using %d characters).",
			c.constraints.MaxLength, n)
	case v.TooShort:
		return fmt.Sprintf("Please lengthen this text to %d characters or more (you are currently using %d characters).",
			c.constraints.MinLength, n)
	}
	return c.custom
}

// CheckValidity reports whether the control is valid.
func (c *Control) CheckValidity() bool {
	c.form.doc.interceptor.BeforeValidityCheck(c)
	return !c.WillValidate() || c.Validity().Valid()
}

// ReportValidity is CheckValidity that also records the validation message,
// retrievable with Reported.
func (c *Control) ReportValidity() bool {
	c.form.doc.interceptor.BeforeValidityCheck(c)
	c.reported = c.ValidationMessage()
	return !c.WillValidate() || c.Validity().Valid()
}

// Reported returns the message recorded by the last ReportValidity.
func (c *Control) Reported() string {
	return c.reported
}

// Click activates the control. Submit and image inputs submit their form.
func (c *Control) Click() {
	if c.typ != "submit" && c.typ != "image" {
		return
	}
	c.form.doc.interceptor.SubmitterActivated(c.form)
	c.form.submit()
}

// AddOption appends an option to a select-one. The first option, or the last
// one added with defaultSelected, becomes the selection.
func (c *Control) AddOption(value string, defaultSelected bool) *Option {
	opt := &Option{sel: c, value: value, defaultSelected: defaultSelected}
	c.options = append(c.options, opt)
	if defaultSelected || c.selected < 0 {
		c.selected = len(c.options) - 1
	}
	return opt
}

// Options returns the select's options.
func (c *Control) Options() []*Option {
	out := make([]*Option, len(c.options))
	copy(out, c.options)
	return out
}

// SelectedIndex returns the selected option index, or -1.
func (c *Control) SelectedIndex() int {
	return c.selected
}

// SetSelectedIndex selects an option by index. Out-of-range indexes select
// nothing.
func (c *Control) SetSelectedIndex(i int) {
	c.form.doc.interceptor.ValueWritten(c)
	if i < 0 || i >= len(c.options) {
		i = -1
	}
	c.selected = i
}

// Option is one choice of a select-one control.
type Option struct {
	sel             *Control
	value           string
	defaultSelected bool
}

// Value returns the option's value.
func (o *Option) Value() string {
	return o.value
}

// Selected reports whether the option is the current selection.
func (o *Option) Selected() bool {
	i := o.index()
	return i >= 0 && o.sel.selected == i
}

// SetSelected selects or deselects the option. It counts as a value write on
// the owning select.
func (o *Option) SetSelected(selected bool) {
	o.sel.form.doc.interceptor.ValueWritten(o.sel)
	i := o.index()
	switch {
	case selected:
		o.sel.selected = i
	case o.sel.selected == i:
		o.sel.selected = -1
	}
}

func (o *Option) index() int {
	for i, opt := range o.sel.options {
		if opt == o {
			return i
		}
	}
	return -1
}
