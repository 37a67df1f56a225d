package engine

// testField is an in-memory Field.
type testField struct {
	name   string
	typ    string
	value  string
	custom string
	writes int // SetCustomError calls
}

func newTestField(name string) *testField {
	return &testField{name: name, typ: "text"}
}

func (f *testField) Name() string         { return f.name }
func (f *testField) ControlType() string  { return f.typ }
func (f *testField) Value() string        { return f.value }
func (f *testField) HasCustomError() bool { return f.custom != "" }

func (f *testField) SetCustomError(message string) {
	f.custom = message
	f.writes++
}

// testButton is an Element that is not a Field.
type testButton struct{}

func (testButton) ControlType() string { return "submit" }

type testContainer struct {
	members []Element
}

func (c *testContainer) Members() []Element { return c.members }

// countingRule returns a rule that fails with message when fails(value) and
// counts its invocations in *calls.
func countingRule(name, message string, calls *int, fails func(string) bool) *Rule {
	return NewRule(name, func(value string) string {
		*calls++
		if fails(value) {
			return message
		}
		return ""
	})
}

func always(string) bool { return true }
func never(string) bool  { return false }

func newTestEngine(opts ...Option) (*Engine, *Loop, *Recorder) {
	loop := NewLoop()
	rec := &Recorder{}
	opts = append([]Option{WithObserver(rec)}, opts...)
	return New(loop, opts...), loop, rec
}
