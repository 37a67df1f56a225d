package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubField struct {
	name, value string
}

func (f *stubField) Name() string          { return f.name }
func (f *stubField) ControlType() string   { return "password" }
func (f *stubField) Value() string         { return f.value }
func (f *stubField) HasCustomError() bool  { return false }
func (f *stubField) SetCustomError(string) {}

func TestRequired(t *testing.T) {
	r := Required("")
	assert.Equal(t, "required", r.Name())
	assert.Equal(t, "field is required", r.Check(""))
	assert.Equal(t, "field is required", r.Check("   "))
	assert.Empty(t, r.Check("x"))

	assert.Equal(t, "Name please", Required("Name please").Check(""))
}

func TestMinLength(t *testing.T) {
	r := MinLength(3, "")
	assert.Equal(t, "min_length(3)", r.Name())
	assert.Empty(t, r.Check(""), "empty is left to Required")
	assert.Equal(t, "must be at least 3 characters long", r.Check("ab"))
	assert.Empty(t, r.Check("abc"))
	assert.Empty(t, r.Check("日本語"), "counts runes, not bytes")
}

func TestMaxLength(t *testing.T) {
	r := MaxLength(3, "Too long")
	assert.Empty(t, r.Check(""))
	assert.Empty(t, r.Check("abc"))
	assert.Equal(t, "Too long", r.Check("abcd"))

	// "e" + combining acute normalises to a single rune.
	decomposed := "cafe\u0301"
	assert.Empty(t, MaxLength(4, "").Check(decomposed))
	assert.NotEmpty(t, MaxLength(3, "").Check(decomposed))
}

func TestPattern(t *testing.T) {
	r, err := Pattern(`[a-z]+`, "")
	require.NoError(t, err)

	assert.Empty(t, r.Check(""))
	assert.Empty(t, r.Check("abc"))
	assert.Equal(t, "must match the requested format", r.Check("abc1"), "pattern must match in full")
	assert.Equal(t, "must match the requested format", r.Check("1abc"))

	alt := MustPattern(`a|b`, "a or b")
	assert.Empty(t, alt.Check("a"))
	assert.Equal(t, "a or b", alt.Check("ab"), "alternation is anchored as a group")
}

func TestPattern_Invalid(t *testing.T) {
	_, err := Pattern(`[`, "")
	require.Error(t, err)
	assert.Panics(t, func() { MustPattern(`(`, "") })
}

func TestEmail(t *testing.T) {
	r := Email("")
	tests := []struct {
		value string
		valid bool
	}{
		{"", true},
		{"ann@example.com", true},
		{"a.b+c@sub.example.org", true},
		{"ann", false},
		{"ann@", false},
		{"@example.com", false},
		{"ann@localhost", false},
		{"ann@example.", false},
		{"Ann <ann@example.com>", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if tt.valid {
				assert.Empty(t, r.Check(tt.value))
			} else {
				assert.Equal(t, "must be a valid email address", r.Check(tt.value))
			}
		})
	}
}

func TestOneOf(t *testing.T) {
	values := []string{"red", "green"}
	r := OneOf(values, "")
	values[0] = "blue"

	assert.Empty(t, r.Check(""))
	assert.Empty(t, r.Check("red"), "values are copied at construction")
	assert.Equal(t, "must be one of: red, green", r.Check("blue"))
}

func TestMatches(t *testing.T) {
	pw := &stubField{name: "password", value: "hunter2"}
	r := Matches(pw, "")

	assert.Equal(t, "matches(password)", r.Name())
	assert.Empty(t, r.Check("hunter2"))
	assert.Equal(t, "must match password", r.Check("hunter3"))

	pw.value = "hunter3"
	assert.Empty(t, r.Check("hunter3"), "reads the other field at check time")
}

func TestFunc(t *testing.T) {
	r := Func("no-spaces", func(v string) string {
		for _, c := range v {
			if c == ' ' {
				return "no spaces"
			}
		}
		return ""
	})
	assert.Equal(t, "no-spaces", r.Name())
	assert.Equal(t, "no spaces", r.Check("a b"))
}
