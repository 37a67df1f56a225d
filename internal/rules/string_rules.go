package rules

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/formrules/internal/engine"
)

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

// length returns the number of runes in the NFC form of value.
func length(value string) int {
	return utf8.RuneCountInString(norm.NFC.String(value))
}

// Required fails when value is empty after trimming whitespace.
func Required(message string) *engine.Rule {
	message = messageOr(message, "field is required")
	return engine.NewRule("required", func(value string) string {
		if strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	})
}

// MinLength fails when a non-empty value is shorter than min characters.
func MinLength(min int, message string) *engine.Rule {
	message = messageOr(message, fmt.Sprintf("must be at least %d characters long", min))
	return engine.NewRule(fmt.Sprintf("min_length(%d)", min), func(value string) string {
		if value != "" && length(value) < min {
			return message
		}
		return ""
	})
}

// MaxLength fails when value is longer than max characters.
func MaxLength(max int, message string) *engine.Rule {
	message = messageOr(message, fmt.Sprintf("must be at most %d characters long", max))
	return engine.NewRule(fmt.Sprintf("max_length(%d)", max), func(value string) string {
		if length(value) > max {
			return message
		}
		return ""
	})
}

// Pattern fails when a non-empty value does not match pattern in full.
func Pattern(pattern, message string) (*engine.Rule, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	message = messageOr(message, "must match the requested format")
	return engine.NewRule("pattern", func(value string) string {
		if value != "" && !re.MatchString(value) {
			return message
		}
		return ""
	}), nil
}

// MustPattern is like Pattern but panics on an invalid pattern.
func MustPattern(pattern, message string) *engine.Rule {
	r, err := Pattern(pattern, message)
	if err != nil {
		panic(err)
	}
	return r
}

// Email fails when a non-empty value is not a bare address with a dotted
// domain. Display names ("Ann <ann@example.com>") are rejected.
func Email(message string) *engine.Rule {
	message = messageOr(message, "must be a valid email address")
	return engine.NewRule("email", func(value string) string {
		if value == "" || validEmail(value) {
			return ""
		}
		return message
	})
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return false
	}
	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return false
	}
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".")
}

// OneOf fails when a non-empty value is not in values.
func OneOf(values []string, message string) *engine.Rule {
	allowed := slices.Clone(values)
	message = messageOr(message, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return engine.NewRule("one_of", func(value string) string {
		if value != "" && !slices.Contains(allowed, value) {
			return message
		}
		return ""
	})
}

// Matches fails when value differs from other's current value.
// Typical use is a password confirmation field.
func Matches(other engine.Field, message string) *engine.Rule {
	message = messageOr(message, fmt.Sprintf("must match %s", other.Name()))
	return engine.NewRule(fmt.Sprintf("matches(%s)", other.Name()), func(value string) string {
		if value != other.Value() {
			return message
		}
		return ""
	})
}

// Func wraps an arbitrary check.
func Func(name string, check engine.CheckFunc) *engine.Rule {
	return engine.NewRule(name, check)
}
