package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainFormSpec = "formrules/form/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash computes a content-addressed hash of a compiled form.
// Runs record it so a stored trace can be tied to the exact spec it ran against.
func SpecHash(form FormSpec) (string, error) {
	canonical, err := MarshalCanonical(form.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFormSpec, canonical), nil
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecHash(form FormSpec) string {
	hash, err := SpecHash(form)
	if err != nil {
		panic(err)
	}
	return hash
}

func (f FormSpec) canonicalMap() map[string]any {
	fields := make([]any, len(f.Fields))
	for i, field := range f.Fields {
		rules := make([]any, len(field.Rules))
		for j, r := range field.Rules {
			rules[j] = map[string]any{
				"id":      r.ID,
				"kind":    r.Kind,
				"message": r.Message,
				"min":     r.Min,
				"max":     r.Max,
				"pattern": r.Pattern,
				"values":  append([]string{}, r.Values...),
				"field":   r.Field,
			}
		}
		fields[i] = map[string]any{
			"name":       field.Name,
			"type":       field.Type,
			"default":    field.Default,
			"required":   field.Required,
			"min_length": field.MinLength,
			"max_length": field.MaxLength,
			"pattern":    field.Pattern,
			"options":    append([]string{}, field.Options...),
			"group":      field.Group,
			"rules":      rules,
		}
	}
	return map[string]any{
		"name":       f.Name,
		"purpose":    f.Purpose,
		"fields":     fields,
		"ir_version": IRVersion,
	}
}
