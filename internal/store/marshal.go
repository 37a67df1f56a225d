package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/formrules/internal/ir"
)

// marshalErrors converts a run's failure messages to canonical JSON TEXT.
func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	data, err := ir.MarshalCanonical(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

// unmarshalErrors parses JSON TEXT back to failure messages.
// Always returns a non-nil slice.
func unmarshalErrors(data string) ([]string, error) {
	errs := []string{}
	if data == "" || data == "[]" {
		return errs, nil
	}
	if err := json.Unmarshal([]byte(data), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return errs, nil
}
