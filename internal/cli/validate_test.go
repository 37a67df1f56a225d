package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formrules/internal/compiler"
)

func TestValidateValidSpecs(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "text", mustTestdata(t, "specs"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid (2 form(s))")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "json", mustTestdata(t, "specs"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Forms)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateInvalidRules(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "text", mustTestdata(t, "badspecs"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `E105: form.broken.field.age.rules[0]: unknown rule kind: "between"`)
	assert.Contains(t, out, `E108: form.broken.field.confirm.rules[0]: matches references unknown field "secret"`)
}

func TestValidateInvalidRulesJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "json", mustTestdata(t, "badspecs"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, compiler.ErrUnknownRuleKind, resp.Data.Errors[0].Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrUnknownRuleKind, resp.Error.Code)
}

func TestValidateCompileErrorIsValidationFailure(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "text", mustTestdata(t, "nopurpose"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E101: load: form.nameless: purpose is required")
}

func TestValidateMissingDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand, "text", "/nonexistent/specs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateSpecsDir(t *testing.T) {
	errs, err := ValidateSpecsDir(mustTestdata(t, "specs"))
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = ValidateSpecsDir(mustTestdata(t, "badspecs"))
	require.NoError(t, err)
	assert.Len(t, errs, 2)

	_, err = ValidateSpecsDir(t.TempDir())
	require.Error(t, err)
}
