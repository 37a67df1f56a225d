package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a spec stub and a scenario referencing it.
func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.cue"), []byte("// stub"), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	content := "name: s\ndescription: d\nspecs: [form.cue]\nform: f\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ResolvesSpecPaths(t *testing.T) {
	path := writeScenario(t, `
steps:
  - action: set_value
    field: name
    value: ""
    flush: false
assertions:
  - type: trace_count
    kind: marked_dirty
    count: 0
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "form.cue"), s.Specs[0])
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Value)
	assert.Equal(t, "", *s.Steps[0].Value)
	assert.False(t, s.Steps[0].flushes())
	assert.Equal(t, "marked_dirty", s.Assertions[0].Kind)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown key",
			body:    "steps:\n  - action: flush\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "no steps",
			body:    "steps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "set_value without value",
			body:    "steps:\n  - action: set_value\n    field: a\n",
			wantErr: "value is required for set_value",
		},
		{
			name:    "select_option with both",
			body:    "steps:\n  - action: select_option\n    field: a\n    value: x\n    index: 1\n",
			wantErr: "exactly one of value or index",
		},
		{
			name:    "unknown action",
			body:    "steps:\n  - action: dance\n",
			wantErr: `unknown action "dance"`,
		},
		{
			name:    "unknown event kind",
			body:    "steps:\n  - action: flush\nassertions:\n  - type: trace_contains\n    kind: exploded\n",
			wantErr: `unknown event kind "exploded"`,
		},
		{
			name:    "final_state without field",
			body:    "steps:\n  - action: flush\nassertions:\n  - type: final_state\n    expect: {valid: true}\n",
			wantErr: "field is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\ndescription: d\nspecs: [gone.cue]\nform: f\nsteps:\n  - action: flush\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}
