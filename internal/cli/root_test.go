package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/formrules/internal/config"
	"github.com/roach88/formrules/internal/engine"
)

// executeRoot runs the full command tree with args and returns stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"FORMRULES_DB", "FORMRULES_FORMAT", "FORMRULES_LOG_LEVEL", "FORMRULES_MAX_MICROTASKS"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "formrules", cmd.Use)
	assert.Contains(t, cmd.Long, "CUE")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "run", "test", "trace"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestSubcommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"compile", []string{"output"}},
		{"run", []string{"db"}},
		{"test", []string{"update", "filter"}},
		{"trace", []string{"db", "run", "field", "kind", "rule"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := NewRootCommand().Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}
}

func TestCompileOutputShorthand(t *testing.T) {
	compileCmd, _, err := NewRootCommand().Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := executeRoot(t, "--format", "invalid", "compile", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFormatFromEnvironment(t *testing.T) {
	specsDir, err := testdataPath("specs")
	require.NoError(t, err)

	t.Setenv("FORMRULES_FORMAT", "json")
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", specsDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `"status":"ok"`)
}

func TestFormatFlagOverridesEnvironment(t *testing.T) {
	specsDir, err := testdataPath("specs")
	require.NoError(t, err)

	t.Setenv("FORMRULES_FORMAT", "json")
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "text", "validate", specsDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "✓ All specs valid")
}

func TestInvalidConfigIsCommandError(t *testing.T) {
	t.Setenv("FORMRULES_MAX_MICROTASKS", "not-a-number")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "."})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}

	newLogger(buf, slog.LevelWarn, false).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger(buf, slog.LevelWarn, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestRootOptionsDefaults(t *testing.T) {
	opts := &RootOptions{}
	assert.NotNil(t, opts.logger())
	assert.Equal(t, engine.DefaultMaxMicrotasks, opts.maxMicrotasks())

	opts.Config = config.Config{MaxMicrotasks: 5}
	assert.Equal(t, 5, opts.maxMicrotasks())
}
