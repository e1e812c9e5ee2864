package compressors

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func requireProgram(t *testing.T, program string) string {
	t.Helper()
	path, err := exec.LookPath(program)
	if err != nil {
		t.Skipf("%s not available: %v", program, err)
	}
	return path
}

func TestRunner_CapturesCombinedOutputAndExitCode(t *testing.T) {
	requireProgram(t, "sh")

	out := NewRunner(zap.NewNop()).Run(t.Context(), "sh", "-c", "echo out; echo err >&2; exit 3")

	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, string(out.Combined), "out")
	assert.Contains(t, string(out.Combined), "err")
	assert.Error(t, out.Err, "non-zero exit is reported in Output.Err")
}

func TestRunner_ResolvesProgramOnPath(t *testing.T) {
	shPath := requireProgram(t, "sh")

	out := NewRunner(zap.NewNop()).Run(t.Context(), "sh", "-c", "exit 0")

	assert.Equal(t, shPath, out.Program)
	assert.Equal(t, 0, out.ExitCode)
	assert.NoError(t, out.Err)
}

func TestRunner_MissingProgram(t *testing.T) {
	out := NewRunner(zap.NewNop()).Run(t.Context(), "nonexistent-command-xyz", "--force", "file")

	assert.Equal(t, "nonexistent-command-xyz", out.Program)
	assert.Equal(t, -1, out.ExitCode)
	assert.Error(t, out.Err)
}

func TestRunner_ArgumentsAreNotInterpretedByAShell(t *testing.T) {
	requireProgram(t, "echo")

	arg := "a; echo injected $(id) `id` > /dev/null"
	out := NewRunner(zap.NewNop()).Run(t.Context(), "echo", arg)

	require.NoError(t, out.Err)
	assert.Equal(t, arg+"\n", string(out.Combined))
}

func TestRunner_LookPath(t *testing.T) {
	runner := NewRunner(zap.NewNop())

	_, ok := runner.LookPath("nonexistent-command-xyz")
	assert.False(t, ok)
}
