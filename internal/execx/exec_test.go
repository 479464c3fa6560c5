package execx

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdout(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Stderr)
}

func TestRun_CapturesStderrAndExitCode(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo oops >&2; exit 3"},
	})
	require.NoError(t, err, "non-zero exit should not be an invocation error")
	assert.Equal(t, 3, result.ExitCode)
	assert.True(t, result.Failed())
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{Name: "definitely-not-a-real-tool-xyz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute")
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), Command{
		Name: "pwd",
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(result.Stdout))
}

func TestRun_ExtraEnv(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo $E3SMCI_TEST_VAR"},
		Env:  []string{"E3SMCI_TEST_VAR=forty-two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "forty-two\n", result.Stdout)
}

func TestRunStreaming_ForwardsLines(t *testing.T) {
	var lines []string
	result, err := RunStreaming(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo one; echo two"},
	}, func(stream, line string) {
		lines = append(lines, stream+":"+line)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"stdout:one", "stdout:two"}, lines)
	assert.Equal(t, "one\ntwo\n", result.Stdout)
}

func TestCommand_String(t *testing.T) {
	c := Command{Name: "cmake", Args: []string{"--build", "."}}
	assert.Equal(t, "cmake --build .", c.String())
	assert.Equal(t, "cmake", Command{Name: "cmake"}.String())
}
