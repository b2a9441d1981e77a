package util

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCommand_Empty(t *testing.T) {
	_, err := ExecuteCommand(context.Background(), []string{}, "")

	assert.Error(t, err, "should fail without a command")
}

func TestExecuteCommand_NotFound(t *testing.T) {
	out, err := ExecuteCommand(context.Background(), []string{"diskofflaner-no-such-tool"}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound, "spawn failures should be reported as missing tools")
	assert.False(t, errors.Is(err, ErrToolFailed), "spawn failures are not exit failures")
	assert.Equal(t, -1, out.ExitCode)
}

func TestExecuteCommand_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	out, err := ExecuteCommand(context.Background(), []string{"sh", "-c", "echo busy; echo target is busy >&2; exit 3"}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailed)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr), "should return a ToolError")
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "busy\n", toolErr.Output.Stdout)
	assert.Equal(t, "target is busy\n", toolErr.Output.Stderr)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, toolErr.Error(), "target is busy")
}

func TestExecuteCommand_Stdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	out, err := ExecuteCommand(context.Background(), []string{"cat"}, "select disk 1\nexit\n")

	require.NoError(t, err)
	assert.Equal(t, "select disk 1\nexit\n", out.Stdout, "stdin should be passed through to the command")
	assert.Equal(t, 0, out.ExitCode)
}

func TestCommandOutput_Combined(t *testing.T) {
	tests := []struct {
		name   string
		output CommandOutput
		want   string
	}{
		{name: "stdout only", output: CommandOutput{Stdout: "a"}, want: "a"},
		{name: "stderr only", output: CommandOutput{Stderr: "b"}, want: "b"},
		{name: "both", output: CommandOutput{Stdout: "a", Stderr: "b"}, want: "a\nb"},
		{name: "neither", output: CommandOutput{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.output.Combined())
		})
	}
}
