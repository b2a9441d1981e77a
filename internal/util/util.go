// Package util provides the subprocess plumbing used to drive the OS disk tools.
package util

//go:generate mockgen -destination mocks/mock_util.go github.com/diskofflaner/diskofflaner/internal/util Runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrToolNotFound identifies errors where the executable could not be spawned at all.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolFailed identifies errors where the executable ran but exited with a non-zero status.
	ErrToolFailed = errors.New("tool failed")
)

// CommandOutput wraps the output from an exec command as strings.
type CommandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout followed by stderr, which is what most disk tools need to be matched against since they
// are inconsistent about which stream carries their error text.
func (o CommandOutput) Combined() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	if o.Stdout == "" {
		return o.Stderr
	}
	return o.Stdout + "\n" + o.Stderr
}

// ToolError describes a command that exited with a non-zero status. The captured output is kept so callers can
// classify the failure from the tool's own text.
type ToolError struct {
	Name     string
	ExitCode int
	Output   CommandOutput
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Output.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Output.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.ExitCode, msg)
}

// Is reports ErrToolFailed so callers can match on the category without a type assertion.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

// Runner outlines the functionality necessary for running external tools. It exists so the disk backends can be
// exercised without the tools installed.
type Runner interface {
	// Execute runs the command c (name followed by args), feeding stdin when it is not empty, and blocks until
	// the command exits.
	Execute(ctx context.Context, c []string, stdin string) (CommandOutput, error)
}

// ExecRunner is an empty struct that provides the Runner implementation backed by os/exec.
type ExecRunner struct{}

// Execute runs the command with ExecuteCommand.
func (ExecRunner) Execute(ctx context.Context, c []string, stdin string) (CommandOutput, error) {
	return ExecuteCommand(ctx, c, stdin)
}

// Type assertion to ensure ExecRunner implements the Runner interface.
var _ Runner = ExecRunner{}

// ExecuteCommand executes the command and returns Stdout and Stderr as strings. The stdin string is written to the
// command's standard input when it is not empty.
func ExecuteCommand(ctx context.Context, c []string, stdin string) (output CommandOutput, err error) {
	// Check the empty struct case ([]string{}) for the command
	if len(c) == 0 {
		return CommandOutput{}, fmt.Errorf("must provide a command")
	}

	// Separate name and args
	name := c[0]
	var args []string
	if len(c) > 1 {
		args = c[1:]
	}

	// Set command and create output buffers
	cmd := exec.CommandContext(ctx, name, args...)
	var stdoutb, stderrb bytes.Buffer
	cmd.Stdout = &stdoutb
	cmd.Stderr = &stderrb
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	hideWindow(cmd)

	// Start the command's execution
	if err = cmd.Start(); err != nil {
		return CommandOutput{Stdout: stdoutb.String(), Stderr: stderrb.String(), ExitCode: -1},
			fmt.Errorf("cannot start %s: %v: %w", name, err, ErrToolNotFound)
	}

	// Wait for the command to exit
	err = cmd.Wait()
	output = CommandOutput{Stdout: stdoutb.String(), Stderr: stderrb.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
			return output, &ToolError{Name: name, ExitCode: output.ExitCode, Output: output}
		}
		output.ExitCode = -1
		return output, fmt.Errorf("error waiting for %s to exit: %w", name, err)
	}

	return output, nil
}
