package topology

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse identifies tool output that could not be understood. The affected data source is dropped.
	ErrParse = errors.New("unexpected tool output")
	// ErrSystemDiskProtected identifies commands refused because they target the system, boot or paging disk.
	ErrSystemDiskProtected = errors.New("system disk is protected")
	// ErrResourceInUse identifies commands refused because the disk or volume is held open.
	ErrResourceInUse = errors.New("resource in use")
	// ErrServiceError identifies failures reported by the OS storage service itself.
	ErrServiceError = errors.New("storage service error")
	// ErrInvalidArgument identifies a bad disk id, partition number or mount label from the caller.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReadOnly identifies errors due to dry-run not being able to continue without mutating changes.
	ErrReadOnly = errors.New("read-only mode")
	// ErrUnsupportedPlatform identifies operations the current OS backend cannot perform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// CommandError describes a failed state-changing command. Output holds the tool's text verbatim and Kind, when set,
// is the classification derived from it.
type CommandError struct {
	Op     string
	Target string
	Kind   error
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.Target)
	if e.Kind != nil {
		fmt.Fprintf(&b, ": %v", e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the classification and the underlying error to errors.Is and errors.As.
func (e *CommandError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		errs = append(errs, e.Err)
	}
	return errs
}

// invalidArgument wraps ErrInvalidArgument with a description of the offending value.
func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}
