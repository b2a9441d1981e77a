package cmd

import (
	"errors"
	"fmt"

	"github.com/diskofflaner/diskofflaner/internal/topology"
	"github.com/diskofflaner/diskofflaner/internal/util"
)

// errorMessages describes the classified failures, most specific first.
var errorMessages = []struct {
	err error
	msg string
}{
	{topology.ErrSystemDiskProtected, "the system disk cannot be changed"},
	{topology.ErrResourceInUse, "the disk or volume is in use, close the programs using it and try again"},
	{topology.ErrServiceError, "the storage service reported an error"},
	{topology.ErrInvalidArgument, "invalid argument"},
	{topology.ErrReadOnly, "dry run, nothing was changed"},
	{topology.ErrUnsupportedPlatform, "this platform is not supported"},
	{util.ErrToolNotFound, "a required system tool is not installed"},
	{util.ErrToolFailed, "a system tool failed"},
	{topology.ErrParse, "a system tool returned unexpected output"},
}

// describeError prefixes err with the description of its class, if any.
func describeError(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return fmt.Sprintf("%s: %v", m.msg, err)
		}
	}
	return err.Error()
}
