package publish

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPublishFailure = errors.New("publish failed")

	// ErrAlreadyPublished is returned when a target's local version is not
	// newer than its published version.
	ErrAlreadyPublished = errors.New("version already published")
)

// Error reports the package whose publish failed. Published is the completed
// prefix of the order (published or skipped); Remaining starts with Package.
type Error struct {
	Package   string
	Published []string
	Remaining []string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", ErrPublishFailure, e.Package, e.Err)
	if len(e.Published) > 0 {
		msg += fmt.Sprintf(" (completed: %s)", strings.Join(e.Published, ", "))
	}
	return msg
}

func (e *Error) Unwrap() []error { return []error{ErrPublishFailure, e.Err} }
