package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableManifest indicates a manifest could not be read or parsed.
	// A partial workspace is never returned alongside it.
	ErrUnreadableManifest = errors.New("unreadable manifest")

	// ErrWriteFailure indicates a manifest could not be rewritten.
	ErrWriteFailure = errors.New("manifest write failed")
)

// ReadError reports the manifest that failed to load.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnreadableManifest, e.Path, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrUnreadableManifest, e.Err} }

// WriteError reports the manifest that failed to be rewritten. The file on
// disk is left as it was before the write began.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrWriteFailure, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailure, e.Err} }

func readErrorf(path, format string, args ...any) error {
	return &ReadError{Path: path, Err: fmt.Errorf(format, args...)}
}
