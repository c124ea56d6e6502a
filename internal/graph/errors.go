package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicatePackage = errors.New("duplicate package")
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrUnknownPackage   = errors.New("unknown package")
)

// DuplicateError reports two or more manifests declaring the same name.
type DuplicateError struct {
	Name      string
	Locations []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q declared in %s", ErrDuplicatePackage, e.Name, strings.Join(e.Locations, ", "))
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicatePackage }

// CycleError carries one cycle among normal/build edges. Path starts and ends
// with the same package; each element depends on the next.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// UnknownError reports a package name that is not part of the workspace.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownPackage, e.Name)
}

func (e *UnknownError) Unwrap() error { return ErrUnknownPackage }
