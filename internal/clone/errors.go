package clone

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned when a request names no sources.
	ErrEmptySelection = errors.New("clone: must select at least one item")
	// ErrInvalidCopies is returned when fewer than one copy is requested.
	ErrInvalidCopies = errors.New("clone: copies per source must be at least 1")
	// ErrInvalidGroupSize is returned for a partition size below 1.
	ErrInvalidGroupSize = errors.New("clone: group size must be at least 1")
	// ErrBusy is returned when a pass is already running on the orchestrator.
	ErrBusy = errors.New("clone: another clone operation is in progress")
	// ErrCountMismatch means the pass produced an unexpected number of copies.
	ErrCountMismatch = errors.New("clone: instance count does not match sources x copies")
)

// FailureKind classifies which host interaction failed.
type FailureKind string

const (
	HostQueryError     FailureKind = "host-query"
	HostCreationError  FailureKind = "host-creation"
	HostTransformError FailureKind = "host-transform"
	HostGroupError     FailureKind = "host-group"
	InvariantError     FailureKind = "invariant"
)

// Failure aborts a pass. Partial lists the copies that were already created
// in the host; they are left in place.
type Failure struct {
	Kind    FailureKind
	Op      string
	Subject string
	Err     error
	Partial []ClonedInstance
}

func (f *Failure) Error() string {
	if f.Subject == "" {
		return fmt.Sprintf("clone: %s %s: %v", f.Kind, f.Op, f.Err)
	}
	return fmt.Sprintf("clone: %s %s %s: %v", f.Kind, f.Op, f.Subject, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// PartialInstances returns the copies left behind by a failed pass, or nil
// when err is not a *Failure.
func PartialInstances(err error) []ClonedInstance {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Partial
	}
	return nil
}
