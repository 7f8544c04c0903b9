package sriov

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	KindHost      = "Host"
	KindInterface = "Interface"
	KindNetwork   = "Network"
)

// NotFoundError is returned when a host, interface or network name has no match.
// It is always raised before any mutation.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' was not found", e.Kind, e.Name)
}

// AmbiguousError is returned when a name matches more than one entity
type AmbiguousError struct {
	Kind  string
	Name  string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s '%s' is ambiguous: %d matches", e.Kind, e.Name, e.Count)
}

// NotCapableError is returned when the interface exposes no VF configuration
type NotCapableError struct {
	Interface string
}

func (e *NotCapableError) Error() string {
	return fmt.Sprintf("Interface '%s' does not support SR-IOV", e.Interface)
}

// RemoteCallError wraps a failed read or write against the management API
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Cause returns the underlying API error
func (e *RemoteCallError) Cause() error { return e.Err }

// Unwrap returns the underlying API error
func (e *RemoteCallError) Unwrap() error { return e.Err }

// NewRemoteCallError wraps err as a RemoteCallError for op, recording a stack trace.
// A nil err yields nil.
func NewRemoteCallError(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&RemoteCallError{Op: op, Err: err})
}

func notFound(kind, name string) error {
	return errors.WithStack(&NotFoundError{Kind: kind, Name: name})
}

func ambiguous(kind, name string, count int) error {
	return errors.WithStack(&AmbiguousError{Kind: kind, Name: name, Count: count})
}

func notCapable(name string) error {
	return errors.WithStack(&NotCapableError{Interface: name})
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguous reports whether err is, or wraps, an AmbiguousError
func IsAmbiguous(err error) bool {
	var ae *AmbiguousError
	return errors.As(err, &ae)
}

// IsNotCapable reports whether err is, or wraps, a NotCapableError
func IsNotCapable(err error) bool {
	var nc *NotCapableError
	return errors.As(err, &nc)
}

// IsRemoteCall reports whether err is, or wraps, a RemoteCallError
func IsRemoteCall(err error) bool {
	var rc *RemoteCallError
	return errors.As(err, &rc)
}
