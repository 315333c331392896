// Package a2lerr models the error kinds spec.md §7 names as wrapped
// struct errors, following the teacher's errors.New-sentinel style
// generalized to carry a payload.
package a2lerr

import (
	"errors"
	"fmt"
)

// Sentinel kinds usable with errors.Is against any wrapped error below.
var (
	ErrUnreadableBinary   = errors.New("a2lerr: binary could not be read")
	ErrUnsupportedFormat  = errors.New("a2lerr: debug info format not supported")
	ErrNoDebugInfo        = errors.New("a2lerr: no usable debug info")
	ErrCorruptDebugInfo   = errors.New("a2lerr: debug info is corrupt or truncated")
	ErrUnresolvedSymbol   = errors.New("a2lerr: symbol reference could not be resolved")
	ErrIncompatibleType   = errors.New("a2lerr: symbol type incompatible with descriptor")
	ErrPolicyRejected     = errors.New("a2lerr: update rejected by policy")
	ErrIncompleteDescriptor = errors.New("a2lerr: descriptor synthesized with missing information")
)

// DebugInfoError reports a problem reading a specific stream/offset of a
// debug-info container.
type DebugInfoError struct {
	Stream string
	Offset int64
	Err    error
}

func (e *DebugInfoError) Error() string {
	return fmt.Sprintf("a2lerr: stream %q at offset 0x%x: %v", e.Stream, e.Offset, e.Err)
}

func (e *DebugInfoError) Unwrap() error { return e.Err }

// ResolveError reports a Name Resolver failure against a specific path.
type ResolveError struct {
	Path string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("a2lerr: cannot resolve %q: %v", e.Path, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// TypeMismatchError reports an A2L descriptor whose recorded type
// disagrees with the symbol the Name Resolver found.
type TypeMismatchError struct {
	Descriptor string
	Expected   string
	Found      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("a2lerr: descriptor %q expected type %q, found %q",
		e.Descriptor, e.Expected, e.Found)
}

func (e *TypeMismatchError) Unwrap() error { return ErrIncompatibleType }

// PolicyRejectedError wraps whichever warning caused an update policy to
// reject a descriptor instead of applying a change.
type PolicyRejectedError struct {
	Descriptor string
	Reason     error
}

func (e *PolicyRejectedError) Error() string {
	return fmt.Sprintf("a2lerr: policy rejected update to %q: %v", e.Descriptor, e.Reason)
}

func (e *PolicyRejectedError) Unwrap() error { return ErrPolicyRejected }

// IncompleteError reports a descriptor synthesized despite missing
// information (spec.md §9 Open Question (b): arrays with no upper bound).
type IncompleteError struct {
	Descriptor string
	NeededFor  string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("a2lerr: descriptor %q is incomplete, missing %s",
		e.Descriptor, e.NeededFor)
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteDescriptor }
