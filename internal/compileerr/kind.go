// Package compileerr defines the kinds of error that abort a compilation.
//
// Every compile error wraps exactly one Kind, so callers classify failures
// with errors.Is against the Kind constants, while the message carries the
// detail and the wrapping github.com/pkg/errors frames carry a stack.
package compileerr

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a compile error; it is itself an error so that it may act
// as a sentinel.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	// MalformedDebugTree is a debug segment stream whose block starts and
	// ends do not nest.
	MalformedDebugTree Kind = "malformed debug tree"

	// ArityMismatch is a call or body whose value count disagrees with a
	// function signature.
	ArityMismatch Kind = "arity mismatch"

	// UnresolvedForwardDeclaration is a declared function that was never
	// defined.
	UnresolvedForwardDeclaration Kind = "unresolved forward declaration"

	// UseAfterScope is a reference through a value handle whose slot has
	// been reclaimed.
	UseAfterScope Kind = "use after scope"

	// UnsupportedWasmConstruct is a WASM construct with no lowering.
	UnsupportedWasmConstruct Kind = "unsupported wasm construct"

	// StackNeutralityViolation is a control flow join reached with differing
	// stack depths.
	StackNeutralityViolation Kind = "stack neutrality violation"
)

// Errorf returns a new error of the given kind, annotated with a formatted
// message and the caller's stack.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(kind, format, args...)
}

// KindOf returns the Kind wrapped by err, if any.
func KindOf(err error) (Kind, bool) {
	var kind Kind
	if errors.As(err, &kind) {
		return kind, true
	}
	return "", false
}
