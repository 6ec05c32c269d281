package parcel

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnserializable indicates no namespace entry matched a value on encode.
	ErrUnserializable = errors.New("unserializable value")

	// ErrDuplicateNamespace indicates a namespace name was already registered.
	ErrDuplicateNamespace = errors.New("duplicate namespace")

	// ErrDuplicateTypeID indicates a type id was already registered within a namespace.
	ErrDuplicateTypeID = errors.New("duplicate type id")

	// ErrUnknownNamespace indicates a decoded extension named a namespace that is not registered.
	ErrUnknownNamespace = errors.New("unknown namespace")

	// ErrUnknownTypeID indicates a decoded extension named a type id not registered in its namespace.
	ErrUnknownTypeID = errors.New("unknown type id")

	// ErrNestedTable indicates an intern frame was encountered while a table was already active.
	ErrNestedTable = errors.New("nested intern table")

	// ErrForwardReference indicates a back-reference named an entry at or beyond its own position.
	ErrForwardReference = errors.New("forward intern reference")

	// ErrIndexOutOfRange indicates a back-reference named an index outside the entries slice.
	ErrIndexOutOfRange = errors.New("intern index out of range")

	// ErrStrayReference indicates a reference form was decoded with no active intern table.
	ErrStrayReference = errors.New("stray intern reference")

	// ErrMalformedExtension indicates an extension record's payload did not match its tag's expected shape.
	ErrMalformedExtension = errors.New("malformed extension")
)

// RegistryError represents a namespace/type-id registration or lookup failure.
// It wraps a sentinel error with the namespace and, when applicable, the type id involved.
type RegistryError struct {
	Err       error // Underlying sentinel error
	Namespace string
	TypeID    string // empty when the error is namespace-scoped
}

func (e *RegistryError) Error() string {
	if e.TypeID != "" {
		return fmt.Sprintf("%s: namespace %q, type id %q", e.Err.Error(), e.Namespace, e.TypeID)
	}
	if e.Namespace != "" {
		return fmt.Sprintf("%s: namespace %q", e.Err.Error(), e.Namespace)
	}
	return e.Err.Error()
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// WireError represents a decode-time framing violation.
// It wraps a sentinel error with an Offset. Offset is not a position in the
// whole message: most decode paths report 0, and a non-string map key reports
// its offset within the enclosing map.
type WireError struct {
	Err    error // Underlying sentinel error
	Offset int
}

func (e *WireError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Err.Error(), e.Offset)
}

func (e *WireError) Unwrap() error {
	return e.Err
}

// DispatchError represents a failure returned by a registered namespace entry's
// own Encode or Decode function. It preserves namespace/type_id/operation context
// around the entry's original error.
type DispatchError struct {
	Namespace string
	TypeID    string
	Operation string // "encode" or "decode"
	Cause     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Operation, e.Namespace, e.TypeID, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// newRegistryError creates a RegistryError for namespace/type-id failures.
func newRegistryError(sentinel error, namespace, typeID string) error {
	return &RegistryError{Err: sentinel, Namespace: namespace, TypeID: typeID}
}

// newWireError creates a WireError for decode-time framing violations.
func newWireError(sentinel error, offset int) error {
	return &WireError{Err: sentinel, Offset: offset}
}

// newDispatchError wraps an entry's own encode/decode failure with dispatch context.
func newDispatchError(namespace, typeID, operation string, cause error) error {
	return &DispatchError{Namespace: namespace, TypeID: typeID, Operation: operation, Cause: cause}
}
