package parcel

import (
	"errors"
	"testing"
)

func TestRegistryError_Unwrap(t *testing.T) {
	err := newRegistryError(ErrUnknownNamespace, "geo", "point")
	if !errors.Is(err, ErrUnknownNamespace) {
		t.Error("errors.Is should match ErrUnknownNamespace")
	}
	if got := err.Error(); got == "" {
		t.Error("Error() should not be empty")
	}
}

func TestWireError_Unwrap(t *testing.T) {
	err := newWireError(ErrForwardReference, 12)
	if !errors.Is(err, ErrForwardReference) {
		t.Error("errors.Is should match ErrForwardReference")
	}
	we := &WireError{}
	if !errors.As(err, &we) {
		t.Fatal("errors.As should match *WireError")
	}
	if we.Offset != 12 {
		t.Errorf("Offset = %d, want 12", we.Offset)
	}
}

func TestDispatchError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newDispatchError("crypto", "sealed", "decode", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
}
