package parcel

import (
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// Interned marks a value for intern-table promotion. Wrap any value that may
// recur within a single message with Intern(value, byIdentity) so repeated
// occurrences are encoded once and replaced with back-references.
type Interned struct {
	Value      any
	ByIdentity bool
}

// Intern wraps value so the encoder promotes it into the message's intern
// table. When byIdentity is true, recurrence is detected by pointer identity
// (two distinct values that happen to be equal are NOT deduplicated); when
// false, recurrence is detected by encoded-value equality. byIdentity is
// silently downgraded to value-equality for values whose kind carries no
// pointer identity (see pointerIdentity).
func Intern(value any, byIdentity bool) *Interned {
	return &Interned{Value: value, ByIdentity: byIdentity}
}

// pointerIdentity extracts a stable identity key for kinds that carry one.
func pointerIdentity(value any) (uintptr, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return 0, false
		}
		return v.Pointer(), true
	default:
		return 0, false
	}
}

// internContext accumulates promoted entries for one Dumps call. It is never
// stored on a Codec: a fresh context is constructed per call, so concurrent
// Dumps calls on the same Codec never share interning state.
type internContext struct {
	entries    [][]byte
	identity   map[uintptr]int
	byValueKey map[string]int
}

func newInternContext() *internContext {
	return &internContext{
		identity:   make(map[uintptr]int),
		byValueKey: make(map[string]int),
	}
}

// promote encodes iv.Value if this is its first occurrence, recording it as
// a new entry, and always returns the reference-form extension record
// pointing at its (possibly just-assigned) entry index.
func (ic *internContext) promote(c *Codec, iv *Interned) ([]byte, error) {
	if iv.ByIdentity {
		if ptr, ok := pointerIdentity(iv.Value); ok {
			if idx, exists := ic.identity[ptr]; exists {
				return encodeInternReference(idx)
			}
			encoded, err := c.encodeValue(ic, iv.Value)
			if err != nil {
				return nil, err
			}
			idx := len(ic.entries)
			ic.entries = append(ic.entries, encoded)
			ic.identity[ptr] = idx
			return encodeInternReference(idx)
		}
	}

	encoded, err := c.encodeValue(ic, iv.Value)
	if err != nil {
		return nil, err
	}
	key := string(encoded)
	if idx, exists := ic.byValueKey[key]; exists {
		return encodeInternReference(idx)
	}
	idx := len(ic.entries)
	ic.entries = append(ic.entries, encoded)
	ic.byValueKey[key] = idx
	return encodeInternReference(idx)
}

// wrap produces the final message bytes: the bare root bytes if nothing was
// interned, or a frame-form InternTag extension carrying every entry plus
// the root, in topological (strictly increasing back-reference) order.
func (ic *internContext) wrap(rootBytes []byte) ([]byte, error) {
	if len(ic.entries) == 0 {
		return rootBytes, nil
	}

	payload := writeArrayHeader(len(ic.entries))
	for _, entry := range ic.entries {
		payload = append(payload, entry...)
	}
	payload = append(payload, rootBytes...)

	emitInternTableWrapped(len(ic.entries))
	return writeExtRecord(InternTag, payload), nil
}

func encodeInternReference(idx int) ([]byte, error) {
	payload, err := msgpack.Marshal(idx)
	if err != nil {
		return nil, newWireError(ErrMalformedExtension, 0)
	}
	return writeExtRecord(InternTag, payload), nil
}

// decodeState tracks whether an intern table is currently active while
// decoding one message, and the entries materialized so far. A frame-form
// InternTag extension is only legal while !active; a reference-form InternTag
// extension is only legal while active. Which form a payload is comes from
// its leading byte (array header or integer); this state then decides
// whether that form is legal, with no regard to where in the message the
// extension appears.
type decodeState struct {
	active  bool
	entries []any
}

// decodeFrame materializes every entry in order, then the root value, with
// the table active throughout so back-references resolve against strictly
// earlier entries. Entries and the root are decoded inline from the payload
// stream (S0 -> S1 -> S2 in the protocol's state machine), not as separately
// framed blobs: each occupies exactly as many bytes as decodeValue reports.
func (c *Codec) decodeFrame(ds *decodeState, payload []byte) (any, error) {
	count, off, err := readArrayHeader(payload)
	if err != nil {
		return nil, err
	}

	ds.active = true
	defer func() {
		ds.active = false
		ds.entries = nil
	}()

	for i := 0; i < count; i++ {
		value, n, err := c.decodeValue(ds, payload[off:])
		if err != nil {
			return nil, err
		}
		off += n
		ds.entries = append(ds.entries, value)
	}

	root, _, err := c.decodeValue(ds, payload[off:])
	if err != nil {
		return nil, err
	}
	return root, nil
}

// decodeInternExtension interprets one InternTag extension record according
// to the dual-meaning rule described on decodeState: the payload's leading
// byte selects frame form or reference form, and decoder state decides
// whether that form is legal, without regard to the message's position.
// A frame-form payload is only legal while no table is active (wherever in
// the message it appears); a reference-form payload is only legal while one
// is.
func (c *Codec) decodeInternExtension(ds *decodeState, payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, newWireError(ErrMalformedExtension, 0)
	}

	if isArrayHeaderLead(payload[0]) {
		if ds.active {
			return nil, newWireError(ErrNestedTable, 0)
		}
		return c.decodeFrame(ds, payload)
	}

	if !ds.active {
		return nil, newWireError(ErrStrayReference, 0)
	}
	var idx int
	if err := msgpack.Unmarshal(payload, &idx); err != nil {
		return nil, newWireError(ErrMalformedExtension, 0)
	}
	if idx < 0 {
		return nil, newWireError(ErrIndexOutOfRange, 0)
	}
	if idx >= len(ds.entries) {
		return nil, newWireError(ErrForwardReference, 0)
	}
	return ds.entries[idx], nil
}
