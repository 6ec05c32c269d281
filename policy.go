package parcel

import (
	"reflect"
	"strconv"
)

// MatchPolicy determines how a namespace's entries are matched against a
// value's Go type during encode dispatch.
type MatchPolicy int

const (
	// ExactType matches only values whose concrete type is identical to the entry's registered type.
	ExactType MatchPolicy = iota
	// Subtype matches values whose concrete type is assignable to the entry's registered type
	// (e.g. the entry registers an interface and any implementer matches).
	Subtype
)

// EncodeFunc produces the opaque payload bytes for a value this entry matched.
type EncodeFunc func(value any) ([]byte, error)

// DecodeFunc reconstructs a value from the opaque payload bytes this entry's
// namespace+type_id named on the wire.
type DecodeFunc func(payload []byte) (any, error)

// MatchFunc reports whether a catch-all entry claims a value. Used instead of
// a registered Go type when a namespace matches values structurally rather
// than by concrete type (e.g. "any type implementing this interface").
type MatchFunc func(value any) bool

// CodecEntry is one registered (type_id -> codec) binding within a namespace.
// TypeID is an integer, matching the wire preamble's (namespace, type_id) pair.
type CodecEntry struct {
	TypeID int
	Type   reflect.Type // nil when Match is set; mutually exclusive with Match
	Policy MatchPolicy
	Match  MatchFunc
	Encode EncodeFunc
	Decode DecodeFunc
}

// matches reports whether this entry claims value for encoding.
func (e *CodecEntry) matches(value any) bool {
	if e.Match != nil {
		return e.Match(value)
	}
	if value == nil {
		return e.Type == nil
	}
	vt := reflect.TypeOf(value)
	switch e.Policy {
	case Subtype:
		return vt == e.Type || (e.Type.Kind() == reflect.Interface && vt.Implements(e.Type))
	default:
		return vt == e.Type
	}
}

// Namespace is an ordered, named collection of CodecEntry bindings. Entries
// are tried in insertion order; the first match wins.
type Namespace struct {
	Name    string
	entries []*CodecEntry
	byID    map[int]*CodecEntry
}

// TypedNamespace constructs a Namespace from typed entries, the common case
// for a plugin registering a fixed set of Go types (as opposed to building a
// Namespace by hand via AddNamespace/entry-at-a-time calls).
type TypedNamespace struct {
	Name    string
	Entries []*CodecEntry
}

// newNamespace returns an empty, ready-to-populate Namespace.
func newNamespace(name string) *Namespace {
	return &Namespace{Name: name, byID: make(map[int]*CodecEntry)}
}

// NewNamespace returns an empty, ready-to-populate Namespace for callers
// building one entry at a time instead of through a TypedNamespace.
func NewNamespace(name string) *Namespace {
	return newNamespace(name)
}

// add appends entry to the namespace, rejecting a type id collision.
func (n *Namespace) add(entry *CodecEntry) error {
	if _, exists := n.byID[entry.TypeID]; exists {
		return newRegistryError(ErrDuplicateTypeID, n.Name, strconv.Itoa(entry.TypeID))
	}
	n.byID[entry.TypeID] = entry
	n.entries = append(n.entries, entry)
	return nil
}

// Add appends entry to the namespace, rejecting a type id collision.
func (n *Namespace) Add(entry *CodecEntry) error {
	return n.add(entry)
}

// find returns the first entry in insertion order that matches value.
func (n *Namespace) find(value any) *CodecEntry {
	for _, e := range n.entries {
		if e.matches(value) {
			return e
		}
	}
	return nil
}

// byTypeID looks up an entry by its registered type id.
func (n *Namespace) byTypeID(typeID int) (*CodecEntry, bool) {
	e, ok := n.byID[typeID]
	return e, ok
}
