package parcel

import (
	"strconv"
	"sync"
)

// registry holds the namespaces a Codec dispatches custom types through.
// Namespaces are tried in insertion order on encode; decode looks a namespace
// up directly by the name carried on the wire. Mutation is guarded by a
// RWMutex so registration stays safe alongside concurrent Dumps/Loads calls
// on the same Codec, matching the read-mostly locking the teacher applies to
// its own Processor config maps.
type registry struct {
	mu         sync.RWMutex
	order      []string
	namespaces map[string]*Namespace
	modules    map[string][]*CodecEntry // the Entries slice addModule installed each name under, for idempotency checks
}

func newRegistry() *registry {
	return &registry{
		namespaces: make(map[string]*Namespace),
		modules:    make(map[string][]*CodecEntry),
	}
}

// addNamespace installs ns under name, rejecting a name collision.
func (r *registry) addNamespace(name string, ns *Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.namespaces[name]; exists {
		return newRegistryError(ErrDuplicateNamespace, name, "")
	}
	r.namespaces[name] = ns
	r.order = append(r.order, name)
	return nil
}

// addModule installs a TypedNamespace, building its Namespace first. Calling
// addModule again with the literal same module (same name, same entries) is
// a no-op; a different module registered under an already-used name still
// fails with ErrDuplicateNamespace.
func (r *registry) addModule(mod TypedNamespace) error {
	r.mu.RLock()
	existing, exists := r.modules[mod.Name]
	r.mu.RUnlock()
	if exists {
		if sameEntries(existing, mod.Entries) {
			return nil
		}
		return newRegistryError(ErrDuplicateNamespace, mod.Name, "")
	}

	ns := newNamespace(mod.Name)
	for _, entry := range mod.Entries {
		if err := ns.add(entry); err != nil {
			return err
		}
	}
	if err := r.addNamespace(mod.Name, ns); err != nil {
		return err
	}

	r.mu.Lock()
	r.modules[mod.Name] = mod.Entries
	r.mu.Unlock()
	return nil
}

// sameEntries reports whether a and b are the literal same slice of entries,
// element for element. CodecEntry holds func fields, which are only
// comparable to nil, so identity (not deep equality) is what "the same
// module" means here.
func sameEntries(a, b []*CodecEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// clear removes every registered namespace.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.namespaces = make(map[string]*Namespace)
	r.modules = make(map[string][]*CodecEntry)
}

// dispatchEncode finds the first namespace (in registration order) with an
// entry matching value, returning the namespace name, the entry, and whether
// a match was found at all.
func (r *registry) dispatchEncode(value any) (string, *CodecEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		ns := r.namespaces[name]
		if entry := ns.find(value); entry != nil {
			return name, entry, true
		}
	}
	return "", nil, false
}

// dispatchDecode resolves namespace+typeID to a CodecEntry.
func (r *registry) dispatchDecode(namespace string, typeID int) (*CodecEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[namespace]
	if !ok {
		return nil, newRegistryError(ErrUnknownNamespace, namespace, "")
	}
	entry, ok := ns.byTypeID(typeID)
	if !ok {
		return nil, newRegistryError(ErrUnknownTypeID, namespace, strconv.Itoa(typeID))
	}
	return entry, nil
}
