// Package parcel is a self-describing binary serialization codec layered on
// MessagePack. It adds two cooperating mechanisms on top of the base wire
// format:
//
//   - A namespaced custom-type registry: plugins register named namespaces
//     of (type id -> encode/decode) entries, matched by exact Go type, by
//     assignability to a registered interface, or by a caller-supplied
//     MatchFunc. Encoding dispatches by value, in namespace registration
//     order, first match wins; decoding dispatches by the namespace and
//     type id recorded on the wire.
//
//   - An intern table: wrapping a value with Intern(value, byIdentity)
//     promotes it into a per-message table on first occurrence; later
//     occurrences (by pointer identity or by encoded-value equality) are
//     replaced with a back-reference. References may only name strictly
//     earlier entries, so the table is always a DAG.
//
// Both mechanisms are carried by two reserved MessagePack extension tags,
// InternTag and CustomTag. InternTag's meaning depends on its payload's
// shape and on whether an intern table is active; see decodeState for the
// exact rules.
//
// # Basic usage
//
//	c := parcel.New(parcel.WithModule(myModule))
//	data, err := c.Dumps(value)
//	...
//	value, err := c.Loads(data)
//
// A Codec also implements the ContentType/Marshal/Unmarshal shape used
// elsewhere in this ecosystem, so it can be dropped in anywhere that shape
// is expected.
package parcel

import (
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec owns a namespace registry and implements Dumps/Loads. The zero value
// is not usable; construct with New.
type Codec struct {
	registry *registry
}

// Option configures a Codec at construction time.
type Option func(*Codec)

// WithNamespace installs ns under name at construction time.
func WithNamespace(name string, ns *Namespace) Option {
	return func(c *Codec) {
		if err := c.registry.addNamespace(name, ns); err == nil {
			emitNamespaceRegistered(name)
		}
	}
}

// WithModule builds and installs a TypedNamespace at construction time.
func WithModule(mod TypedNamespace) Option {
	return func(c *Codec) {
		if err := c.registry.addModule(mod); err == nil {
			emitNamespaceRegistered(mod.Name)
		}
	}
}

// New constructs a Codec with the builtin time namespace plus any opts.
func New(opts ...Option) *Codec {
	c := &Codec{registry: newRegistry()}
	WithModule(timeModule())(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddNamespace installs ns under name on an already-constructed Codec.
func (c *Codec) AddNamespace(name string, ns *Namespace) error {
	if err := c.registry.addNamespace(name, ns); err != nil {
		return err
	}
	emitNamespaceRegistered(name)
	return nil
}

// AddModule builds and installs a TypedNamespace on an already-constructed Codec.
func (c *Codec) AddModule(mod TypedNamespace) error {
	if err := c.registry.addModule(mod); err != nil {
		return err
	}
	emitNamespaceRegistered(mod.Name)
	return nil
}

// ClearNamespaces removes every registered namespace, including the builtin time namespace.
func (c *Codec) ClearNamespaces() {
	c.registry.clear()
}

// Dumps encodes value into a self-describing MessagePack message.
func (c *Codec) Dumps(value any) ([]byte, error) {
	start := time.Now()
	emitDumpsStart()

	ic := newInternContext()
	rootBytes, err := c.encodeValue(ic, value)
	if err != nil {
		emitDumpsComplete(0, time.Since(start), err)
		return nil, err
	}

	out, err := ic.wrap(rootBytes)
	if err != nil {
		emitDumpsComplete(0, time.Since(start), err)
		return nil, err
	}

	emitDumpsComplete(len(out), time.Since(start), nil)
	return out, nil
}

// Loads decodes a message produced by Dumps.
func (c *Codec) Loads(data []byte) (any, error) {
	start := time.Now()
	emitLoadsStart(len(data))

	ds := &decodeState{}
	value, _, err := c.decodeValue(ds, data)

	emitLoadsComplete(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ContentType identifies this codec's wire format.
func (c *Codec) ContentType() string {
	return "application/x-parcel-msgpack"
}

// Marshal is Dumps under the ecosystem's Codec interface shape.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return c.Dumps(v)
}

// Unmarshal is Loads under the ecosystem's Codec interface shape, assigning
// the decoded value into *v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	value, err := c.Loads(data)
	if err != nil {
		return err
	}
	return assignInto(v, value)
}

// encodeValue dispatches a single value to its wire representation.
func (c *Codec) encodeValue(ic *internContext, v any) ([]byte, error) {
	switch val := v.(type) {
	case *Interned:
		return ic.promote(c, val)
	case RawExtension:
		return val.encode(), nil
	case nil, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		string, []byte:
		return msgpack.Marshal(val)
	case map[string]any:
		return c.encodeMap(ic, val)
	case []any:
		return c.encodeArray(ic, val)
	default:
		namespace, entry, ok := c.registry.dispatchEncode(v)
		if !ok {
			return nil, &RegistryError{Err: ErrUnserializable}
		}
		opaque, err := entry.Encode(v)
		if err != nil {
			return nil, newDispatchError(namespace, strconv.Itoa(entry.TypeID), "encode", err)
		}
		nsBytes, err := msgpack.Marshal(namespace)
		if err != nil {
			return nil, newDispatchError(namespace, strconv.Itoa(entry.TypeID), "encode", err)
		}
		idBytes, err := msgpack.Marshal(entry.TypeID)
		if err != nil {
			return nil, newDispatchError(namespace, strconv.Itoa(entry.TypeID), "encode", err)
		}
		payload := make([]byte, 0, len(nsBytes)+len(idBytes)+len(opaque))
		payload = append(payload, nsBytes...)
		payload = append(payload, idBytes...)
		payload = append(payload, opaque...)
		return writeExtRecord(CustomTag, payload), nil
	}
}

// encodeMap encodes m with keys in sorted order, so identical maps always
// produce identical bytes despite Go's randomized map iteration.
func (c *Codec) encodeMap(ic *internContext, m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := writeMapHeader(len(m))
	for _, k := range keys {
		kb, err := msgpack.Marshal(k)
		if err != nil {
			return nil, err
		}
		out = append(out, kb...)

		vb, err := c.encodeValue(ic, m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, vb...)
	}
	return out, nil
}

func (c *Codec) encodeArray(ic *internContext, arr []any) ([]byte, error) {
	out := writeArrayHeader(len(arr))
	for _, el := range arr {
		eb, err := c.encodeValue(ic, el)
		if err != nil {
			return nil, err
		}
		out = append(out, eb...)
	}
	return out, nil
}

// decodeValue decodes the single value at the head of data, returning the
// value and the number of bytes it occupied.
func (c *Codec) decodeValue(ds *decodeState, data []byte) (any, int, error) {
	if len(data) == 0 {
		return nil, 0, newWireError(ErrMalformedExtension, 0)
	}

	lead := data[0]
	switch {
	case isExtLead(lead):
		tag, payload, consumed, err := readExtHeader(data)
		if err != nil {
			return nil, 0, err
		}
		switch tag {
		case InternTag:
			v, err := c.decodeInternExtension(ds, payload)
			if err != nil {
				return nil, 0, err
			}
			return v, consumed, nil
		case CustomTag:
			v, err := c.decodeCustomExtension(payload)
			if err != nil {
				return nil, 0, err
			}
			return v, consumed, nil
		default:
			return RawExtension{Tag: tag, Data: append([]byte(nil), payload...)}, consumed, nil
		}

	case isArrayLead(lead):
		count, hdrLen, err := readArrayHeader(data)
		if err != nil {
			return nil, 0, err
		}
		off := hdrLen
		result := make([]any, count)
		for i := 0; i < count; i++ {
			v, n, err := c.decodeValue(ds, data[off:])
			if err != nil {
				return nil, 0, err
			}
			result[i] = v
			off += n
		}
		return result, off, nil

	case isMapLead(lead):
		count, hdrLen, err := readMapHeader(data)
		if err != nil {
			return nil, 0, err
		}
		off := hdrLen
		m := make(map[string]any, count)
		for i := 0; i < count; i++ {
			k, n, err := c.decodeValue(ds, data[off:])
			if err != nil {
				return nil, 0, err
			}
			off += n
			ks, ok := k.(string)
			if !ok {
				return nil, 0, newWireError(ErrMalformedExtension, off)
			}
			v, n2, err := c.decodeValue(ds, data[off:])
			if err != nil {
				return nil, 0, err
			}
			off += n2
			m[ks] = v
		}
		return m, off, nil

	default:
		n, err := valueByteLength(data)
		if err != nil {
			return nil, 0, err
		}
		var v any
		if err := msgpack.Unmarshal(data[:n], &v); err != nil {
			return nil, 0, newWireError(ErrMalformedExtension, 0)
		}
		return v, n, nil
	}
}

// decodeCustomExtension reads a CustomTag payload as the concatenation of
// self-delimiting namespace and type_id values followed directly by the
// opaque entry payload, byte-compatible with any other conformant
// implementation reading the same prefix: pack(namespace) ++ pack(type_id)
// ++ opaque.
func (c *Codec) decodeCustomExtension(payload []byte) (any, error) {
	nsLen, err := valueByteLength(payload)
	if err != nil {
		return nil, err
	}
	var namespace string
	if err := msgpack.Unmarshal(payload[:nsLen], &namespace); err != nil {
		return nil, newWireError(ErrMalformedExtension, 0)
	}
	rest := payload[nsLen:]

	idLen, err := valueByteLength(rest)
	if err != nil {
		return nil, err
	}
	var typeID int
	if err := msgpack.Unmarshal(rest[:idLen], &typeID); err != nil {
		return nil, newWireError(ErrMalformedExtension, 0)
	}
	opaque := rest[idLen:]

	entry, err := c.registry.dispatchDecode(namespace, typeID)
	if err != nil {
		return nil, err
	}
	value, err := entry.Decode(opaque)
	if err != nil {
		return nil, newDispatchError(namespace, strconv.Itoa(typeID), "decode", err)
	}
	return value, nil
}

// assignInto assigns value into *dst, converting when the dynamic type
// isn't directly assignable (e.g. a decoded int64 into an int field).
func assignInto(dst any, value any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newWireError(ErrMalformedExtension, 0)
	}
	elem := rv.Elem()

	valRV := reflect.ValueOf(value)
	if !valRV.IsValid() {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	if valRV.Type().AssignableTo(elem.Type()) {
		elem.Set(valRV)
		return nil
	}
	if valRV.Type().ConvertibleTo(elem.Type()) {
		elem.Set(valRV.Convert(elem.Type()))
		return nil
	}
	return newWireError(ErrMalformedExtension, 0)
}
