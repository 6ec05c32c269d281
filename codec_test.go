package parcel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// MyType is the fixture type used by scenario S2.
type MyType struct {
	Value int
}

func myTypeModule(c *Codec) TypedNamespace {
	return TypedNamespace{
		Name: "tobytes.test",
		Entries: []*CodecEntry{
			{
				TypeID: 1,
				Type:   reflect.TypeFor[MyType](),
				Policy: ExactType,
				Encode: func(v any) ([]byte, error) {
					return c.Dumps(v.(MyType).Value)
				},
				Decode: func(payload []byte) (any, error) {
					v, err := c.Loads(payload)
					if err != nil {
						return nil, err
					}
					return MyType{Value: int(v.(int8))}, nil
				},
			},
		},
	}
}

// S1: c.Dumps(1) equals a single positive fixint byte; c.Loads of it is 1.
func TestS1_PrimitiveRoundTrip(t *testing.T) {
	c := New()
	data, err := c.Dumps(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 1 || data[0] != 0x01 {
		t.Fatalf("Dumps(1) = % x, want [0x01]", data)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	if v != int8(1) {
		t.Errorf("Loads() = %v (%T), want 1", v, v)
	}
}

// S2: a registered custom type round-trips through its own encode/decode pair.
func TestS2_CustomTypeRoundTrip(t *testing.T) {
	c := New()
	mod := myTypeModule(c)
	if err := c.AddModule(mod); err != nil {
		t.Fatal(err)
	}

	data, err := c.Dumps(MyType{Value: 1})
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(MyType)
	if !ok || got.Value != 1 {
		t.Errorf("Loads() = %#v, want MyType{Value: 1}", v)
	}
}

// AddModule called twice with the literal same module is a no-op.
func TestAddModule_IdempotentOnSameModule(t *testing.T) {
	c := New()
	mod := myTypeModule(c)
	if err := c.AddModule(mod); err != nil {
		t.Fatal(err)
	}
	if err := c.AddModule(mod); err != nil {
		t.Errorf("AddModule() twice with the same module should be a no-op, got %v", err)
	}
}

// S3: a hand-built frame-form (entries "hello","world"; body [ref(0),ref(1),ref(0)])
// decodes to ["hello", "world", "hello"].
func TestS3_FrameFormDecode(t *testing.T) {
	c := New()

	hello, _ := msgpack.Marshal("hello")
	world, _ := msgpack.Marshal("world")
	ref0, _ := encodeInternReference(0)
	ref1, _ := encodeInternReference(1)

	entries := append(append([]byte{}, hello...), world...)
	body := writeArrayHeader(3)
	body = append(body, ref0...)
	body = append(body, ref1...)
	body = append(body, ref0...)

	payload := append(writeArrayHeader(2), entries...)
	payload = append(payload, body...)
	frame := writeExtRecord(InternTag, payload)

	v, err := c.Loads(frame)
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("Loads() = %#v", v)
	}
	want := []any{"hello", "world", "hello"}
	for i, w := range want {
		if arr[i] != w {
			t.Errorf("arr[%d] = %v, want %v", i, arr[i], w)
		}
	}
}

// S4: entries[0] = [ref(1), ref(2)] references indices not yet loaded -> ForwardReference.
func TestS4_ForwardReference(t *testing.T) {
	c := New()

	ref1, _ := encodeInternReference(1)
	ref2, _ := encodeInternReference(2)
	entry0 := writeArrayHeader(2)
	entry0 = append(entry0, ref1...)
	entry0 = append(entry0, ref2...)

	hello, _ := msgpack.Marshal("hello")
	world, _ := msgpack.Marshal("world")
	ref0, _ := encodeInternReference(0)

	payload := writeArrayHeader(3)
	payload = append(payload, entry0...)
	payload = append(payload, hello...)
	payload = append(payload, world...)
	payload = append(payload, ref0...) // body

	frame := writeExtRecord(InternTag, payload)

	_, err := c.Loads(frame)
	if !errors.Is(err, ErrForwardReference) {
		t.Errorf("err = %v, want ErrForwardReference", err)
	}
}

// S5: interning the same string by value five times produces one table entry.
func TestS5_InternDedupByValue(t *testing.T) {
	c := New()
	value := map[string]any{
		"a": Intern("repeated", false),
		"b": Intern("repeated", false),
		"c": Intern("repeated", false),
		"d": []any{Intern("repeated", false), Intern("repeated", false)},
	}

	data, err := c.Dumps(value)
	if err != nil {
		t.Fatal(err)
	}
	_, payload, _, err := readExtHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if n, _, err := readArrayHeader(payload); err != nil || n != 1 {
		t.Errorf("intern table has %d entries (err %v), want 1", n, err)
	}

	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("Loads() = %#v, want map[string]any", v)
	}
	count := 0
	if m["a"] == "repeated" {
		count++
	}
	if m["b"] == "repeated" {
		count++
	}
	if m["c"] == "repeated" {
		count++
	}
	d, _ := m["d"].([]any)
	for _, el := range d {
		if el == "repeated" {
			count++
		}
	}
	if count != 5 {
		t.Errorf("reconstructed %d occurrences of \"repeated\", want 5", count)
	}
}

// S6: an entry that is itself a fully-formed inner frame is rejected as NestedTable.
func TestS6_NestedTable(t *testing.T) {
	c := New()

	one, _ := msgpack.Marshal(1)
	innerPayload := append(writeArrayHeader(0), one...)
	innerFrame := writeExtRecord(InternTag, innerPayload)

	zero, _ := msgpack.Marshal(0)
	outerPayload := writeArrayHeader(1)
	outerPayload = append(outerPayload, innerFrame...)
	outerPayload = append(outerPayload, zero...)

	frame := writeExtRecord(InternTag, outerPayload)

	_, err := c.Loads(frame)
	if !errors.Is(err, ErrNestedTable) {
		t.Errorf("err = %v, want ErrNestedTable", err)
	}
}

func TestUnserializableValue(t *testing.T) {
	c := New()
	type unregistered struct{ X int }
	_, err := c.Dumps(unregistered{X: 1})
	if !errors.Is(err, ErrUnserializable) {
		t.Errorf("err = %v, want ErrUnserializable", err)
	}
}

func TestForeignExtensionPassThrough(t *testing.T) {
	c := New()
	raw := RawExtension{Tag: 99, Data: []byte{1, 2, 3}}

	data, err := c.Dumps(raw)
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(RawExtension)
	if !ok || got.Tag != 99 {
		t.Errorf("Loads() = %#v, want RawExtension{Tag: 99, ...}", v)
	}
}

func TestMapArrayRoundTrip(t *testing.T) {
	c := New()
	value := map[string]any{
		"list": []any{1, 2, 3},
		"name": "parcel",
	}
	data, err := c.Dumps(value)
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(map[string]any); !ok {
		t.Fatalf("Loads() = %#v, want map[string]any", v)
	}
}

func TestCodec_MarshalUnmarshalAdapter(t *testing.T) {
	c := New()
	data, err := c.Marshal(42)
	if err != nil {
		t.Fatal(err)
	}
	var out int
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != 42 {
		t.Errorf("out = %d, want 42", out)
	}
}
