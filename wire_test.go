package parcel

import (
	"bytes"
	"testing"
)

func TestArrayHeader_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 65535, 65536} {
		hdr := writeArrayHeader(n)
		count, consumed, err := readArrayHeader(hdr)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if count != n {
			t.Errorf("n=%d: count = %d", n, count)
		}
		if consumed != len(hdr) {
			t.Errorf("n=%d: consumed = %d, want %d", n, consumed, len(hdr))
		}
	}
}

func TestMapHeader_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 65535, 65536} {
		hdr := writeMapHeader(n)
		count, consumed, err := readMapHeader(hdr)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if count != n {
			t.Errorf("n=%d: count = %d", n, count)
		}
		if consumed != len(hdr) {
			t.Errorf("n=%d: consumed = %d", n, consumed)
		}
	}
}

func TestExtRecord_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 4, 8, 16, 17, 300, 70000} {
		payload := bytes.Repeat([]byte{0xab}, n)
		rec := writeExtRecord(CustomTag, payload)

		tag, got, consumed, err := readExtHeader(rec)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if tag != CustomTag {
			t.Errorf("n=%d: tag = %d, want %d", n, tag, CustomTag)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("n=%d: payload mismatch", n)
		}
		if consumed != len(rec) {
			t.Errorf("n=%d: consumed = %d, want %d", n, consumed, len(rec))
		}
	}
}

func TestValueByteLength_Scalars(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want int
	}{
		{"posfixint", []byte{0x05}, 1},
		{"negfixint", []byte{0xff}, 1},
		{"nil", []byte{mpNil}, 1},
		{"bool", []byte{mpTrue}, 1},
		{"uint8", []byte{mpUint8, 0x01}, 2},
		{"float64", append([]byte{mpFloat64}, make([]byte, 8)...), 9},
		{"fixstr", []byte{0xa3, 'a', 'b', 'c'}, 4},
		{"bin8", []byte{mpBin8, 0x02, 0x01, 0x02}, 4},
	}
	for _, tc := range cases {
		n, err := valueByteLength(tc.data)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if n != tc.want {
			t.Errorf("%s: n = %d, want %d", tc.name, n, tc.want)
		}
	}
}
