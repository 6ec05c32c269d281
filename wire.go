package parcel

import (
	"encoding/binary"
)

// Extension tags reserved by this protocol. InternTag is overloaded: its
// meaning is disambiguated by the payload's own leading byte and by decoder
// state (whether an intern table is currently active). CustomTag always
// carries a custom-typed value.
const (
	InternTag = 6
	CustomTag = 8
)

// MessagePack leading-byte ranges used by the hand-rolled framing below.
// vmihailenco/msgpack/v5 only exposes whole-value Marshal/Unmarshal, so the
// array/map/ext headers that carry this protocol's structure are framed
// here directly against the documented wire format; every scalar leaf is
// still produced and parsed by the library.
const (
	mpFixArrayMin = 0x90
	mpFixArrayMax = 0x9f
	mpArray16     = 0xdc
	mpArray32     = 0xdd

	mpFixMapMin = 0x80
	mpFixMapMax = 0x8f
	mpMap16     = 0xde
	mpMap32     = 0xdf

	mpFixStrMin = 0xa0
	mpFixStrMax = 0xbf
	mpStr8      = 0xd9
	mpStr16     = 0xda
	mpStr32     = 0xdb

	mpBin8  = 0xc4
	mpBin16 = 0xc5
	mpBin32 = 0xc6

	mpNil      = 0xc0
	mpFalse    = 0xc2
	mpTrue     = 0xc3
	mpFloat32  = 0xca
	mpFloat64  = 0xcb
	mpUint8    = 0xcc
	mpUint16   = 0xcd
	mpUint32   = 0xce
	mpUint64   = 0xcf
	mpInt8     = 0xd0
	mpInt16    = 0xd1
	mpInt32    = 0xd2
	mpInt64    = 0xd3
	mpPosFixMax = 0x7f
	mpNegFixMin = 0xe0

	mpFixExt1  = 0xd4
	mpFixExt2  = 0xd5
	mpFixExt4  = 0xd6
	mpFixExt8  = 0xd7
	mpFixExt16 = 0xd8
	mpExt8     = 0xc7
	mpExt16    = 0xc8
	mpExt32    = 0xc9
)

func isArrayLead(b byte) bool {
	return (b >= mpFixArrayMin && b <= mpFixArrayMax) || b == mpArray16 || b == mpArray32
}

func isMapLead(b byte) bool {
	return (b >= mpFixMapMin && b <= mpFixMapMax) || b == mpMap16 || b == mpMap32
}

func isExtLead(b byte) bool {
	switch b {
	case mpFixExt1, mpFixExt2, mpFixExt4, mpFixExt8, mpFixExt16, mpExt8, mpExt16, mpExt32:
		return true
	}
	return false
}

// isArrayHeaderLead reports whether b opens an array header, used to tell an
// intern frame payload (array-shaped) from a reference payload (int-shaped).
func isArrayHeaderLead(b byte) bool {
	return isArrayLead(b)
}

// --- header writers ---

func writeArrayHeader(n int) []byte {
	switch {
	case n < 16:
		return []byte{byte(mpFixArrayMin | n)}
	case n <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = mpArray16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		return buf
	default:
		buf := make([]byte, 5)
		buf[0] = mpArray32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		return buf
	}
}

func writeMapHeader(n int) []byte {
	switch {
	case n < 16:
		return []byte{byte(mpFixMapMin | n)}
	case n <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = mpMap16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		return buf
	default:
		buf := make([]byte, 5)
		buf[0] = mpMap32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		return buf
	}
}

// writeExtRecord frames payload as a MessagePack extension record with the given tag.
func writeExtRecord(tag int8, payload []byte) []byte {
	n := len(payload)
	var header []byte
	switch n {
	case 1:
		header = []byte{mpFixExt1, byte(tag)}
	case 2:
		header = []byte{mpFixExt2, byte(tag)}
	case 4:
		header = []byte{mpFixExt4, byte(tag)}
	case 8:
		header = []byte{mpFixExt8, byte(tag)}
	case 16:
		header = []byte{mpFixExt16, byte(tag)}
	default:
		switch {
		case n <= 0xff:
			header = []byte{mpExt8, byte(n), byte(tag)}
		case n <= 0xffff:
			header = make([]byte, 4)
			header[0] = mpExt16
			binary.BigEndian.PutUint16(header[1:3], uint16(n))
			header[3] = byte(tag)
		default:
			header = make([]byte, 6)
			header[0] = mpExt32
			binary.BigEndian.PutUint32(header[1:5], uint32(n))
			header[5] = byte(tag)
		}
	}
	out := make([]byte, 0, len(header)+n)
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// --- header readers ---

func readArrayHeader(data []byte) (count, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, newWireError(ErrMalformedExtension, 0)
	}
	b := data[0]
	switch {
	case b >= mpFixArrayMin && b <= mpFixArrayMax:
		return int(b & 0x0f), 1, nil
	case b == mpArray16:
		if len(data) < 3 {
			return 0, 0, newWireError(ErrMalformedExtension, 0)
		}
		return int(binary.BigEndian.Uint16(data[1:3])), 3, nil
	case b == mpArray32:
		if len(data) < 5 {
			return 0, 0, newWireError(ErrMalformedExtension, 0)
		}
		return int(binary.BigEndian.Uint32(data[1:5])), 5, nil
	}
	return 0, 0, newWireError(ErrMalformedExtension, 0)
}

func readMapHeader(data []byte) (count, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, newWireError(ErrMalformedExtension, 0)
	}
	b := data[0]
	switch {
	case b >= mpFixMapMin && b <= mpFixMapMax:
		return int(b & 0x0f), 1, nil
	case b == mpMap16:
		if len(data) < 3 {
			return 0, 0, newWireError(ErrMalformedExtension, 0)
		}
		return int(binary.BigEndian.Uint16(data[1:3])), 3, nil
	case b == mpMap32:
		if len(data) < 5 {
			return 0, 0, newWireError(ErrMalformedExtension, 0)
		}
		return int(binary.BigEndian.Uint32(data[1:5])), 5, nil
	}
	return 0, 0, newWireError(ErrMalformedExtension, 0)
}

// readExtHeader parses an extension record, returning its tag, its payload,
// and the total bytes consumed (header + payload).
func readExtHeader(data []byte) (tag int8, payload []byte, consumed int, err error) {
	if len(data) == 0 {
		return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
	}
	b := data[0]
	var length, headerLen int
	switch b {
	case mpFixExt1:
		length, headerLen = 1, 2
	case mpFixExt2:
		length, headerLen = 2, 2
	case mpFixExt4:
		length, headerLen = 4, 2
	case mpFixExt8:
		length, headerLen = 8, 2
	case mpFixExt16:
		length, headerLen = 16, 2
	case mpExt8:
		if len(data) < 3 {
			return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
		}
		length, headerLen = int(data[1]), 3
	case mpExt16:
		if len(data) < 4 {
			return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
		}
		length, headerLen = int(binary.BigEndian.Uint16(data[1:3])), 4
	case mpExt32:
		if len(data) < 6 {
			return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
		}
		length, headerLen = int(binary.BigEndian.Uint32(data[1:5])), 6
	default:
		return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
	}
	if len(data) < headerLen+length {
		return 0, nil, 0, newWireError(ErrMalformedExtension, 0)
	}
	tag = int8(data[headerLen-1])
	payload = data[headerLen : headerLen+length]
	consumed = headerLen + length
	return tag, payload, consumed, nil
}

// valueByteLength returns the total byte length of the single scalar
// MessagePack value (nil, bool, int family, float32/64, string, bin) at the
// head of data, without decoding it. Used to bound msgpack.Unmarshal calls
// for leaf values, since the library only offers whole-slice decoding.
func valueByteLength(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, newWireError(ErrMalformedExtension, 0)
	}
	b := data[0]
	switch {
	case b <= mpPosFixMax, b >= mpNegFixMin:
		return 1, nil
	}
	switch b {
	case mpNil, mpFalse, mpTrue:
		return 1, nil
	case mpUint8, mpInt8:
		return 2, nil
	case mpUint16, mpInt16:
		return 3, nil
	case mpUint32, mpInt32, mpFloat32:
		return 5, nil
	case mpUint64, mpInt64, mpFloat64:
		return 9, nil
	case mpStr8, mpBin8:
		if len(data) < 2 {
			return 0, newWireError(ErrMalformedExtension, 0)
		}
		return 2 + int(data[1]), nil
	case mpStr16, mpBin16:
		if len(data) < 3 {
			return 0, newWireError(ErrMalformedExtension, 0)
		}
		return 3 + int(binary.BigEndian.Uint16(data[1:3])), nil
	case mpStr32, mpBin32:
		if len(data) < 5 {
			return 0, newWireError(ErrMalformedExtension, 0)
		}
		return 5 + int(binary.BigEndian.Uint32(data[1:5])), nil
	}
	if b >= mpFixStrMin && b <= mpFixStrMax {
		return 1 + int(b&0x1f), nil
	}
	return 0, newWireError(ErrMalformedExtension, 0)
}

// RawExtension preserves a foreign (non-protocol) extension record verbatim
// across a round-trip, since parcel only understands InternTag and CustomTag.
type RawExtension struct {
	Tag  int8
	Data []byte
}

func (r RawExtension) encode() []byte {
	return writeExtRecord(r.Tag, r.Data)
}
