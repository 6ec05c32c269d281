package parcel

import (
	"reflect"
	"time"
)

// timeModule returns the builtin "time" namespace, auto-registered by New.
// Stdlib time only: no pack example wraps a time/calendar library, and
// time.Time/time.Duration are stdlib types with no third-party
// serialization convention in the corpus to follow (see DESIGN.md).
func timeModule() TypedNamespace {
	return TypedNamespace{
		Name: "time",
		Entries: []*CodecEntry{
			{
				TypeID: 0,
				Type:   reflect.TypeFor[time.Time](),
				Policy: ExactType,
				Encode: func(value any) ([]byte, error) {
					return value.(time.Time).MarshalBinary()
				},
				Decode: func(payload []byte) (any, error) {
					var t time.Time
					if err := t.UnmarshalBinary(payload); err != nil {
						return nil, err
					}
					return t, nil
				},
			},
			{
				TypeID: 1,
				Type:   reflect.TypeFor[time.Duration](),
				Policy: ExactType,
				Encode: func(value any) ([]byte, error) {
					d := value.(time.Duration)
					buf := make([]byte, 8)
					putInt64(buf, int64(d))
					return buf, nil
				},
				Decode: func(payload []byte) (any, error) {
					if len(payload) != 8 {
						return nil, ErrMalformedExtension
					}
					return time.Duration(getInt64(payload)), nil
				},
			},
		},
	}
}

func putInt64(buf []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (56 - 8*i))
	}
}

func getInt64(buf []byte) int64 {
	var u uint64
	for i := 0; i < 8; i++ {
		u = u<<8 | uint64(buf[i])
	}
	return int64(u)
}
