// Package testing provides test fixtures for parcel.
package testing

import (
	"reflect"

	"github.com/zoobzio/parcel"
)

// Point is a simple custom type used across tests to exercise the registry's
// namespace+type_id dispatch without pulling in the crypto plugin.
type Point struct {
	X, Y int
}

// PointModule returns a namespace registering Point under namespace "geo",
// type id 0.
func PointModule() parcel.TypedNamespace {
	return parcel.TypedNamespace{
		Name: "geo",
		Entries: []*parcel.CodecEntry{
			{
				TypeID: 0,
				Type:   reflect.TypeFor[Point](),
				Policy: parcel.ExactType,
				Encode: func(value any) ([]byte, error) {
					p := value.(Point)
					return []byte{byte(p.X), byte(p.Y)}, nil
				},
				Decode: func(payload []byte) (any, error) {
					if len(payload) != 2 {
						return nil, parcel.ErrMalformedExtension
					}
					return Point{X: int(payload[0]), Y: int(payload[1])}, nil
				},
			},
		},
	}
}

// NewCodec returns a Codec with PointModule installed, ready for round-trip tests.
func NewCodec() *parcel.Codec {
	return parcel.New(parcel.WithModule(PointModule()))
}
