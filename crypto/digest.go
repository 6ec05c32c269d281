package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"reflect"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/zoobzio/parcel"
)

// Digest is a one-way password hash. Plaintext is only ever held in memory
// transiently, during Compute; the wire form carries only the encoded hash.
type Digest struct {
	Plaintext []byte // set to request a hash, consumed by Compute
	Encoded   string // the resulting hash string, once computed
}

// Argon2Params configures Argon2id hashing, adapted from the teacher's
// Argon2Params/DefaultArgon2Params.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params returns recommended Argon2id parameters, per OWASP's
// password-hashing guidance.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

func computeArgon2(params Argon2Params, plaintext []byte) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey(plaintext, salt, params.Time, params.Memory, params.Threads, params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%x$%x",
		argon2.Version, params.Memory, params.Time, params.Threads, salt, hash), nil
}

func computeBcrypt(cost int, plaintext []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(plaintext, cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return string(hash), nil
}

// Algorithm tag bytes. A Digest's opaque CodecEntry payload is the
// algorithm tag byte followed by the encoded hash string.
const (
	algArgon2 byte = iota
	algBcrypt
)

// digestEntry returns the "digest" CodecEntry. algo selects which algorithm
// new digests are computed with; a decoded Digest simply carries whatever
// algorithm its wire tag names, so mixed-algorithm messages still decode.
func digestEntry(algo byte, argon2Params Argon2Params, bcryptCost int) *parcel.CodecEntry {
	return &parcel.CodecEntry{
		TypeID: 0,
		Type:   reflect.TypeFor[Digest](),
		Policy: parcel.ExactType,
		Encode: func(value any) ([]byte, error) {
			d := value.(Digest)
			var encoded string
			var err error
			switch algo {
			case algBcrypt:
				encoded, err = computeBcrypt(bcryptCost, d.Plaintext)
			default:
				encoded, err = computeArgon2(argon2Params, d.Plaintext)
			}
			if err != nil {
				return nil, err
			}
			return append([]byte{algo}, []byte(encoded)...), nil
		},
		Decode: func(payload []byte) (any, error) {
			if len(payload) < 1 {
				return nil, parcel.ErrMalformedExtension
			}
			return Digest{Encoded: string(payload[1:])}, nil
		},
	}
}
