// Package crypto is an optional parcel plugin exercising the Default
// namespaces component (SPEC_FULL.md §4.1). It registers two wire-level
// custom types — Sealed and Digest — under namespace "crypto", adapted from
// the encrypt/hash concerns the teacher applied at the struct-field level.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/zoobzio/parcel"
)

// Encryption errors.
var (
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrCiphertextShort  = errors.New("ciphertext too short")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Sealed is an AES-GCM encrypted value. Plaintext is only ever held in
// memory transiently, during Seal/Open; the wire form carries only
// ciphertext.
type Sealed struct {
	Plaintext []byte // set by Open, consumed by Seal; zero otherwise
}

// sealer performs AES-GCM seal/open, adapted from the teacher's aesEncryptor.
type sealer struct {
	gcm cipher.AEAD
}

// NewSealer returns an AES-GCM sealer. Key must be 16, 24, or 32 bytes for
// AES-128, AES-192, or AES-256.
func NewSealer(key []byte) (*sealer, error) {
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("%w: must be 16, 24, or 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &sealer{gcm: gcm}, nil
}

func (s *sealer) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *sealer) open(ciphertext []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrCiphertextShort
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// sealedEntry returns the Sealed CodecEntry, type id 1, sealing and opening
// with s.
func sealedEntry(s *sealer) *parcel.CodecEntry {
	return &parcel.CodecEntry{
		TypeID: 1,
		Type:   reflect.TypeFor[Sealed](),
		Policy: parcel.ExactType,
		Encode: func(value any) ([]byte, error) {
			return s.seal(value.(Sealed).Plaintext)
		},
		Decode: func(payload []byte) (any, error) {
			plaintext, err := s.open(payload)
			if err != nil {
				return nil, err
			}
			return Sealed{Plaintext: plaintext}, nil
		},
	}
}
