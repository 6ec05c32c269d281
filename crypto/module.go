package crypto

import "github.com/zoobzio/parcel"

// Option configures Module.
type Option func(*config)

type config struct {
	sealer       *sealer
	argon2Params Argon2Params
	bcryptCost   int
	useBcrypt    bool
}

// WithSeal enables the Sealed type, sealing/opening with an AES-GCM key.
// Key must be 16, 24, or 32 bytes.
func WithSeal(key []byte) Option {
	return func(c *config) {
		s, err := NewSealer(key)
		if err != nil {
			panic(err) // construction-time misconfiguration, matches the teacher's panic on invalid test fixtures
		}
		c.sealer = s
	}
}

// WithArgon2 selects Argon2id (the default) with custom parameters for the Digest type.
func WithArgon2(params Argon2Params) Option {
	return func(c *config) {
		c.useBcrypt = false
		c.argon2Params = params
	}
}

// WithBcrypt selects bcrypt, at the given cost, for the Digest type.
func WithBcrypt(cost int) Option {
	return func(c *config) {
		c.useBcrypt = true
		c.bcryptCost = cost
	}
}

// Module returns the "crypto" namespace with Sealed and Digest registered,
// for installation via parcel.WithModule / (*parcel.Codec).AddModule.
func Module(opts ...Option) parcel.TypedNamespace {
	c := &config{argon2Params: DefaultArgon2Params(), bcryptCost: 10}
	for _, opt := range opts {
		opt(c)
	}

	entries := []*parcel.CodecEntry{digestEntry(algFor(c), c.argon2Params, c.bcryptCost)}
	if c.sealer != nil {
		entries = append(entries, sealedEntry(c.sealer))
	}

	return parcel.TypedNamespace{Name: "crypto", Entries: entries}
}

func algFor(c *config) byte {
	if c.useBcrypt {
		return algBcrypt
	}
	return algArgon2
}
