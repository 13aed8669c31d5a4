package splitsign

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bastionzero/splitsign/bignum"
)

const (
	// PublicExponent is used by both parties
	PublicExponent = 65537

	// ModulusBits is the size of each party's own modulus
	ModulusBits = 2048

	// ModulusLen is the width in bytes of a party modulus, and of every value transferred alongside it
	ModulusLen = ModulusBits / 8

	// CompositeLen is the width in bytes of the composite modulus and the final signature
	CompositeLen = 2 * ModulusLen

	defaultKeyGenAttempts = 1
)

// KeyGenerator produces an RSA key pair. rsa.GenerateKey is the default
type KeyGenerator func(random io.Reader, bits int) (*rsa.PrivateKey, error)

// Config holds what a party needs from its environment
type Config struct {
	// source of randomness for key generation and exponent splitting
	Random io.Reader

	// parent logger; each party adds its own role and session id
	Log zerolog.Logger

	GenerateKey KeyGenerator

	// how many key pairs the server may draw before giving up on finding one whose modulus is coprime to
	// the client's and whose product is full-width. The default of 1 fails on the first bad draw
	KeyGenAttempts int
}

// DefaultConfig uses crypto/rand, rsa.GenerateKey and a disabled logger
func DefaultConfig() Config {
	return Config{
		Random:         rand.Reader,
		Log:            zerolog.Nop(),
		GenerateKey:    rsa.GenerateKey,
		KeyGenAttempts: defaultKeyGenAttempts,
	}
}

// An Option adjusts the Config of a party at construction
type Option func(*Config)

func WithRandom(random io.Reader) Option {
	return func(c *Config) {
		c.Random = random
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Log = log
	}
}

func WithKeyGenerator(gen KeyGenerator) Option {
	return func(c *Config) {
		c.GenerateKey = gen
	}
}

func WithKeyGenAttempts(attempts int) Option {
	return func(c *Config) {
		c.KeyGenAttempts = attempts
	}
}

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}
	if cfg.GenerateKey == nil {
		cfg.GenerateKey = rsa.GenerateKey
	}
	if cfg.KeyGenAttempts < 1 {
		cfg.KeyGenAttempts = 1
	}
	return cfg
}

// session ties together the log lines of one party between resets
type session struct {
	id  string
	log zerolog.Logger
}

func newSession(cfg Config, party string) session {
	id := uuid.NewString()
	return session{
		id:  id,
		log: cfg.Log.With().Str("party", party).Str("session", id).Logger(),
	}
}

// generateKeyPair draws a fresh RSA key and returns its modulus and private exponent at party width.
// The rsa.PrivateKey itself is wiped before returning
func generateKeyPair(cfg Config) (n *bignum.Uint, d *bignum.Uint, err error) {
	priv, err := cfg.GenerateKey(cfg.Random, ModulusBits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate RSA key")
	}
	defer wipeKey(priv)

	if priv.E != PublicExponent {
		return nil, nil, errors.Errorf("generated key has public exponent %d, expected %d", priv.E, PublicExponent)
	}
	if priv.N.BitLen() != ModulusBits {
		return nil, nil, errors.Errorf("generated key is %d bits, expected %d", priv.N.BitLen(), ModulusBits)
	}
	if priv.N.Bit(0) == 0 {
		return nil, nil, errors.New("generated key has an even modulus")
	}

	if n, err = bignum.UintFromBig(priv.N, ModulusLen); err != nil {
		return nil, nil, err
	}
	if d, err = bignum.UintFromBig(priv.D, ModulusLen); err != nil {
		return nil, nil, err
	}
	return n, d, nil
}

// overwrite the secret words of a key we no longer need
func wipeKey(priv *rsa.PrivateKey) {
	secrets := append([]*big.Int{priv.D, priv.Precomputed.Dp, priv.Precomputed.Dq, priv.Precomputed.Qinv}, priv.Primes...)
	for _, v := range secrets {
		if v != nil {
			clear(v.Bits())
		}
	}
}
