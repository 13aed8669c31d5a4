package splitsign

import (
	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign/bignum"
)

// KeyPart selects which half of a key share an operation refers to
type KeyPart byte

const (
	KeyModulus  KeyPart = 0x01
	KeyExponent KeyPart = 0x02
)

// ParseKeyPart validates a raw key part byte
func ParseKeyPart(b byte) (KeyPart, error) {
	part := KeyPart(b)
	if part != KeyModulus && part != KeyExponent {
		return 0, errors.Wrapf(ErrInvalidRequest, "unrecognized key part %#02x", b)
	}
	return part, nil
}

func (p KeyPart) String() string {
	switch p {
	case KeyModulus:
		return "modulus"
	case KeyExponent:
		return "exponent"
	default:
		return "invalid"
	}
}

// A Client generates an RSA key on its own, keeps one additive share of the private exponent and hands the other
// share to the server, exactly once. It then signs messages with its share.
//
// A Client is a synchronous state machine and is not safe for concurrent use
type Client struct {
	cfg     Config
	session session

	generated bool
	n1        *bignum.Uint
	dClient   *bignum.Uint
	dServer   *bignum.Uint

	modulusRead  bool
	exponentRead bool

	message *field
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		cfg:     newConfig(opts),
		message: newField("message", ModulusLen, false),
	}
	c.session = newSession(c.cfg, "client")
	return c
}

// GenerateKeys generates the client's key pair and splits its private exponent. It may be called once until Reset
func (c *Client) GenerateKeys() error {
	if c.generated {
		return errors.Wrap(ErrSequenceViolation, "keys have already been generated")
	}

	n1, d, err := generateKeyPair(c.cfg)
	if err != nil {
		return err
	}
	defer d.Zero()

	dClient, dServer, err := splitExponent(c.cfg.Random, d)
	if err != nil {
		return err
	}

	c.n1, c.dClient, c.dServer = n1, dClient, dServer
	c.generated = true
	c.session.log.Info().Str("modulus", Fingerprint(n1.Bytes())).Msg("generated key shares")
	return nil
}

// GetKeyShare returns the client modulus or the server's exponent share. Each can be read exactly once; the
// server's share is wiped from the client as it is handed out
func (c *Client) GetKeyShare(part KeyPart) ([]byte, error) {
	if !c.generated {
		return nil, errors.Wrap(ErrSequenceViolation, "no keys have been generated")
	}

	switch part {
	case KeyModulus:
		if c.modulusRead {
			return nil, errors.Wrap(ErrAlreadyConsumed, "modulus has already been read")
		}
		c.modulusRead = true
		return c.n1.Bytes(), nil
	case KeyExponent:
		if c.exponentRead {
			return nil, errors.Wrap(ErrAlreadyConsumed, "server exponent share has already been read")
		}
		share := c.dServer.Bytes()
		c.dServer.Zero()
		c.exponentRead = true
		c.session.log.Info().Msg("handed out server exponent share")
		return share, nil
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unrecognized key part %#02x", byte(part))
	}
}

// SetMessage loads the message to sign, whole or by halves
func (c *Client) SetMessage(sel Selector, payload []byte) error {
	return c.message.load(sel, payload)
}

// Sign returns the client's signature share m^dClient mod n1 and consumes the loaded message
func (c *Client) Sign() ([]byte, error) {
	if !c.generated {
		return nil, errors.Wrap(ErrSequenceViolation, "no keys have been generated")
	}
	share, err := signShare(c.message, c.dClient, c.n1)
	if err != nil {
		return nil, err
	}
	c.session.log.Debug().Msg("computed signature share")
	return share, nil
}

// Reset wipes every key, the message and all one-shot flags, and starts a new session
func (c *Client) Reset() {
	for _, v := range []*bignum.Uint{c.n1, c.dClient, c.dServer} {
		if v != nil {
			v.Zero()
		}
	}
	c.n1, c.dClient, c.dServer = nil, nil, nil
	c.generated = false
	c.modulusRead, c.exponentRead = false, false
	c.message.clear()

	c.session.log.Info().Msg("reset")
	c.session = newSession(c.cfg, "client")
}

// signShare computes message^exponent mod modulus from a complete message field, then clears the field.
// A message that is not below the modulus is rejected without consuming it
func signShare(message *field, exponent *bignum.Uint, modulus *bignum.Uint) ([]byte, error) {
	if !message.complete() {
		return nil, errors.Wrap(ErrSequenceViolation, "message is not completely loaded")
	}

	m := message.value()
	defer m.Zero()
	if m.Cmp(modulus) >= 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "message is not below the modulus")
	}

	share := bignum.NewUint(ModulusLen).ModExp(m, exponent, modulus)
	defer share.Zero()
	message.clear()
	return share.Bytes(), nil
}
