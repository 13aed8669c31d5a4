package splitsign

import (
	"github.com/pkg/errors"
)

// A ProvisionedClient plays the client's signing role with a key share that was generated elsewhere (see SplitKey)
// and loaded into it, instead of generating its own key.
//
// The exponent must be completely loaded before the modulus may begin loading, and each loads once per key
// lifetime. Keys persist across signatures until Reset; the message does not
type ProvisionedClient struct {
	cfg     Config
	session session

	exponent *field
	modulus  *field
	message  *field
}

func NewProvisionedClient(opts ...Option) *ProvisionedClient {
	p := &ProvisionedClient{
		cfg:      newConfig(opts),
		exponent: newField("client exponent", ModulusLen, true),
		modulus:  newField("client modulus", ModulusLen, true),
		message:  newField("message", ModulusLen, false),
	}
	p.session = newSession(p.cfg, "provisioned client")
	return p
}

// SetKeys loads the client's exponent share or modulus, whole or by halves
func (p *ProvisionedClient) SetKeys(part KeyPart, sel Selector, payload []byte) error {
	switch part {
	case KeyExponent:
		return p.exponent.load(sel, payload)
	case KeyModulus:
		if !p.exponent.complete() {
			return errors.Wrap(ErrSequenceViolation, "exponent must be loaded before the modulus")
		}
		// the segment holding the least significant byte
		if (sel == Single || sel == Half1) && len(payload) > 0 && payload[len(payload)-1]&1 == 0 {
			return errors.Wrap(ErrInvalidRequest, "modulus is even")
		}
		if err := p.modulus.load(sel, payload); err != nil {
			return err
		}
		if p.modulus.complete() {
			p.session.log.Info().Str("modulus", Fingerprint(p.modulus.buf)).Msg("key share provisioned")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidRequest, "unrecognized key part %#02x", byte(part))
	}
}

// LoadKeyShare loads a client KeyShare in one shot each: the exponent first, then the modulus
func (p *ProvisionedClient) LoadKeyShare(ks *KeyShare) error {
	if ks.Role != RoleClient {
		return errors.Wrapf(ErrInvalidRequest, "cannot load a %s key share into a client", ks.Role)
	} else if len(ks.Exponent) != ModulusLen || len(ks.Modulus) != ModulusLen {
		return errors.Wrapf(ErrInvalidRequest, "key share values must be %d bytes", ModulusLen)
	}
	if err := p.SetKeys(KeyExponent, Single, ks.Exponent); err != nil {
		return err
	}
	return p.SetKeys(KeyModulus, Single, ks.Modulus)
}

// SetMessage loads the message to sign, whole or by halves
func (p *ProvisionedClient) SetMessage(sel Selector, payload []byte) error {
	return p.message.load(sel, payload)
}

// Sign returns the signature share m^dClient mod n1 and consumes the loaded message
func (p *ProvisionedClient) Sign() ([]byte, error) {
	if !p.exponent.complete() || !p.modulus.complete() {
		return nil, errors.Wrap(ErrSequenceViolation, "key share is not completely loaded")
	}

	dClient, n1 := p.exponent.value(), p.modulus.value()
	defer dClient.Zero()
	if !n1.IsOdd() {
		return nil, errors.Wrap(ErrInvalidRequest, "modulus is even")
	}

	share, err := signShare(p.message, dClient, n1)
	if err != nil {
		return nil, err
	}
	p.session.log.Debug().Msg("computed signature share")
	return share, nil
}

// Reset wipes the key share and the message and starts a new session
func (p *ProvisionedClient) Reset() {
	for _, f := range []*field{p.exponent, p.modulus, p.message} {
		f.clear()
	}
	p.session.log.Info().Msg("reset")
	p.session = newSession(p.cfg, "provisioned client")
}
