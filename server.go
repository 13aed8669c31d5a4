package splitsign

import (
	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign/bignum"
)

// SignaturePart selects which input of a combination round is being loaded
type SignaturePart byte

const (
	SignatureMessage SignaturePart = 0x01
	SignatureShare   SignaturePart = 0x02
)

// ParseSignaturePart validates a raw signature part byte
func ParseSignaturePart(b byte) (SignaturePart, error) {
	part := SignaturePart(b)
	if part != SignatureMessage && part != SignatureShare {
		return 0, errors.Wrapf(ErrInvalidRequest, "unrecognized signature part %#02x", b)
	}
	return part, nil
}

func (p SignaturePart) String() string {
	switch p {
	case SignatureMessage:
		return "message"
	case SignatureShare:
		return "share"
	default:
		return "invalid"
	}
}

// A Server receives the client's modulus and the server's share of the client exponent, holds a second key pair
// of its own, and combines signature shares into signatures under the composite modulus N = n1·n2.
//
// A Server is a synchronous state machine and is not safe for concurrent use
type Server struct {
	cfg     Config
	session session

	// received from the client, once each
	dServer *field
	n1      *field

	// the server's own key and the composite modulus, derived once
	derived     bool
	n2          *bignum.Uint
	d2          *bignum.Uint
	composite   *source
	fingerprint string

	// one combination round
	message   *field
	share     *field
	signature *source
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		cfg:     newConfig(opts),
		dServer: newField("server exponent share", ModulusLen, true),
		n1:      newField("client modulus", ModulusLen, true),
		message: newField("message", ModulusLen, false),
		share:   newField("signature share", ModulusLen, false),
	}
	s.session = newSession(s.cfg, "server")
	return s
}

// SetClientKeyShare loads the server's share of the client exponent, then the client modulus. Each is one-shot:
// a second load after completion is rejected until Reset
func (s *Server) SetClientKeyShare(part KeyPart, sel Selector, payload []byte) error {
	switch part {
	case KeyExponent:
		return s.dServer.load(sel, payload)
	case KeyModulus:
		if !s.dServer.complete() {
			return errors.Wrap(ErrSequenceViolation, "exponent share must be loaded before the modulus")
		}
		if err := s.n1.load(sel, payload); err != nil {
			return err
		}
		if s.n1.complete() {
			s.session.log.Info().Str("client_modulus", Fingerprint(s.n1.buf)).Msg("received client key share")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidRequest, "unrecognized key part %#02x", byte(part))
	}
}

// GetPublicModulus returns the composite modulus N, whole or by halves.
//
// The first successful call generates the server's own key pair and derives N; later calls serve the cached value
// any number of times
func (s *Server) GetPublicModulus(sel Selector) ([]byte, error) {
	if !sel.valid() {
		return nil, errors.Wrapf(ErrInvalidRequest, "unrecognized selector %#02x", byte(sel))
	}
	if !s.derived {
		if !s.dServer.complete() || !s.n1.complete() {
			return nil, errors.Wrap(ErrSequenceViolation, "client key share is not completely loaded")
		}
		if err := s.derive(); err != nil {
			return nil, err
		}
	}
	return s.composite.serve(sel)
}

// Fingerprint identifies the composite modulus once it has been derived
func (s *Server) Fingerprint() string {
	return s.fingerprint
}

// derive validates n1, generates (n2, d2) and computes N = n1·n2. Nothing is kept unless every check passes
func (s *Server) derive() error {
	n1 := s.n1.value()
	if !n1.TopBitSet() {
		return errors.Wrapf(ErrIntegrityFailure, "client modulus is not %d bits", ModulusBits)
	} else if !n1.IsOdd() {
		return errors.Wrap(ErrIntegrityFailure, "client modulus is even")
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.KeyGenAttempts; attempt++ {
		n2, d2, err := generateKeyPair(s.cfg)
		if err != nil {
			return err
		}

		composite, err := compositeModulus(n1, n2)
		if err != nil {
			d2.Zero()
			lastErr = err
			s.session.log.Warn().Err(err).Int("attempt", attempt).Msg("server key does not combine with client key")
			continue
		}

		s.n2, s.d2 = n2, d2
		s.composite = newSource(composite)
		s.fingerprint = Fingerprint(composite.Bytes())
		s.derived = true
		s.session.log.Info().Str("composite_modulus", s.fingerprint).Int("attempt", attempt).Msg("derived composite modulus")
		return nil
	}
	return lastErr
}

// compositeModulus returns n1·n2 after checking that the moduli are coprime and the product is exactly
// CompositeLen bytes with its top bit set
func compositeModulus(n1, n2 *bignum.Uint) (*bignum.Uint, error) {
	if !bignum.Coprime(bignum.IntFromUint(n1), bignum.IntFromUint(n2)) {
		return nil, errors.Wrap(ErrIntegrityFailure, "moduli are not coprime")
	}

	product := bignum.NewUint(2*ModulusLen + 1).Mul(n1, n2)
	if product.BitLen() != 8*CompositeLen {
		return nil, errors.Wrapf(ErrIntegrityFailure, "malformed composite modulus of %d bits", product.BitLen())
	}
	return product.Resize(CompositeLen), nil
}

// SetClientSignature loads the message or the client's signature share for the next combination round, in either
// order, whole or by halves
func (s *Server) SetClientSignature(part SignaturePart, sel Selector, payload []byte) error {
	switch part {
	case SignatureMessage:
		return s.message.load(sel, payload)
	case SignatureShare:
		return s.share.load(sel, payload)
	default:
		return errors.Wrapf(ErrInvalidRequest, "unrecognized signature part %#02x", byte(part))
	}
}

// ComputeSignature completes the client's share into a signature under n1, verifies it, signs under n2 and combines
// the two into a signature under N. The round's message and share are consumed whether or not verification passes.
// The previous signature is replaced only once a new one has been computed; a failed round leaves it in place
func (s *Server) ComputeSignature() error {
	if !s.derived || !s.composite.fullyRead() {
		return errors.Wrap(ErrSequenceViolation, "composite modulus has not been retrieved")
	}
	if !s.message.complete() || !s.share.complete() {
		return errors.Wrap(ErrSequenceViolation, "message and signature share are not completely loaded")
	}

	m, clientShare := s.message.value(), s.share.value()
	n1, dServer := s.n1.value(), s.dServer.value()
	defer m.Zero()
	defer clientShare.Zero()
	defer dServer.Zero()

	if m.Cmp(n1) >= 0 || m.Cmp(s.n2) >= 0 {
		return errors.Wrap(ErrInvalidRequest, "message is not below both moduli")
	}

	// the round starts here: whatever happens, its inputs are spent
	s.message.clear()
	s.share.clear()

	sig, err := combine(m, clientShare, n1, dServer, s.n2, s.d2)
	if err != nil {
		s.session.log.Warn().Err(err).Msg("rejected client signature share")
		return err
	}
	if s.signature != nil {
		s.signature.clear()
	}
	s.signature = newSource(sig)
	sig.Zero()
	s.session.log.Info().Msg("computed signature")
	return nil
}

// combine recovers the signature under n1 from both exponent shares, checks it against the message, signs under n2
// directly, and joins the two with Garner's formula:
//
//	k = (s2 - s1) · (n1 mod n2)⁻¹ mod n2
//	s = s1 + n1·k
//
// so that s ≡ s1 (mod n1) and s ≡ s2 (mod n2)
func combine(m, clientShare, n1, dServer, n2, d2 *bignum.Uint) (*bignum.Uint, error) {
	s1Server := bignum.NewUint(ModulusLen).ModExp(m, dServer, n1)
	defer s1Server.Zero()

	// m^dClient · m^dServer = m^d (mod n1)
	s1 := bignum.NewUint(ModulusLen).ModMul(clientShare, s1Server, n1)
	defer s1.Zero()

	e := bignum.NewUint(ModulusLen).SetUint64(PublicExponent)
	if check := bignum.NewUint(ModulusLen).ModExp(s1, e, n1); check.Cmp(m) != 0 {
		return nil, errors.Wrap(ErrIntegrityFailure, "client signature share does not verify")
	}

	s2 := bignum.NewUint(ModulusLen).ModExp(m, d2, n2)
	defer s2.Zero()

	n1ModN2 := bignum.NewUint(ModulusLen).Mod(n1, n2)
	inverse, err := bignum.ModInverse(bignum.IntFromUint(n1ModN2), bignum.IntFromUint(n2))
	if err != nil {
		// unreachable once the moduli have been found coprime
		return nil, errors.Wrap(ErrIntegrityFailure, err.Error())
	}

	diff := bignum.Subtract(bignum.NewInt(ModulusLen+1), &bignum.Int{Mag: s2}, &bignum.Int{Mag: s1})
	defer diff.Zero()
	product := bignum.Multiply(bignum.NewInt(2*ModulusLen+2), diff, inverse)
	defer product.Zero()
	k := bignum.Reduce(bignum.NewUint(ModulusLen), product, n2)
	defer k.Zero()

	sum := bignum.NewUint(2*ModulusLen + 2).Mul(n1, k)
	defer sum.Zero()
	sum.Add(sum, s1)
	return sum.Resize(CompositeLen), nil
}

// GetFinalSignature returns the last computed signature, whole or by halves, any number of times
func (s *Server) GetFinalSignature(sel Selector) ([]byte, error) {
	if s.signature == nil {
		return nil, errors.Wrap(ErrSequenceViolation, "no signature has been computed")
	}
	return s.signature.serve(sel)
}

// Reset wipes the received key share, the server's own key, the composite modulus and any round in progress
func (s *Server) Reset() {
	for _, f := range []*field{s.dServer, s.n1, s.message, s.share} {
		f.clear()
	}
	for _, v := range []*bignum.Uint{s.n2, s.d2} {
		if v != nil {
			v.Zero()
		}
	}
	s.n2, s.d2 = nil, nil
	s.composite.clear()
	s.composite = nil
	s.signature.clear()
	s.signature = nil
	s.derived = false
	s.fingerprint = ""

	s.session.log.Info().Msg("reset")
	s.session = newSession(s.cfg, "server")
}
