package splitsign

import (
	"crypto/rsa"
	"io"

	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign/bignum"
)

// splitExponent splits d into two shares such that dClient + dServer = d exactly, over the integers.
//
// This is an additive split, not a modular secret share: the shares are recombined by multiplying partial
// exponentiations, m^dClient · m^dServer = m^d (mod n), never by adding them back under a modulus.
//
// dClient is drawn one byte shorter than the modulus, which puts it below n without comparing against anything,
// and dServer is whatever is left. A draw that exceeds d would leave a negative dServer, so it is drawn again;
// that can only happen when d itself is unusually short
func splitExponent(random io.Reader, d *bignum.Uint) (dClient *bignum.Uint, dServer *bignum.Uint, err error) {
	width := d.Len()
	draw := make([]byte, width-1)
	defer clear(draw)

	for {
		if _, err = io.ReadFull(random, draw); err != nil {
			return nil, nil, errors.Wrap(err, "failed to draw exponent share")
		}
		if dClient, err = bignum.UintFromBytes(draw, width); err != nil {
			return nil, nil, err
		}

		dServer = bignum.NewUint(width)
		if borrow := dServer.Sub(d, dClient); !borrow {
			return dClient, dServer, nil
		}
		dClient.Zero()
		dServer.Zero()
	}
}

// SplitKey splits an existing key into a client share and a server share, for a client that is provisioned from
// outside rather than generating its own key. Both shares carry the key's modulus.
//
// The split is the same exact additive split the Client performs on-card
func SplitKey(random io.Reader, priv *rsa.PrivateKey) (client *KeyShare, server *KeyShare, err error) {
	if priv == nil {
		return nil, nil, errors.New("cannot split a nil key")
	} else if priv.E != PublicExponent {
		return nil, nil, errors.Errorf("cannot split a key with public exponent %d, expected %d", priv.E, PublicExponent)
	} else if priv.N.BitLen() != ModulusBits {
		return nil, nil, errors.Errorf("cannot split a %d-bit key, expected %d bits", priv.N.BitLen(), ModulusBits)
	}

	n, err := bignum.UintFromBig(priv.N, ModulusLen)
	if err != nil {
		return nil, nil, err
	}
	d, err := bignum.UintFromBig(priv.D, ModulusLen)
	if err != nil {
		return nil, nil, err
	}
	defer d.Zero()

	dClient, dServer, err := splitExponent(random, d)
	if err != nil {
		return nil, nil, err
	}
	defer dClient.Zero()
	defer dServer.Zero()

	client = &KeyShare{Role: RoleClient, Modulus: n.Bytes(), Exponent: dClient.Bytes()}
	server = &KeyShare{Role: RoleServer, Modulus: n.Bytes(), Exponent: dServer.Bytes()}
	return client, server, nil
}
