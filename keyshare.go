package splitsign

import (
	"bytes"
	"encoding/asn1"
	"encoding/pem"

	"github.com/pkg/errors"
)

const pemType = "RSA SPLIT PRIVATE KEY SHARE"

// Role says which party a KeyShare belongs to
type Role int

const (
	RoleClient Role = iota + 1
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "unknown"
	}
}

// A KeyShare is one party's half of an additively split private exponent, alongside the public modulus of the
// original key. Both values are ModulusLen bytes, big-endian and zero-padded, ready to be loaded in one shot
type KeyShare struct {
	Role     Role
	Modulus  []byte // public part
	Exponent []byte // split private exponent
}

// used exclusively as a placeholder for encoding-decoding
type keyShare struct {
	Role     int
	Modulus  []byte
	Exponent []byte
}

// Wipe overwrites the private exponent
func (ks *KeyShare) Wipe() {
	clear(ks.Exponent)
}

// returns a PEM encoding of the key share
func (ks *KeyShare) EncodePEM() (string, error) {
	b, err := asn1.Marshal(keyShare{
		Role:     int(ks.Role),
		Modulus:  ks.Modulus,
		Exponent: ks.Exponent,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to DER-encode")
	}

	keyPEM := new(bytes.Buffer)
	err = pem.Encode(keyPEM, &pem.Block{
		Type:  pemType,
		Bytes: b,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to PEM-encode")
	}

	return keyPEM.String(), nil
}

// returns a key share from a PEM encoding
func DecodePEM(encoded string) (*KeyShare, error) {
	block, rest := pem.Decode([]byte(encoded))
	if block == nil || block.Type != pemType || len(bytes.TrimSpace(rest)) > 0 {
		return nil, errors.New("failed to decode PEM block containing key share")
	}

	var ks keyShare
	rest, err := asn1.Unmarshal(block.Bytes, &ks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal DER-encoded key share")
	} else if len(rest) > 0 {
		return nil, errors.New("trailing data after DER-encoded key share")
	}

	role := Role(ks.Role)
	if role != RoleClient && role != RoleServer {
		return nil, errors.Errorf("unrecognized key share role %d", ks.Role)
	} else if len(ks.Modulus) != ModulusLen || len(ks.Exponent) != ModulusLen {
		return nil, errors.Errorf("key share values must be %d bytes", ModulusLen)
	}

	return &KeyShare{
		Role:     role,
		Modulus:  ks.Modulus,
		Exponent: ks.Exponent,
	}, nil
}
