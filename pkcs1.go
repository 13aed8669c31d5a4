// The DigestInfo prefixes and the padding layout below follow the Go stdlib crypto/rsa. We cannot use rsa.SignPKCS1v15
// and rsa.VerifyPKCS1v15 directly: the message representative has to fit under each party's modulus, while the
// signature verifies under their product.

package splitsign

import (
	"crypto"
	"crypto/rsa"
	"crypto/subtle"

	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign/bignum"
)

// These are ASN1 DER structures:
//
//	DigestInfo ::= SEQUENCE {
//	  digestAlgorithm AlgorithmIdentifier,
//	  digest OCTET STRING
//	}
//
// For performance, we don't use the generic ASN1 encoder. Rather, we
// precompute a prefix of the digest value that makes a valid ASN1 DER string
// with the correct contents.
var hashPrefixes = map[crypto.Hash][]byte{
	crypto.MD5:       {0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x02, 0x05, 0x05, 0x00, 0x04, 0x10},
	crypto.SHA1:      {0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a, 0x05, 0x00, 0x04, 0x14},
	crypto.SHA224:    {0x30, 0x2d, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x04, 0x05, 0x00, 0x04, 0x1c},
	crypto.SHA256:    {0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20},
	crypto.SHA384:    {0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30},
	crypto.SHA512:    {0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40},
	crypto.MD5SHA1:   {}, // A special TLS case which doesn't use an ASN1 prefix.
	crypto.RIPEMD160: {0x30, 0x20, 0x30, 0x08, 0x06, 0x06, 0x28, 0xcf, 0x06, 0x03, 0x00, 0x31, 0x04, 0x14},
}

// EncodePKCS1v15 returns the EMSA-PKCS1-v1_5 encoding of hashed, ModulusLen bytes long. Note that hashed must
// be the result of hashing the input message using the given hash function. If hash is zero, hashed is encoded
// directly.
//
// The encoding starts 0x00 0x01, so it is smaller than any full-width party modulus and can be loaded as the
// message on both sides
func EncodePKCS1v15(hash crypto.Hash, hashed []byte) ([]byte, error) {
	hashLen, prefix, err := pkcs1v15HashInfo(hash, len(hashed))
	if err != nil {
		return nil, err
	}

	tLen := len(prefix) + hashLen
	k := ModulusLen
	if k < tLen+11 {
		return nil, rsa.ErrMessageTooLong
	}

	// EM = 0x00 || 0x01 || PS || 0x00 || T
	em := make([]byte, k)
	em[1] = 1
	for i := 2; i < k-tLen-1; i++ {
		em[i] = 0xff
	}
	copy(em[k-tLen:k-hashLen], prefix)
	copy(em[k-hashLen:k], hashed)
	return em, nil
}

func pkcs1v15HashInfo(hash crypto.Hash, inLen int) (hashLen int, prefix []byte, err error) {
	// Special case: crypto.Hash(0) is used to indicate that the data is
	// signed directly.
	if hash == 0 {
		return inLen, nil, nil
	}

	hashLen = hash.Size()
	if inLen != hashLen {
		return 0, nil, errors.New("input must be hashed message")
	}
	prefix, ok := hashPrefixes[hash]
	if !ok {
		return 0, nil, errors.New("unsupported hash function")
	}
	return
}

// Verify checks that sig^65537 ≡ message (mod composite). The composite modulus and signature are CompositeLen
// bytes; message may be any length up to that
func Verify(composite []byte, message []byte, sig []byte) error {
	n, err := bignum.UintFromBytes(composite, CompositeLen)
	if err != nil {
		return errors.Wrap(err, "malformed composite modulus")
	} else if !n.IsOdd() {
		return errors.New("malformed composite modulus: even")
	}
	s, err := bignum.UintFromBytes(sig, CompositeLen)
	if err != nil || s.Cmp(n) >= 0 {
		return rsa.ErrVerification
	}

	e := bignum.NewUint(CompositeLen).SetUint64(PublicExponent)
	m := bignum.NewUint(CompositeLen).ModExp(s, e, n)

	expected, err := bignum.UintFromBytes(message, CompositeLen)
	if err != nil {
		return rsa.ErrVerification
	}
	if subtle.ConstantTimeCompare(m.Bytes(), expected.Bytes()) != 1 {
		return rsa.ErrVerification
	}
	return nil
}

// VerifyPKCS1v15 verifies a composite signature over hashed, as produced by co-signing the output of EncodePKCS1v15
func VerifyPKCS1v15(composite []byte, hash crypto.Hash, hashed []byte, sig []byte) error {
	em, err := EncodePKCS1v15(hash, hashed)
	if err != nil {
		return err
	}
	return Verify(composite, em, sig)
}
