package splitsign

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint identifies a public modulus by the first 16 bytes of its blake3 digest, hex-encoded
func Fingerprint(modulus []byte) string {
	sum := blake3.Sum256(modulus)
	return hex.EncodeToString(sum[:16])
}
