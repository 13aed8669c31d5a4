package splitsign

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/bastionzero/splitsign/bignum"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Provisioned client", func() {

	Context("Splitting an existing key", func() {
		It("Produces shares that add up to the private exponent", func() {
			client, server, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			Expect(client.Role).To(Equal(RoleClient))
			Expect(server.Role).To(Equal(RoleServer))
			Expect(client.Modulus).To(Equal(server.Modulus))
			Expect(bigOf(client.Modulus).Cmp(clientKey.N)).To(BeZero())

			sum := new(big.Int).Add(bigOf(client.Exponent), bigOf(server.Exponent))
			Expect(sum.Cmp(clientKey.D)).To(BeZero())
		})

		It("Draws a new split every time", func() {
			a, _, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			b, _, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			Expect(a.Exponent).NotTo(Equal(b.Exponent))
		})

		It("Redraws a share that exceeds the exponent", func() {
			d, err := bignum.UintFromBytes([]byte{0x10, 0x00}, 3)
			Expect(err).To(BeNil())

			// the first draw is larger than d, the second is not
			random := bytes.NewReader([]byte{0xFF, 0xFF, 0x00, 0x05})
			dClient, dServer, err := splitExponent(random, d)
			Expect(err).To(BeNil())
			Expect(dClient.Big().Int64()).To(Equal(int64(5)))
			Expect(dServer.Big().Int64()).To(Equal(int64(0x1000 - 5)))
		})

		It("Rejects keys it cannot split", func() {
			_, _, err := SplitKey(rand.Reader, nil)
			Expect(err).NotTo(BeNil())

			key := copyKey(clientKey)
			key.E = 3
			_, _, err = SplitKey(rand.Reader, key)
			Expect(err).NotTo(BeNil())
		})

		It("Round-trips key shares through PEM", func() {
			client, _, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())

			encoded, err := client.EncodePEM()
			Expect(err).To(BeNil())
			Expect(encoded).To(HavePrefix("-----BEGIN " + pemType))

			decoded, err := DecodePEM(encoded)
			Expect(err).To(BeNil())
			Expect(decoded).To(Equal(client))

			client.Wipe()
			Expect(client.Exponent).To(Equal(make([]byte, ModulusLen)))
		})

		It("Rejects malformed PEM", func() {
			_, err := DecodePEM("not a key share")
			Expect(err).NotTo(BeNil())

			client, _, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			client.Modulus = client.Modulus[1:]
			encoded, err := client.EncodePEM()
			Expect(err).To(BeNil())
			_, err = DecodePEM(encoded)
			Expect(err).NotTo(BeNil())

			client, _, err = SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			encoded, err = client.EncodePEM()
			Expect(err).To(BeNil())
			_, err = DecodePEM(strings.Replace(encoded, pemType, "RSA PRIVATE KEY", 2))
			Expect(err).NotTo(BeNil())
		})
	})

	Context("Loading keys", func() {
		var p *ProvisionedClient
		var share *KeyShare

		BeforeEach(func() {
			p = NewProvisionedClient()
			var err error
			share, _, err = SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
		})

		It("Requires the exponent before the modulus", func() {
			err := p.SetKeys(KeyModulus, Single, share.Modulus)
			Expect(KindOf(err)).To(Equal(KindSequenceViolation))

			lo, hi := halves(share.Exponent)
			Expect(p.SetKeys(KeyExponent, Half0, lo)).To(Succeed())
			lo, _ = halves(share.Modulus)
			Expect(KindOf(p.SetKeys(KeyModulus, Half0, lo))).To(Equal(KindSequenceViolation))

			Expect(p.SetKeys(KeyExponent, Half1, hi)).To(Succeed())
			Expect(p.SetKeys(KeyModulus, Half0, lo)).To(Succeed())
		})

		It("Loads each key once per lifetime", func() {
			Expect(p.LoadKeyShare(share)).To(Succeed())
			Expect(KindOf(p.SetKeys(KeyExponent, Single, share.Exponent))).To(Equal(KindAlreadyConsumed))
			Expect(KindOf(p.SetKeys(KeyModulus, Single, share.Modulus))).To(Equal(KindAlreadyConsumed))
			Expect(KindOf(p.LoadKeyShare(share))).To(Equal(KindAlreadyConsumed))

			p.Reset()
			Expect(p.LoadKeyShare(share)).To(Succeed())
		})

		It("Only loads client shares", func() {
			_, server, err := SplitKey(rand.Reader, clientKey)
			Expect(err).To(BeNil())
			Expect(KindOf(p.LoadKeyShare(server))).To(Equal(KindInvalidRequest))
			Expect(p.exponent.state).To(Equal(Empty))
		})

		It("Signs with the loaded share and keeps the keys", func() {
			Expect(p.LoadKeyShare(share)).To(Succeed())
			m := testMessage("provisioned")
			expected := new(big.Int).Exp(bigOf(m), bigOf(share.Exponent), clientKey.N)

			for i := 0; i < 2; i++ {
				Expect(p.SetMessage(Single, m)).To(Succeed())
				sig, err := p.Sign()
				Expect(err).To(BeNil())
				Expect(bigOf(sig).Cmp(expected)).To(BeZero())

				_, err = p.Sign()
				Expect(KindOf(err)).To(Equal(KindSequenceViolation))
			}
		})

		It("Rejects an even modulus", func() {
			even := bytes.Clone(share.Modulus)
			even[len(even)-1] &^= 0x01
			Expect(p.SetKeys(KeyExponent, Single, share.Exponent)).To(Succeed())
			Expect(KindOf(p.SetKeys(KeyModulus, Single, even))).To(Equal(KindInvalidRequest))
			Expect(p.modulus.state).To(Equal(Empty))

			lo, hi := halves(even)
			Expect(p.SetKeys(KeyModulus, Half0, lo)).To(Succeed())
			Expect(KindOf(p.SetKeys(KeyModulus, Half1, hi))).To(Equal(KindInvalidRequest))
			Expect(p.modulus.complete()).To(BeFalse())

			_, hi = halves(share.Modulus)
			Expect(p.SetKeys(KeyModulus, Half1, hi)).To(Succeed())
			Expect(p.SetMessage(Single, testMessage("odd again"))).To(Succeed())
			_, err := p.Sign()
			Expect(err).To(BeNil())
		})

		It("Refuses to sign without both keys", func() {
			Expect(p.SetKeys(KeyExponent, Single, share.Exponent)).To(Succeed())
			Expect(p.SetMessage(Single, testMessage("no modulus"))).To(Succeed())
			_, err := p.Sign()
			Expect(KindOf(err)).To(Equal(KindSequenceViolation))
		})
	})
})
