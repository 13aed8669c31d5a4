package bignum

import (
	"fmt"
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Uint", func() {

	Context("Construction", func() {
		It("Left-pads shorter inputs to the fixed width", func() {
			x, err := UintFromBytes([]byte{0x01, 0x02}, 4)
			Expect(err).To(BeNil())
			Expect(x.Bytes()).To(Equal([]byte{0x00, 0x00, 0x01, 0x02}))
			Expect(x.Len()).To(Equal(4))
			Expect(x.ByteLen()).To(Equal(2))
			Expect(x.BitLen()).To(Equal(9))
		})

		It("Ignores leading zeros but rejects significant excess", func() {
			_, err := UintFromBytes([]byte{0x00, 0x00, 0x7f}, 1)
			Expect(err).To(BeNil())

			_, err = UintFromBytes([]byte{0x01, 0x00}, 1)
			Expect(err).To(MatchError(ErrTooWide))
		})

		It("Never changes width when a narrower value is set", func() {
			x := NewUint(8).SetUint64(0xffffffff)
			x.Set(NewUint(2).SetUint64(3))
			Expect(x.Len()).To(Equal(8))
			Expect(x.Big().Int64()).To(Equal(int64(3)))
		})

		It("Reports whether the top bit of the full width is set", func() {
			Expect(NewUint(2).SetUint64(0x8000).TopBitSet()).To(BeTrue())
			Expect(NewUint(2).SetUint64(0x7fff).TopBitSet()).To(BeFalse())
			Expect(NewUint(3).SetUint64(0x8000).TopBitSet()).To(BeFalse())
		})

		It("Wipes itself", func() {
			x := randomUint(32, 32)
			x.Zero()
			Expect(x.IsZero()).To(BeTrue())
			Expect(x.Bytes()).To(Equal(make([]byte, 32)))
		})
	})

	Context("Comparison", func() {
		It("Compares values regardless of width", func() {
			a := NewUint(4).SetUint64(300)
			b := NewUint(64).SetUint64(300)
			c := NewUint(2).SetUint64(299)
			Expect(a.Cmp(b)).To(Equal(0))
			Expect(a.Cmp(c)).To(Equal(1))
			Expect(c.Cmp(b)).To(Equal(-1))
		})
	})

	Context("Addition and subtraction", func() {
		It("Agrees with math/big", func() {
			for i := 0; i < 32; i++ {
				a := randomUint(256, 257)
				b := randomUint(200, 256)
				sum := NewUint(257).Add(a, b)
				Expect(sum.Big().Cmp(new(big.Int).Add(a.Big(), b.Big()))).To(BeZero())

				diff := NewUint(257)
				Expect(diff.Sub(sum, b)).To(BeFalse())
				Expect(diff.Cmp(a)).To(Equal(0))
			}
		})

		It("Propagates a borrow through every byte", func() {
			a, _ := UintFromBytes([]byte{0x01, 0x00, 0x00, 0x00}, 4)
			b := NewUint(4).SetUint64(1)
			z := NewUint(4)
			Expect(z.Sub(a, b)).To(BeFalse())
			Expect(z.Bytes()).To(Equal([]byte{0x00, 0xff, 0xff, 0xff}))
		})

		It("Reports a borrow when the subtrahend is larger", func() {
			z := NewUint(2)
			Expect(z.Sub(NewUint(2).SetUint64(1), NewUint(2).SetUint64(2))).To(BeTrue())
			Expect(z.Bytes()).To(Equal([]byte{0xff, 0xff}))
		})

		It("Allows the output to alias an operand", func() {
			a := NewUint(4).SetUint64(1000)
			a.Add(a, a)
			Expect(a.Big().Int64()).To(Equal(int64(2000)))
			a.Sub(a, NewUint(2).SetUint64(1))
			Expect(a.Big().Int64()).To(Equal(int64(1999)))
		})

		It("Panics instead of silently overflowing", func() {
			full := NewUint(1).SetUint64(0xff)
			Expect(func() { NewUint(1).Add(full, full) }).To(Panic())
		})
	})

	Context("Multiplication", func() {
		It("Fits a full-width product into 2L+1 bytes and agrees with math/big", func() {
			for i := 0; i < 16; i++ {
				a := randomUint(256, 256)
				b := randomUint(256, 256)
				product := NewUint(513).Mul(a, b)
				Expect(product.Big().Cmp(new(big.Int).Mul(a.Big(), b.Big()))).To(BeZero())
			}
		})

		It("Rejects an output that is too narrow", func() {
			a := randomUint(8, 8)
			Expect(func() { NewUint(15).Mul(a, a) }).To(Panic())
		})

		It("Rejects an output aliasing an operand", func() {
			a := randomUint(4, 16)
			Expect(func() { a.Mul(a, a) }).To(Panic())
		})
	})

	Context("Division", func() {
		It("Produces the quotient and remainder of math/big", func() {
			for _, sizes := range [][2]int{{513, 256}, {256, 256}, {256, 255}, {64, 1}, {300, 17}} {
				a := randomUint(sizes[0], sizes[0])
				d := randomUint(sizes[1], sizes[1])
				q := NewUint(sizes[0])
				r := NewUint(sizes[1])
				Expect(DivMod(q, r, a, d)).To(Succeed())

				expQ, expR := new(big.Int).QuoRem(a.Big(), d.Big(), new(big.Int))
				Expect(q.Big().Cmp(expQ)).To(BeZero(), fmt.Sprintf("quotient of %d by %d bytes", sizes[0], sizes[1]))
				Expect(r.Big().Cmp(expR)).To(BeZero(), fmt.Sprintf("remainder of %d by %d bytes", sizes[0], sizes[1]))
			}
		})

		It("Handles a remainder that fills its whole width", func() {
			d, _ := UintFromBytes([]byte{0xff, 0xff, 0xff, 0xfd}, 4)
			a := randomUint(64, 64)
			r := NewUint(4)
			Expect(DivMod(nil, r, a, d)).To(Succeed())
			Expect(r.Big().Cmp(new(big.Int).Mod(a.Big(), d.Big()))).To(BeZero())
		})

		It("Returns the dividend when it is smaller than the divisor", func() {
			q, r := NewUint(4), NewUint(4)
			Expect(DivMod(q, r, NewUint(4).SetUint64(7), NewUint(4).SetUint64(11))).To(Succeed())
			Expect(q.IsZero()).To(BeTrue())
			Expect(r.Big().Int64()).To(Equal(int64(7)))
		})

		It("Refuses to divide by zero", func() {
			Expect(DivMod(nil, NewUint(4), NewUint(4).SetUint64(7), NewUint(4))).To(MatchError(ErrDivisionByZero))
		})
	})

	Context("Modular arithmetic", func() {
		m := randomUint(256, 256)
		m.b[255] |= 1

		It("Multiplies modulo m", func() {
			a := NewUint(256).Mod(randomUint(256, 256), m)
			b := NewUint(256).Mod(randomUint(256, 256), m)
			z := NewUint(256).ModMul(a, b, m)
			Expect(congruentModN(z.Big(), new(big.Int).Mul(a.Big(), b.Big()), m.Big())).To(BeTrue())
			Expect(z.Cmp(m)).To(Equal(-1))
		})

		It("Exponentiates modulo m", func() {
			base := randomUint(256, 256)
			exp := randomUint(255, 256)
			z := NewUint(256).ModExp(base, exp, m)
			Expect(z.Big().Cmp(new(big.Int).Exp(base.Big(), exp.Big(), m.Big()))).To(BeZero())
		})

		It("Refuses an even modulus", func() {
			three, five := NewUint(4).SetUint64(3), NewUint(4).SetUint64(5)
			Expect(NewUint(4).ModExp(three, five, NewUint(4).SetUint64(101)).Big().Int64()).To(Equal(int64(41)))
			Expect(func() {
				NewUint(4).ModExp(three, five, NewUint(4).SetUint64(100))
			}).To(PanicWith(ErrEvenModulus))
			Expect(NewUint(4).SetUint64(100).IsOdd()).To(BeFalse())
		})

		It("Satisfies m^a · m^b = m^(a+b)", func() {
			base := randomUint(200, 256)
			a := randomUint(255, 256)
			b := randomUint(100, 256)
			sum := NewUint(257).Add(a, b)

			left := NewUint(256).ModMul(NewUint(256).ModExp(base, a, m), NewUint(256).ModExp(base, b, m), m)
			right := NewUint(256).ModExp(base, sum, m)
			Expect(left.Cmp(right)).To(Equal(0))
		})
	})
})
