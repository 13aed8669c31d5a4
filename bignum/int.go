package bignum

import (
	"fmt"
	"math/big"
)

// Sign is the sign flag carried by an Int
type Sign uint8

const (
	NonNegative Sign = iota
	Negative
)

func (s Sign) flip() Sign {
	if s == Negative {
		return NonNegative
	}
	return Negative
}

// Int is a fixed-width signed integer: an unsigned magnitude plus a sign flag.
// A zero magnitude always carries NonNegative, so there is no signed zero
type Int struct {
	Mag  *Uint
	Sign Sign
}

// NewInt returns a zero-valued Int whose magnitude is length bytes wide
func NewInt(length int) *Int {
	return &Int{Mag: NewUint(length)}
}

// IntFromUint returns a non-negative Int holding a copy of u at u's width
func IntFromUint(u *Uint) *Int {
	return &Int{Mag: u.Clone()}
}

func (x *Int) Len() int {
	return x.Mag.Len()
}

func (x *Int) IsZero() bool {
	return x.Mag.IsZero()
}

func (x *Int) IsNegative() bool {
	return x.Sign == Negative
}

func (x *Int) normalize() {
	if x.Mag.IsZero() {
		x.Sign = NonNegative
	}
}

// Set copies y into x; y's magnitude must fit x's width
func (x *Int) Set(y *Int) *Int {
	x.Mag.Set(y.Mag)
	x.Sign = y.Sign
	x.normalize()
	return x
}

func (x *Int) SetInt64(v int64) *Int {
	x.Sign = NonNegative
	u := uint64(v)
	if v < 0 {
		x.Sign = Negative
		u = uint64(-v)
	}
	x.Mag.SetUint64(u)
	x.normalize()
	return x
}

// Neg sets x = -y
func (x *Int) Neg(y *Int) *Int {
	x.Set(y)
	x.Sign = x.Sign.flip()
	x.normalize()
	return x
}

func (x *Int) Clone() *Int {
	return &Int{Mag: x.Mag.Clone(), Sign: x.Sign}
}

// Zero wipes the magnitude and clears the sign
func (x *Int) Zero() {
	x.Mag.Zero()
	x.Sign = NonNegative
}

func (x *Int) Big() *big.Int {
	v := x.Mag.Big()
	if x.Sign == Negative {
		v.Neg(v)
	}
	return v
}

func (x *Int) String() string {
	if x.Sign == Negative {
		return fmt.Sprintf("-%s", x.Mag)
	}
	return x.Mag.String()
}

// Subtract sets z = a - b and returns z. The sign follows from the operand signs and their relative magnitude,
// so Subtract(a, b) == -Subtract(b, a) holds exactly. z may alias a or b and must be one byte wider than the
// wider operand whenever the signs differ
func Subtract(z, a, b *Int) *Int {
	aSign := a.Sign
	switch {
	case a.Sign != b.Sign:
		// a - (-b) = a + b, and -a - b = -(a + b)
		z.Mag.Add(a.Mag, b.Mag)
		z.Sign = aSign
	case a.Mag.Cmp(b.Mag) >= 0:
		z.Mag.Sub(a.Mag, b.Mag)
		z.Sign = aSign
	default:
		z.Mag.Sub(b.Mag, a.Mag)
		z.Sign = aSign.flip()
	}
	z.normalize()
	return z
}

// Add sets z = a + b and returns z, under the same width rules as Subtract
func Add(z, a, b *Int) *Int {
	aSign, bSign := a.Sign, b.Sign
	switch {
	case a.Sign == b.Sign:
		z.Mag.Add(a.Mag, b.Mag)
		z.Sign = aSign
	case a.Mag.Cmp(b.Mag) >= 0:
		z.Mag.Sub(a.Mag, b.Mag)
		z.Sign = aSign
	default:
		z.Mag.Sub(b.Mag, a.Mag)
		z.Sign = bSign
	}
	z.normalize()
	return z
}

// Multiply sets z = a · b and returns z. The product is non-negative iff the operand signs are equal or it is zero.
// z must not alias a or b
func Multiply(z, a, b *Int) *Int {
	sign := Negative
	if a.Sign == b.Sign {
		sign = NonNegative
	}
	z.Mag.Mul(a.Mag, b.Mag)
	z.Sign = sign
	z.normalize()
	return z
}

// RemainderDivide performs truncating division of a by d, setting the quotient q and remainder r.
//
// The quotient is negative iff the operand signs differ. The remainder is non-negative iff d's sign equals the
// quotient's sign, or the remainder is zero. This matches "remainder follows dividend" except when the quotient
// is zero: -3 / 5 yields q = 0, r = +3. Euclid and the modular inverse only divide non-negative values, where the
// two conventions agree; reduction of possibly-negative values goes through Reduce instead.
func RemainderDivide(r, q, a, d *Int) error {
	aSign, dSign := a.Sign, d.Sign
	if err := DivMod(q.Mag, r.Mag, a.Mag, d.Mag); err != nil {
		return err
	}

	q.Sign = NonNegative
	if aSign != dSign {
		q.Sign = Negative
	}
	q.normalize()

	r.Sign = Negative
	if dSign == q.Sign {
		r.Sign = NonNegative
	}
	r.normalize()
	return nil
}

// Reduce sets z to the canonical residue of a modulo the positive modulus m, in [0, m).
// z must not alias a's magnitude or m
func Reduce(z *Uint, a *Int, m *Uint) *Uint {
	z.Mod(a.Mag, m)
	if a.Sign == Negative && !z.IsZero() {
		z.Sub(m, z)
	}
	return z
}
