package bignum

import (
	"github.com/pkg/errors"
)

// Coprime reports whether gcd(a, b) = 1, by repeating (a, b) <- (b, a mod b) until b is zero.
// The arguments are copied, never modified
func Coprime(a, b *Int) bool {
	w := max(a.Len(), b.Len())
	x := NewInt(w).Set(a)
	y := NewInt(w).Set(b)
	r, q := NewInt(w), NewInt(w)
	defer func() {
		x.Zero()
		y.Zero()
		r.Zero()
		q.Zero()
	}()

	for !y.IsZero() {
		if err := RemainderDivide(r, q, x, y); err != nil {
			// unreachable: y is non-zero
			panic(err)
		}
		x, y, r = y, r, x
	}
	return x.Mag.IsOne()
}

// ModInverse returns x in [0, n) such that a·x ≡ 1 (mod n), using the iterative extended Euclidean algorithm.
//
// The remainders run through (oldA, newA) and their coefficients for a through (oldB, newB); every coefficient
// is bounded by n in magnitude, so it stays within one byte more than the operand width.
// A negative a is first reduced into [0, n)
func ModInverse(a, n *Int) (*Int, error) {
	if n.IsZero() || n.IsNegative() {
		return nil, errors.Wrap(ErrNotInvertible, "modulus must be positive")
	}

	w := max(a.Len(), n.Len())
	oldA, newA := NewInt(w), NewInt(w).Set(n)
	if a.IsNegative() {
		Reduce(oldA.Mag, a, n.Mag)
	} else {
		oldA.Set(a)
	}
	oldB, newB := NewInt(w+1).SetInt64(1), NewInt(w+1)
	q, r := NewInt(w), NewInt(w)
	product := NewInt(2*w + 2)
	diff := NewInt(2*w + 3)
	defer func() {
		for _, v := range []*Int{oldA, newA, oldB, newB, q, r, product, diff} {
			v.Zero()
		}
	}()

	for !newA.IsZero() {
		if err := RemainderDivide(r, q, oldA, newA); err != nil {
			panic(err)
		}
		oldA, newA, r = newA, r, oldA

		// (oldB, newB) <- (newB, oldB - q·newB)
		Multiply(product, q, newB)
		Subtract(diff, oldB, product)
		oldB, newB = newB, oldB
		newB.Set(diff)
	}

	if !oldA.Mag.IsOne() {
		return nil, errors.Wrapf(ErrNotInvertible, "gcd is %s", oldA)
	}

	if oldB.IsNegative() {
		Add(oldB, oldB, n)
	}
	inverse := NewInt(n.Len())
	inverse.Set(oldB)
	return inverse, nil
}
