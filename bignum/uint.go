/*
Package bignum implements the fixed-width integer arithmetic used by the co-signing protocol.

Every number carries a byte width that is chosen when it is constructed and never changes afterwards.
Results are written into caller-provided outputs, so a product must be computed into a buffer that was
already sized for the worst case (len(a)+len(b), which the protocol rounds up to 2L+1).

Writing a value into an output that is too narrow is a programming error and panics; it is never the
result of bad input, because inputs are validated against their widths before any arithmetic runs.
*/
package bignum

import (
	"bytes"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

var (
	ErrDivisionByZero = errors.New("bignum: division by zero")
	ErrNotInvertible  = errors.New("bignum: value is not invertible")
	ErrTooWide        = errors.New("bignum: value does not fit the width")
	ErrEvenModulus    = errors.New("bignum: exponentiation needs an odd modulus")
)

// Uint is an unsigned integer stored as a big-endian magnitude of fixed byte length
type Uint struct {
	b []byte
}

// NewUint returns a zero-valued Uint that is length bytes wide
func NewUint(length int) *Uint {
	if length <= 0 {
		panic(fmt.Sprintf("bignum: invalid width %d", length))
	}
	return &Uint{b: make([]byte, length)}
}

// UintFromBytes returns a Uint of the given width holding the big-endian value b.
// Leading zero bytes in b are ignored; any other excess is an error
func UintFromBytes(b []byte, length int) (*Uint, error) {
	x := NewUint(length)
	if err := x.SetBytes(b); err != nil {
		return nil, err
	}
	return x, nil
}

// UintFromBig converts a non-negative big.Int into a Uint of the given width
func UintFromBig(v *big.Int, length int) (*Uint, error) {
	if v.Sign() < 0 {
		return nil, errors.New("bignum: negative value")
	}
	if (v.BitLen()+7)/8 > length {
		return nil, errors.Wrapf(ErrTooWide, "%d-bit value into %d bytes", v.BitLen(), length)
	}
	x := NewUint(length)
	v.FillBytes(x.b)
	return x, nil
}

// Len returns the fixed width of x in bytes
func (x *Uint) Len() int {
	return len(x.b)
}

// index of the most significant non-zero byte, or len(x.b) if x is zero
func (x *Uint) lead() int {
	for i, v := range x.b {
		if v != 0 {
			return i
		}
	}
	return len(x.b)
}

// ByteLen returns the number of significant bytes in x
func (x *Uint) ByteLen() int {
	return len(x.b) - x.lead()
}

// BitLen returns the number of significant bits in x
func (x *Uint) BitLen() int {
	i := x.lead()
	if i == len(x.b) {
		return 0
	}
	return (len(x.b)-i-1)*8 + bits.Len8(x.b[i])
}

func (x *Uint) IsZero() bool {
	return x.lead() == len(x.b)
}

func (x *Uint) IsOne() bool {
	n := len(x.b)
	return x.lead() == n-1 && x.b[n-1] == 1
}

// IsOdd reports whether the least significant bit of x is set
func (x *Uint) IsOdd() bool {
	return len(x.b) > 0 && x.b[len(x.b)-1]&1 == 1
}

// TopBitSet reports whether x occupies its full width, i.e. the most significant bit of its first byte is set
func (x *Uint) TopBitSet() bool {
	return x.b[0]&0x80 != 0
}

// SetBytes sets x to the big-endian value b, zero-padding on the left
func (x *Uint) SetBytes(b []byte) error {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	if len(b) > len(x.b) {
		return errors.Wrapf(ErrTooWide, "%d significant bytes into %d", len(b), len(x.b))
	}
	off := len(x.b) - len(b)
	clear(x.b[:off])
	copy(x.b[off:], b)
	return nil
}

// SetUint64 sets x to v
func (x *Uint) SetUint64(v uint64) *Uint {
	for i := len(x.b) - 1; i >= 0; i-- {
		x.b[i] = byte(v)
		v >>= 8
	}
	if v != 0 {
		panic(ErrTooWide)
	}
	return x
}

// Set copies the value of y into x. The widths may differ, but the value of y must fit into x
func (x *Uint) Set(y *Uint) *Uint {
	if x == y {
		return x
	}
	if err := x.SetBytes(y.b); err != nil {
		panic(err)
	}
	return x
}

// Bytes returns a copy of the full-width big-endian encoding of x
func (x *Uint) Bytes() []byte {
	return append([]byte(nil), x.b...)
}

// FillBytes writes x into buf, right-aligned and zero-padded, and returns buf
func (x *Uint) FillBytes(buf []byte) []byte {
	n := x.ByteLen()
	if n > len(buf) {
		panic(ErrTooWide)
	}
	clear(buf[:len(buf)-n])
	copy(buf[len(buf)-n:], x.b[len(x.b)-n:])
	return buf
}

func (x *Uint) Clone() *Uint {
	return &Uint{b: x.Bytes()}
}

// Resize returns a copy of x with the given width
func (x *Uint) Resize(length int) *Uint {
	return NewUint(length).Set(x)
}

// Zero wipes x in place
func (x *Uint) Zero() {
	clear(x.b)
}

func (x *Uint) Big() *big.Int {
	return new(big.Int).SetBytes(x.b)
}

func (x *Uint) String() string {
	return fmt.Sprintf("%x", x.b)
}

// Cmp compares the values of x and y, regardless of their widths, and returns -1, 0 or +1
func (x *Uint) Cmp(y *Uint) int {
	xl, yl := x.ByteLen(), y.ByteLen()
	switch {
	case xl > yl:
		return 1
	case xl < yl:
		return -1
	}
	return bytes.Compare(x.b[len(x.b)-xl:], y.b[len(y.b)-yl:])
}

// byteAt returns the i-th least significant byte of x, or 0 beyond its width
func (x *Uint) byteAt(i int) byte {
	if i < len(x.b) {
		return x.b[len(x.b)-1-i]
	}
	return 0
}

// bit returns the i-th least significant bit of x
func (x *Uint) bit(i int) byte {
	return (x.byteAt(i/8) >> (i % 8)) & 1
}

func (x *Uint) setBit(i int) {
	x.b[len(x.b)-1-i/8] |= 1 << (i % 8)
}

func (z *Uint) mustHold(operands ...*Uint) {
	for _, x := range operands {
		if x.ByteLen() > len(z.b) {
			panic(ErrTooWide)
		}
	}
}

// Add sets z = a + b and returns z. Operands are read byte-by-byte ahead of the write, so z may alias either
func (z *Uint) Add(a, b *Uint) *Uint {
	z.mustHold(a, b)
	n := len(z.b)
	var carry uint16
	for i := 0; i < n; i++ {
		s := uint16(a.byteAt(i)) + uint16(b.byteAt(i)) + carry
		z.b[n-1-i] = byte(s)
		carry = s >> 8
	}
	if carry != 0 {
		panic(ErrTooWide)
	}
	return z
}

// Sub sets z = a - b (mod 2^(8·len(z))) and reports whether a borrow left the top byte, i.e. whether a < b.
// z may alias either operand
func (z *Uint) Sub(a, b *Uint) (borrow bool) {
	z.mustHold(a, b)
	n := len(z.b)
	var br int16
	for i := 0; i < n; i++ {
		d := int16(a.byteAt(i)) - int16(b.byteAt(i)) - br
		br = 0
		if d < 0 {
			d += 256
			br = 1
		}
		z.b[n-1-i] = byte(d)
	}
	return br != 0
}

// Mul sets z = a · b by schoolbook multiplication and returns z.
// z must not alias a or b, and must be at least a.ByteLen()+b.ByteLen() bytes wide
func (z *Uint) Mul(a, b *Uint) *Uint {
	if z == a || z == b {
		panic("bignum: Mul output aliases an operand")
	}
	al, bl := a.ByteLen(), b.ByteLen()
	n := len(z.b)
	if al+bl > n {
		panic(ErrTooWide)
	}
	clear(z.b)
	for i := 0; i < al; i++ {
		ai := uint32(a.byteAt(i))
		if ai == 0 {
			continue
		}
		var carry uint32
		for j := 0; j < bl; j++ {
			k := n - 1 - i - j
			t := ai*uint32(b.byteAt(j)) + uint32(z.b[k]) + carry
			z.b[k] = byte(t)
			carry = t >> 8
		}
		for k := n - 1 - i - bl; carry != 0; k-- {
			t := uint32(z.b[k]) + carry
			z.b[k] = byte(t)
			carry = t >> 8
		}
	}
	return z
}

// shiftRight sets z = a >> s; the result must fit z
func (z *Uint) shiftRight(a *Uint, s int) {
	byteShift, bitShift := s/8, uint(s%8)
	n := len(z.b)
	for i := 0; i < n; i++ {
		lo := a.byteAt(i+byteShift) >> bitShift
		hi := a.byteAt(i+byteShift+1) << (8 - bitShift)
		z.b[n-1-i] = lo | hi
	}
}

// shiftLeft1 shifts z left by one bit, shifting in bit, and returns the bit shifted out of the top
func (z *Uint) shiftLeft1(bit byte) byte {
	carry := bit
	for k := len(z.b) - 1; k >= 0; k-- {
		v := z.b[k]
		z.b[k] = v<<1 | carry
		carry = v >> 7
	}
	return carry
}

// DivMod sets q = a / d and r = a mod d by binary long division. q may be nil when only the remainder is wanted.
//
// r must be at least d.ByteLen() bytes wide and q wide enough for the quotient. Neither may alias a or d.
// The running remainder lives in r itself, so no scratch space is allocated
func DivMod(q, r, a, d *Uint) error {
	if d.IsZero() {
		return ErrDivisionByZero
	}
	if r == a || r == d || (q != nil && (q == a || q == d || q == r)) {
		panic("bignum: DivMod output aliases an operand")
	}
	if d.ByteLen() > len(r.b) {
		panic(ErrTooWide)
	}
	if q != nil {
		clear(q.b)
	}

	if a.Cmp(d) < 0 {
		r.Set(a)
		return nil
	}

	// seed the remainder with the top dbits-1 bits of a, which are necessarily smaller than d
	shift := a.BitLen() - (d.BitLen() - 1)
	if q != nil && shift > len(q.b)*8 {
		panic(ErrTooWide)
	}
	r.shiftRight(a, shift)

	for i := shift - 1; i >= 0; i-- {
		// the remainder is always < 2d here, so a single conditional subtraction is enough.
		// A bit carried out of the top means the true value exceeds the width, and the
		// wrapped subtraction still yields the right residue
		out := r.shiftLeft1(a.bit(i))
		if out != 0 || r.Cmp(d) >= 0 {
			r.Sub(r, d)
			if q != nil {
				q.setBit(i)
			}
		}
	}
	return nil
}

// Mod sets z = a mod m and returns z. z must not alias a or m. Panics on a zero modulus
func (z *Uint) Mod(a, m *Uint) *Uint {
	if err := DivMod(nil, z, a, m); err != nil {
		panic(err)
	}
	return z
}

// ModMul sets z = a · b mod m, computing the product into a 2L+1 scratch buffer that is wiped afterwards
func (z *Uint) ModMul(a, b, m *Uint) *Uint {
	product := NewUint(len(a.b) + len(b.b) + 1)
	product.Mul(a, b)
	z.Mod(product, m)
	product.Zero()
	return z
}

// ModExp sets z = base^exp mod m and returns z. Panics unless m is odd.
//
// Exponentiation is delegated to saferith, whose Nat is also a fixed-capacity number and whose
// Montgomery ladder runs in time independent of the exponent's value
func (z *Uint) ModExp(base, exp, m *Uint) *Uint {
	if m.IsZero() {
		panic(ErrDivisionByZero)
	}
	if !m.IsOdd() {
		panic(ErrEvenModulus)
	}
	modulus := saferith.ModulusFromBytes(m.b)
	x := new(saferith.Nat).SetBytes(base.b)
	reduced := new(saferith.Nat).Mod(x, modulus)
	e := new(saferith.Nat).SetBytes(exp.b)
	result := new(saferith.Nat).Exp(reduced, e, modulus)
	if err := z.SetBytes(result.Bytes()); err != nil {
		panic(err)
	}
	return z
}
