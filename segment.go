package splitsign

import (
	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign/bignum"
)

// Selector says how a segmented value is being transferred: whole, or as one of two ordered halves.
// These three encodings are the only legal ones
type Selector byte

const (
	Single Selector = 0x00
	Half0  Selector = 0x01
	Half1  Selector = 0x02
)

// ParseSelector validates a raw selector byte
func ParseSelector(b byte) (Selector, error) {
	sel := Selector(b)
	if !sel.valid() {
		return 0, errors.Wrapf(ErrInvalidRequest, "unrecognized selector %#02x", b)
	}
	return sel, nil
}

func (s Selector) valid() bool {
	return s == Single || s == Half0 || s == Half1
}

func (s Selector) String() string {
	switch s {
	case Single:
		return "single"
	case Half0:
		return "half 0"
	case Half1:
		return "half 1"
	default:
		return "invalid"
	}
}

// span returns the byte range that s covers within a value of the given width
func (s Selector) span(width int) (offset int, size int) {
	switch s {
	case Half0:
		return 0, width / 2
	case Half1:
		return width / 2, width / 2
	default:
		return 0, width
	}
}

// LoadState tracks how much of a segmented field has arrived
type LoadState uint8

const (
	Empty LoadState = iota
	Half0Loaded
	Half1Loaded
	Complete
)

func (s LoadState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Half0Loaded:
		return "half 0 loaded"
	case Half1Loaded:
		return "half 1 loaded"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// field is a fixed-width value loaded in one shot or by halves.
//
// Loading a half that is already recorded before the field is complete is a sequence violation. Loading into a
// complete field restarts it from empty, unless the field is one-shot, in which case it is rejected for good
// (until cleared)
type field struct {
	name    string
	buf     []byte
	state   LoadState
	oneShot bool
}

func newField(name string, width int, oneShot bool) *field {
	return &field{
		name:    name,
		buf:     make([]byte, width),
		oneShot: oneShot,
	}
}

// load validates everything before it touches the field, so a rejected load leaves it unchanged
func (f *field) load(sel Selector, payload []byte) error {
	if !sel.valid() {
		return errors.Wrapf(ErrInvalidRequest, "%s: unrecognized selector %#02x", f.name, byte(sel))
	}
	offset, size := sel.span(len(f.buf))
	if len(payload) != size {
		return errors.Wrapf(ErrInvalidRequest, "%s: %s must be %d bytes, got %d", f.name, sel, size, len(payload))
	}

	switch {
	case f.state == Complete && f.oneShot:
		return errors.Wrapf(ErrAlreadyConsumed, "%s has already been loaded", f.name)
	case sel == Half0 && f.state == Half0Loaded, sel == Half1 && f.state == Half1Loaded:
		return errors.Wrapf(ErrSequenceViolation, "%s: %s is already loaded", f.name, sel)
	}

	// a complete field starts over, and so does a partial one receiving the whole value
	if f.state == Complete || sel == Single {
		f.clear()
	}

	copy(f.buf[offset:offset+size], payload)

	switch {
	case sel == Single:
		f.state = Complete
	case f.state == Empty && sel == Half0:
		f.state = Half0Loaded
	case f.state == Empty && sel == Half1:
		f.state = Half1Loaded
	default:
		f.state = Complete
	}
	return nil
}

func (f *field) complete() bool {
	return f.state == Complete
}

// value returns a copy of the field's value; the caller owns (and wipes) the copy
func (f *field) value() *bignum.Uint {
	x, err := bignum.UintFromBytes(f.buf, len(f.buf))
	if err != nil {
		// unreachable: the buffer is exactly the width
		panic(err)
	}
	return x
}

// clear wipes the contents and returns the field to empty
func (f *field) clear() {
	clear(f.buf)
	f.state = Empty
}

// source serves a fixed-width value in one shot or by halves, any number of times, remembering which halves have
// been read at least once
type source struct {
	buf  []byte
	read [2]bool
}

func newSource(value *bignum.Uint) *source {
	return &source{buf: value.Bytes()}
}

func (s *source) serve(sel Selector) ([]byte, error) {
	if !sel.valid() {
		return nil, errors.Wrapf(ErrInvalidRequest, "unrecognized selector %#02x", byte(sel))
	}
	offset, size := sel.span(len(s.buf))
	switch sel {
	case Single:
		s.read = [2]bool{true, true}
	case Half0:
		s.read[0] = true
	case Half1:
		s.read[1] = true
	}
	return append([]byte(nil), s.buf[offset:offset+size]...), nil
}

// fullyRead reports whether every half has been read at least once
func (s *source) fullyRead() bool {
	return s != nil && s.read[0] && s.read[1]
}

func (s *source) clear() {
	if s != nil {
		clear(s.buf)
		s.read = [2]bool{}
	}
}
