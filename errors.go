package splitsign

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidRequest means a malformed selector, target or payload. Nothing was changed and the request may be resent
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSequenceViolation means the operation was invoked out of the required order. Nothing was changed
	ErrSequenceViolation = errors.New("operation out of sequence")

	// ErrAlreadyConsumed means a one-shot value was requested or loaded a second time. The value is not re-exposed
	ErrAlreadyConsumed = errors.New("one-shot value already consumed")

	// ErrIntegrityFailure means a verification failed: a signature share that does not verify, moduli that are not
	// coprime, or a malformed modulus. No partial state is kept
	ErrIntegrityFailure = errors.New("integrity check failed")
)

// Kind classifies an error returned by a party
type Kind int

const (
	KindNone Kind = iota
	KindInvalidRequest
	KindSequenceViolation
	KindAlreadyConsumed
	KindIntegrityFailure
	// anything else, such as a failing source of randomness
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidRequest:
		return "invalid request"
	case KindSequenceViolation:
		return "sequence violation"
	case KindAlreadyConsumed:
		return "already consumed"
	case KindIntegrityFailure:
		return "integrity failure"
	default:
		return "internal"
	}
}

// KindOf returns the Kind of err
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrSequenceViolation):
		return KindSequenceViolation
	case errors.Is(err, ErrAlreadyConsumed):
		return KindAlreadyConsumed
	case errors.Is(err, ErrIntegrityFailure):
		return KindIntegrityFailure
	default:
		return KindInternal
	}
}
