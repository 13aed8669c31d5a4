// Package transport carries party operations over a byte channel as single command/response exchanges.
//
// A Command names an operation, an optional target (a key part or signature part), a selector and a payload;
// the Response carries a two-byte status word and a payload. Both are CBOR encoded
package transport

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign"
)

// Op identifies a party operation on the wire
type Op byte

const (
	// client
	OpGenerateKeys Op = 0x10
	OpGetKeyShare  Op = 0x12

	// provisioned client
	OpSetKeys Op = 0x14

	// either client
	OpSetMessage Op = 0x20
	OpSign       Op = 0x22

	// server
	OpSetClientKeyShare  Op = 0x30
	OpGetPublicModulus   Op = 0x32
	OpSetClientSignature Op = 0x34
	OpComputeSignature   Op = 0x36
	OpGetFinalSignature  Op = 0x38

	// every party
	OpReset Op = 0x7F
)

func (o Op) String() string {
	switch o {
	case OpGenerateKeys:
		return "GenerateKeys"
	case OpGetKeyShare:
		return "GetKeyShare"
	case OpSetKeys:
		return "SetKeys"
	case OpSetMessage:
		return "SetMessage"
	case OpSign:
		return "Sign"
	case OpSetClientKeyShare:
		return "SetClientKeyShare"
	case OpGetPublicModulus:
		return "GetPublicModulus"
	case OpSetClientSignature:
		return "SetClientSignature"
	case OpComputeSignature:
		return "ComputeSignature"
	case OpGetFinalSignature:
		return "GetFinalSignature"
	case OpReset:
		return "Reset"
	default:
		return fmt.Sprintf("Op(%#02x)", byte(o))
	}
}

// Status is the two-byte status word of a Response
type Status uint16

const (
	StatusOK                Status = 0x9000
	StatusInvalidRequest    Status = 0x6A86
	StatusSequenceViolation Status = 0x6985
	StatusAlreadyConsumed   Status = 0x6982
	StatusIntegrityFailure  Status = 0x6984
	StatusUnknownOperation  Status = 0x6D00
	StatusInternal          Status = 0x6F00
)

var (
	// ErrUnknownOperation is returned for a command whose Op the party does not implement
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInternal is returned for any failure outside the party error taxonomy
	ErrInternal = errors.New("internal error")
)

// StatusOf maps a party error onto its status word
func StatusOf(err error) Status {
	if errors.Is(err, ErrUnknownOperation) {
		return StatusUnknownOperation
	}
	switch splitsign.KindOf(err) {
	case splitsign.KindNone:
		return StatusOK
	case splitsign.KindInvalidRequest:
		return StatusInvalidRequest
	case splitsign.KindSequenceViolation:
		return StatusSequenceViolation
	case splitsign.KindAlreadyConsumed:
		return StatusAlreadyConsumed
	case splitsign.KindIntegrityFailure:
		return StatusIntegrityFailure
	default:
		return StatusInternal
	}
}

// Command is one request to a party
type Command struct {
	Op       Op     `cbor:"1,keyasint"`
	Target   byte   `cbor:"2,keyasint,omitempty"`
	Selector byte   `cbor:"3,keyasint,omitempty"`
	Payload  []byte `cbor:"4,keyasint,omitempty"`
}

// Response is a party's answer to a Command
type Response struct {
	Status  Status `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint,omitempty"`
}

// Err turns a non-OK status back into the matching error
func (r Response) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusInvalidRequest:
		return errors.WithStack(splitsign.ErrInvalidRequest)
	case StatusSequenceViolation:
		return errors.WithStack(splitsign.ErrSequenceViolation)
	case StatusAlreadyConsumed:
		return errors.WithStack(splitsign.ErrAlreadyConsumed)
	case StatusIntegrityFailure:
		return errors.WithStack(splitsign.ErrIntegrityFailure)
	case StatusUnknownOperation:
		return errors.WithStack(ErrUnknownOperation)
	default:
		return errors.Wrapf(ErrInternal, "status %#04x", uint16(r.Status))
	}
}

func respond(payload []byte, err error) Response {
	if err != nil {
		return Response{Status: StatusOf(err)}
	}
	return Response{Status: StatusOK, Payload: payload}
}

func MarshalCommand(cmd Command) ([]byte, error) {
	data, err := cbor.Marshal(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal command")
	}
	return data, nil
}

func UnmarshalCommand(data []byte) (Command, error) {
	var cmd Command
	if err := cbor.Unmarshal(data, &cmd); err != nil {
		return Command{}, errors.Wrap(err, "failed to unmarshal command")
	}
	return cmd, nil
}

func MarshalResponse(resp Response) ([]byte, error) {
	data, err := cbor.Marshal(resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal response")
	}
	return data, nil
}

func UnmarshalResponse(data []byte) (Response, error) {
	var resp Response
	if err := cbor.Unmarshal(data, &resp); err != nil {
		return Response{}, errors.Wrap(err, "failed to unmarshal response")
	}
	return resp, nil
}
