package transport

import (
	"github.com/pkg/errors"

	"github.com/bastionzero/splitsign"
)

// A RoundTripper sends one encoded command and returns the encoded response
type RoundTripper func(request []byte) ([]byte, error)

// Loopback delivers commands straight to a local handler
func Loopback(h Handler) RoundTripper {
	return func(request []byte) ([]byte, error) {
		return h.InvokeBytes(request), nil
	}
}

// Call sends cmd and returns the response payload, or the error matching its status
func Call(rt RoundTripper, cmd Command) ([]byte, error) {
	request, err := MarshalCommand(cmd)
	if err != nil {
		return nil, err
	}
	data, err := rt(request)
	if err != nil {
		return nil, errors.Wrapf(err, "%s failed in transit", cmd.Op)
	}
	resp, err := UnmarshalResponse(data)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, errors.WithMessagef(err, "%s", cmd.Op)
	}
	return resp.Payload, nil
}

// Put loads value into the target field of op, whole or as two halves
func Put(rt RoundTripper, op Op, target byte, value []byte, halves bool) error {
	if !halves {
		_, err := Call(rt, Command{Op: op, Target: target, Selector: byte(splitsign.Single), Payload: value})
		return err
	}

	mid := len(value) / 2
	segments := []struct {
		sel     splitsign.Selector
		payload []byte
	}{
		{splitsign.Half0, value[:mid]},
		{splitsign.Half1, value[mid:]},
	}
	for _, seg := range segments {
		if _, err := Call(rt, Command{Op: op, Target: target, Selector: byte(seg.sel), Payload: seg.payload}); err != nil {
			return err
		}
	}
	return nil
}

// Get reads the value served by op, whole or as two halves
func Get(rt RoundTripper, op Op, halves bool) ([]byte, error) {
	if !halves {
		return Call(rt, Command{Op: op, Selector: byte(splitsign.Single)})
	}

	lo, err := Call(rt, Command{Op: op, Selector: byte(splitsign.Half0)})
	if err != nil {
		return nil, err
	}
	hi, err := Call(rt, Command{Op: op, Selector: byte(splitsign.Half1)})
	if err != nil {
		return nil, err
	}
	return append(lo, hi...), nil
}
