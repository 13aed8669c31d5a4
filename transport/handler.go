package transport

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bastionzero/splitsign"
)

// A Handler executes commands against one party, one at a time
type Handler interface {
	Invoke(cmd Command) Response

	// InvokeBytes decodes a command, invokes it and encodes the response. A command that cannot be decoded gets an
	// InvalidRequest response
	InvokeBytes(data []byte) []byte
}

type operation func(cmd Command) ([]byte, error)

type dispatcher struct {
	mu  sync.Mutex
	log zerolog.Logger
	ops map[Op]operation
}

func newDispatcher(log zerolog.Logger, party string, ops map[Op]operation) *dispatcher {
	return &dispatcher{
		log: log.With().Str("handler", party).Logger(),
		ops: ops,
	}
}

func (d *dispatcher) Invoke(cmd Command) Response {
	op, ok := d.ops[cmd.Op]
	if !ok {
		d.log.Debug().Stringer("op", cmd.Op).Msg("unknown operation")
		return respond(nil, errors.Wrapf(ErrUnknownOperation, "%s", cmd.Op))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	payload, err := op(cmd)
	resp := respond(payload, err)
	if err != nil {
		d.log.Debug().Err(err).Stringer("op", cmd.Op).Uint16("status", uint16(resp.Status)).Msg("command failed")
	}
	return resp
}

func (d *dispatcher) InvokeBytes(data []byte) []byte {
	resp := Response{Status: StatusInvalidRequest}
	if cmd, err := UnmarshalCommand(data); err == nil {
		resp = d.Invoke(cmd)
	}

	out, err := MarshalResponse(resp)
	if err != nil {
		panic(err)
	}
	return out
}

// none returns an operation without arguments or output
func none(f func() error) operation {
	return func(Command) ([]byte, error) {
		return nil, f()
	}
}

func reset(f func()) operation {
	return func(Command) ([]byte, error) {
		f()
		return nil, nil
	}
}

// load returns an operation that loads a selector and payload into a segmented field
func load(f func(splitsign.Selector, []byte) error) operation {
	return func(cmd Command) ([]byte, error) {
		sel, err := splitsign.ParseSelector(cmd.Selector)
		if err != nil {
			return nil, err
		}
		return nil, f(sel, cmd.Payload)
	}
}

// loadKey returns an operation that loads a key part, addressed by the command target
func loadKey(f func(splitsign.KeyPart, splitsign.Selector, []byte) error) operation {
	return func(cmd Command) ([]byte, error) {
		part, err := splitsign.ParseKeyPart(cmd.Target)
		if err != nil {
			return nil, err
		}
		return load(func(sel splitsign.Selector, payload []byte) error {
			return f(part, sel, payload)
		})(cmd)
	}
}

// serve returns an operation that reads a segmented value
func serve(f func(splitsign.Selector) ([]byte, error)) operation {
	return func(cmd Command) ([]byte, error) {
		sel, err := splitsign.ParseSelector(cmd.Selector)
		if err != nil {
			return nil, err
		}
		return f(sel)
	}
}

// NewClientHandler dispatches commands to a key-generating client
func NewClientHandler(c *splitsign.Client, log zerolog.Logger) Handler {
	return newDispatcher(log, "client", map[Op]operation{
		OpGenerateKeys: none(c.GenerateKeys),
		OpGetKeyShare: func(cmd Command) ([]byte, error) {
			part, err := splitsign.ParseKeyPart(cmd.Target)
			if err != nil {
				return nil, err
			}
			return c.GetKeyShare(part)
		},
		OpSetMessage: load(c.SetMessage),
		OpSign: func(Command) ([]byte, error) {
			return c.Sign()
		},
		OpReset: reset(c.Reset),
	})
}

// NewProvisionedHandler dispatches commands to a client that is loaded with an existing key share
func NewProvisionedHandler(p *splitsign.ProvisionedClient, log zerolog.Logger) Handler {
	return newDispatcher(log, "provisioned client", map[Op]operation{
		OpSetKeys:    loadKey(p.SetKeys),
		OpSetMessage: load(p.SetMessage),
		OpSign: func(Command) ([]byte, error) {
			return p.Sign()
		},
		OpReset: reset(p.Reset),
	})
}

// NewServerHandler dispatches commands to a server
func NewServerHandler(s *splitsign.Server, log zerolog.Logger) Handler {
	return newDispatcher(log, "server", map[Op]operation{
		OpSetClientKeyShare: loadKey(s.SetClientKeyShare),
		OpGetPublicModulus:  serve(s.GetPublicModulus),
		OpSetClientSignature: func(cmd Command) ([]byte, error) {
			part, err := splitsign.ParseSignaturePart(cmd.Target)
			if err != nil {
				return nil, err
			}
			return load(func(sel splitsign.Selector, payload []byte) error {
				return s.SetClientSignature(part, sel, payload)
			})(cmd)
		},
		OpComputeSignature:  none(s.ComputeSignature),
		OpGetFinalSignature: serve(s.GetFinalSignature),
		OpReset:             reset(s.Reset),
	})
}
