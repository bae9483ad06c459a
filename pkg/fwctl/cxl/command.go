package cxl

import (
	"fmt"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
)

// Command owns the paired buffers for one mailbox round trip. The input
// buffer carries the request header and the hardware payload in one
// allocation, the output buffer the response header and response
// payload.
type Command struct {
	opcode Opcode
	scope  fwctl.RPCScope
	opSize int
	in     []byte
	out    []byte
	closed bool
}

// NewCommand sizes and zeroes the buffers for one submission of the
// opcode. Nothing is allocated if the opcode is unknown or the sizes are
// out of range, and a failed construction leaves nothing acquired.
func NewCommand(op Opcode, outPayloadLen int) (*Command, error) {
	scope, err := Scope(op)
	if err != nil {
		return nil, err
	}
	opSize, err := OperationSize(op)
	if err != nil {
		return nil, err
	}
	if outPayloadLen < 0 {
		return nil, fwctl.ErrInvalidArgument
	}

	in, err := fwctl.AcquireBuffer(RequestHdrSize + opSize)
	if err != nil {
		return nil, err
	}
	out, err := fwctl.AcquireBuffer(ResponseHdrSize + outPayloadLen)
	if err != nil {
		fwctl.ReleaseBuffer(in)
		return nil, err
	}

	cmd := &Command{
		opcode: op,
		scope:  scope,
		opSize: opSize,
		in:     in,
		out:    out,
	}
	err = EncodeRequestHdr(cmd.in, op, 0, opSize)
	if err != nil {
		cmd.Close()
		return nil, err
	}
	return cmd, nil
}

func (c *Command) Opcode() Opcode {
	return c.opcode
}

func (c *Command) Scope() fwctl.RPCScope {
	return c.scope
}

// Payload is the hardware request region of the input buffer, zeroed at
// construction.
func (c *Command) Payload() []byte {
	return c.in[RequestHdrSize:]
}

// Submit runs the command over the transport and returns the response
// payload, clamped to the size the device reported. The payload slices
// into the command's output buffer, so it is only valid until Close.
func (c *Command) Submit(t fwctl.Transport) ([]byte, error) {
	if c.closed {
		return nil, ErrCommandClosed
	}

	n, err := t.RPC(c.scope, c.in, c.out)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", c.opcode, err)
	}
	if n < ResponseHdrSize || n > len(c.out) {
		return nil, ErrInvalidPayload
	}

	size, retval, err := DecodeResponseHdr(c.out[:n])
	if err != nil {
		return nil, err
	}
	if retval != RetvalSuccess {
		return nil, &DeviceError{Opcode: c.opcode, Retval: retval}
	}
	payload := c.out[ResponseHdrSize:n]
	if size > len(payload) {
		return nil, ErrInvalidPayload
	}
	return payload[:size], nil
}

// Close releases both buffers. A command can only be closed once.
func (c *Command) Close() error {
	if c.closed {
		return ErrCommandClosed
	}
	c.closed = true
	fwctl.ReleaseBuffer(c.in)
	fwctl.ReleaseBuffer(c.out)
	c.in = nil
	c.out = nil
	return nil
}
