package cxl

import (
	"errors"
	"testing"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"github.com/stretchr/testify/assert"
)

// scriptTransport lets a test answer an RPC however it likes.
type scriptTransport struct {
	fn func(scope fwctl.RPCScope, in []byte, out []byte) (int, error)
}

func (s *scriptTransport) RPC(scope fwctl.RPCScope, in []byte, out []byte) (int, error) {
	return s.fn(scope, in, out)
}

func TestNewCommandUnknownOpcode(t *testing.T) {
	base := fwctl.OutstandingBuffers()
	_, err := NewCommand(Opcode(0xbeef), 8)
	assert.ErrorIs(t, err, ErrUnknownOpcode)
	// Nothing may be allocated for an opcode we can't look up
	assert.Equal(t, base, fwctl.OutstandingBuffers())
}

func TestNewCommandBadSizes(t *testing.T) {
	base := fwctl.OutstandingBuffers()
	_, err := NewCommand(OpcodeGetFeature, -1)
	assert.ErrorIs(t, err, fwctl.ErrInvalidArgument)
	_, err = NewCommand(OpcodeGetFeature, fwctl.MaxBufferSize)
	assert.ErrorIs(t, err, fwctl.ErrBufferTooLarge)
	assert.Equal(t, base, fwctl.OutstandingBuffers())
}

func TestCommandBuffers(t *testing.T) {
	base := fwctl.OutstandingBuffers()

	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	assert.Equal(t, base+2, fwctl.OutstandingBuffers())

	assert.Equal(t, OpcodeGetFeature, cmd.Opcode())
	assert.Equal(t, fwctl.ScopeConfiguration, cmd.Scope())

	// The request header is written, the payload region is zeroed
	op, flags, opSize, err := DecodeRequestHdr(cmd.in)
	assert.NoError(t, err)
	assert.Equal(t, OpcodeGetFeature, op)
	assert.Equal(t, uint32(0), flags)
	assert.Equal(t, GetFeatureInSize, opSize)
	assert.Equal(t, make([]byte, GetFeatureInSize), cmd.Payload())

	assert.NoError(t, cmd.Close())
	assert.Equal(t, base, fwctl.OutstandingBuffers())
	assert.ErrorIs(t, cmd.Close(), ErrCommandClosed)
	assert.Equal(t, base, fwctl.OutstandingBuffers())
}

func TestCommandSubmit(t *testing.T) {
	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	defer cmd.Close()

	tr := &scriptTransport{
		fn: func(scope fwctl.RPCScope, in []byte, out []byte) (int, error) {
			assert.Equal(t, fwctl.ScopeConfiguration, scope)
			assert.Equal(t, RequestHdrSize+GetFeatureInSize, len(in))
			assert.Equal(t, ResponseHdrSize+4, len(out))
			EncodeResponseHdr(out, 4, RetvalSuccess)
			copy(out[ResponseHdrSize:], []byte{1, 2, 3, 4})
			return len(out), nil
		},
	}
	payload, err := cmd.Submit(tr)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, payload)
}

func TestCommandSubmitShortResponse(t *testing.T) {
	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	defer cmd.Close()

	tr := &scriptTransport{
		fn: func(_ fwctl.RPCScope, _ []byte, _ []byte) (int, error) {
			return 4, nil
		},
	}
	_, err = cmd.Submit(tr)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCommandSubmitOversizedResponse(t *testing.T) {
	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	defer cmd.Close()

	// The device claims more payload than the buffer holds
	tr := &scriptTransport{
		fn: func(_ fwctl.RPCScope, _ []byte, out []byte) (int, error) {
			EncodeResponseHdr(out, 100, RetvalSuccess)
			return len(out), nil
		},
	}
	_, err = cmd.Submit(tr)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCommandSubmitDeviceError(t *testing.T) {
	cmd, err := NewCommand(OpcodeSetFeature, 0)
	assert.NoError(t, err)
	defer cmd.Close()

	tr := &scriptTransport{
		fn: func(_ fwctl.RPCScope, _ []byte, out []byte) (int, error) {
			EncodeResponseHdr(out, 0, RetvalBusy)
			return ResponseHdrSize, nil
		},
	}
	_, err = cmd.Submit(tr)
	assert.ErrorIs(t, err, ErrDeviceRejected)

	var de *DeviceError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, OpcodeSetFeature, de.Opcode)
	assert.Equal(t, RetvalBusy, de.Retval)
	assert.Contains(t, de.Error(), "Busy")
}

func TestCommandSubmitTransportError(t *testing.T) {
	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	defer cmd.Close()

	sentinel := errors.New("cable pulled")
	tr := &scriptTransport{
		fn: func(_ fwctl.RPCScope, _ []byte, _ []byte) (int, error) {
			return 0, sentinel
		},
	}
	_, err = cmd.Submit(tr)
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, ErrDeviceRejected)
}

func TestCommandSubmitClosed(t *testing.T) {
	cmd, err := NewCommand(OpcodeGetFeature, 4)
	assert.NoError(t, err)
	assert.NoError(t, cmd.Close())

	_, err = cmd.Submit(&scriptTransport{})
	assert.ErrorIs(t, err, ErrCommandClosed)
}
