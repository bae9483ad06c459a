package cxl

import (
	"errors"
	"sync/atomic"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"github.com/loopholelabs/logging/types"
)

// Mailbox drives CXL feature commands over a fwctl transport.
type Mailbox struct {
	transport fwctl.Transport
	log       types.Logger

	metricCommands        uint64
	metricTransportErrors uint64
	metricDeviceErrors    uint64
	metricGetSupported    uint64
	metricGetFeature      uint64
	metricSetFeature      uint64
	metricBytesIn         uint64
	metricBytesOut        uint64
}

type MailboxMetrics struct {
	Commands        uint64
	TransportErrors uint64
	DeviceErrors    uint64
	GetSupported    uint64
	GetFeature      uint64
	SetFeature      uint64
	BytesIn         uint64
	BytesOut        uint64
}

func NewMailbox(t fwctl.Transport, log types.Logger) *Mailbox {
	return &Mailbox{
		transport: t,
		log:       log,
	}
}

// roundTrip builds, submits and releases one command. The returned
// payload is a copy, so it stays valid after the command buffers are
// gone.
func (m *Mailbox) roundTrip(op Opcode, outPayloadLen int, fill func(payload []byte) error) ([]byte, error) {
	cmd, err := NewCommand(op, outPayloadLen)
	if err != nil {
		return nil, err
	}
	defer cmd.Close()

	if fill != nil {
		err = fill(cmd.Payload())
		if err != nil {
			return nil, err
		}
	}

	atomic.AddUint64(&m.metricCommands, 1)
	switch op {
	case OpcodeGetSupportedFeatures:
		atomic.AddUint64(&m.metricGetSupported, 1)
	case OpcodeGetFeature:
		atomic.AddUint64(&m.metricGetFeature, 1)
	case OpcodeSetFeature:
		atomic.AddUint64(&m.metricSetFeature, 1)
	}
	atomic.AddUint64(&m.metricBytesIn, uint64(len(cmd.in)))

	payload, err := cmd.Submit(m.transport)
	if err != nil {
		var de *DeviceError
		if errors.As(err, &de) {
			atomic.AddUint64(&m.metricDeviceErrors, 1)
			if m.log != nil {
				m.log.Error().
					Str("opcode", op.String()).
					Uint32("retval", de.Retval).
					Str("status", ReturnCodeString(de.Retval)).
					Msg("device rejected command")
			}
		} else {
			atomic.AddUint64(&m.metricTransportErrors, 1)
			if m.log != nil {
				m.log.Error().
					Err(err).
					Str("opcode", op.String()).
					Msg("command failed")
			}
		}
		return nil, err
	}
	atomic.AddUint64(&m.metricBytesOut, uint64(len(payload)))

	data := make([]byte, len(payload))
	copy(data, payload)
	return data, nil
}

func (m *Mailbox) GetMetrics() *MailboxMetrics {
	return &MailboxMetrics{
		Commands:        atomic.LoadUint64(&m.metricCommands),
		TransportErrors: atomic.LoadUint64(&m.metricTransportErrors),
		DeviceErrors:    atomic.LoadUint64(&m.metricDeviceErrors),
		GetSupported:    atomic.LoadUint64(&m.metricGetSupported),
		GetFeature:      atomic.LoadUint64(&m.metricGetFeature),
		SetFeature:      atomic.LoadUint64(&m.metricSetFeature),
		BytesIn:         atomic.LoadUint64(&m.metricBytesIn),
		BytesOut:        atomic.LoadUint64(&m.metricBytesOut),
	}
}
