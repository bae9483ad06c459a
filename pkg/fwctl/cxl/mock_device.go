package cxl

import (
	"sync"

	"github.com/google/uuid"
	"github.com/loopholelabs/fwctl/pkg/fwctl"
	"golang.org/x/sys/unix"
)

// Values the kernel's test feature device ships with.
var TestFeatureUUID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

const TestFeatureInitialValue uint32 = 0xdeadbeef
const TestFeatureUpdateValue uint32 = 0xabcdabcd
const TestFeatureEffects = EffectConfigChangeColdReset | EffectsValid

type MockFeature struct {
	Entry   FeatureEntry
	Current []byte
	Default []byte
	Saved   []byte
}

// MockDevice is an in process fwctl transport that behaves like the
// test mailbox device. Tests use the knobs to break it at whichever
// layer they are exercising.
type MockDevice struct {
	lock     sync.Mutex
	features []*MockFeature

	rpcErr          error
	rejectRetval    uint32
	rejectArmed     bool
	dropWrites      bool
	supportedDelta  int
	numEntriesDelta int
	corruptEntry    func(*FeatureEntry)

	// Every RPC that reached dispatch, for assertions.
	Scopes  []fwctl.RPCScope
	Opcodes []Opcode
}

// NewMockDevice starts with the single test feature holding its initial
// value.
func NewMockDevice() *MockDevice {
	m := &MockDevice{}
	m.AddFeature(&FeatureEntry{
		UUID:       TestFeatureUUID,
		GetSize:    FeatureValueSize,
		SetSize:    FeatureValueSize,
		GetVersion: 1,
		SetVersion: 1,
		Effects:    TestFeatureEffects,
	}, TestFeatureInitialValue)
	return m
}

// AddFeature registers a feature with its starting value. The value is
// also the default and saved copy.
func (m *MockDevice) AddFeature(entry *FeatureEntry, value uint32) {
	m.lock.Lock()
	defer m.lock.Unlock()

	entry.ID = uint16(len(m.features))
	feat := &MockFeature{
		Entry:   *entry,
		Current: make([]byte, FeatureValueSize),
		Default: make([]byte, FeatureValueSize),
		Saved:   make([]byte, FeatureValueSize),
	}
	EncodeFeatureValue(feat.Current, value)
	EncodeFeatureValue(feat.Default, value)
	EncodeFeatureValue(feat.Saved, value)
	m.features = append(m.features, feat)
}

// FailNextRPC makes the next RPC fail at the transport layer.
func (m *MockDevice) FailNextRPC(err error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rpcErr = err
}

// RejectNext makes the device refuse the next command with the given
// mailbox return code.
func (m *MockDevice) RejectNext(retval uint32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rejectRetval = retval
	m.rejectArmed = true
}

// DropWrites makes SetFeature claim success without storing anything.
func (m *MockDevice) DropWrites(drop bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.dropWrites = drop
}

// MutateSupportedCount skews the total feature count the device
// advertises.
func (m *MockDevice) MutateSupportedCount(delta int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.supportedDelta = delta
}

// MutateNumEntries skews the returned entry count field without changing
// how many entries are actually written.
func (m *MockDevice) MutateNumEntries(delta int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.numEntriesDelta = delta
}

// CorruptEntries applies fn to every feature entry sent to the host.
func (m *MockDevice) CorruptEntries(fn func(*FeatureEntry)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.corruptEntry = fn
}

// Info mirrors what the fwctl info ioctl reports for a CXL device.
func (m *MockDevice) Info() (*fwctl.Info, error) {
	return &fwctl.Info{DeviceType: fwctl.DeviceTypeCXL}, nil
}

func (m *MockDevice) RPC(scope fwctl.RPCScope, in []byte, out []byte) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.rpcErr != nil {
		err := m.rpcErr
		m.rpcErr = nil
		return 0, err
	}

	op, _, opSize, err := DecodeRequestHdr(in)
	if err != nil {
		return 0, unix.EINVAL
	}
	m.Scopes = append(m.Scopes, scope)
	m.Opcodes = append(m.Opcodes, op)

	// The driver checks scope before anything reaches the mailbox.
	want, err := Scope(op)
	if err != nil || scope != want {
		return 0, unix.EPERM
	}
	if RequestHdrSize+opSize > len(in) {
		return 0, unix.EINVAL
	}
	payload := in[RequestHdrSize : RequestHdrSize+opSize]

	if m.rejectArmed {
		m.rejectArmed = false
		return m.respond(out, nil, m.rejectRetval)
	}

	switch op {
	case OpcodeGetSupportedFeatures:
		return m.getSupportedFeatures(payload, out)
	case OpcodeGetFeature:
		return m.getFeature(payload, out)
	case OpcodeSetFeature:
		return m.setFeature(payload, out)
	}
	return m.respond(out, nil, RetvalUnsupported)
}

// respond writes the response header and payload into out, truncating
// the payload to what fits like the driver does.
func (m *MockDevice) respond(out []byte, payload []byte, retval uint32) (int, error) {
	if len(out) < ResponseHdrSize {
		return 0, unix.EINVAL
	}
	n := copy(out[ResponseHdrSize:], payload)
	EncodeResponseHdr(out, n, retval)
	return ResponseHdrSize + n, nil
}

func (m *MockDevice) getSupportedFeatures(payload []byte, out []byte) (int, error) {
	count, startIdx, err := DecodeGetSupportedFeaturesIn(payload)
	if err != nil || int(startIdx) > len(m.features) {
		return m.respond(out, nil, RetvalInvalidInput)
	}

	avail := m.features[startIdx:]
	num := int(count) / FeatureEntrySize
	if num > len(avail) {
		num = len(avail)
	}

	resp := make([]byte, GetSupportedFeaturesHdrSize+num*FeatureEntrySize)
	EncodeGetSupportedFeaturesHdr(resp, uint16(num+m.numEntriesDelta), uint16(len(m.features)+m.supportedDelta))
	for i := 0; i < num; i++ {
		entry := avail[i].Entry
		if m.corruptEntry != nil {
			m.corruptEntry(&entry)
		}
		EncodeFeatureEntry(resp[GetSupportedFeaturesHdrSize+i*FeatureEntrySize:], &entry)
	}
	return m.respond(out, resp, RetvalSuccess)
}

func (m *MockDevice) getFeature(payload []byte, out []byte) (int, error) {
	in, err := DecodeGetFeatureIn(payload)
	if err != nil {
		return m.respond(out, nil, RetvalInvalidInput)
	}
	feat := m.findFeature(in.UUID)
	if feat == nil {
		return m.respond(out, nil, RetvalUnsupported)
	}

	var data []byte
	switch in.Selection {
	case SelectionCurrent:
		data = feat.Current
	case SelectionDefault:
		data = feat.Default
	case SelectionSaved:
		data = feat.Saved
	default:
		return m.respond(out, nil, RetvalInvalidInput)
	}

	end := int(in.Offset) + int(in.Count)
	if end > len(data) {
		return m.respond(out, nil, RetvalInvalidInput)
	}
	return m.respond(out, data[in.Offset:end], RetvalSuccess)
}

func (m *MockDevice) setFeature(payload []byte, out []byte) (int, error) {
	in, err := DecodeSetFeatureIn(payload)
	if err != nil {
		return m.respond(out, nil, RetvalInvalidInput)
	}
	feat := m.findFeature(in.UUID)
	if feat == nil {
		return m.respond(out, nil, RetvalUnsupported)
	}
	// Only whole value, single transfer writes are supported.
	if in.Flags&SetFlagTransferMask != SetFlagFullDataTransfer {
		return m.respond(out, nil, RetvalInvalidInput)
	}
	if in.Offset != 0 || len(in.Data) != len(feat.Current) {
		return m.respond(out, nil, RetvalInvalidInput)
	}

	if !m.dropWrites {
		copy(feat.Current, in.Data)
		if in.Flags&SetFlagDataSavedAcrossReset != 0 {
			copy(feat.Saved, in.Data)
		}
	}
	return m.respond(out, nil, RetvalSuccess)
}

func (m *MockDevice) findFeature(id uuid.UUID) *MockFeature {
	for _, f := range m.features {
		if f.Entry.UUID == id {
			return f
		}
	}
	return nil
}
