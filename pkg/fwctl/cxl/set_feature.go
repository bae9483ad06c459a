package cxl

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const SetFeatureHdrSize = 32

// FeatureValueSize is the width of the feature values this client reads
// and writes.
const FeatureValueSize = 4

const SetFeatureInSize = SetFeatureHdrSize + FeatureValueSize

// SetFlags for a SetFeature command. The low three bits pick the data
// transfer mode.
type SetFlags uint32

const (
	SetFlagFullDataTransfer     SetFlags = 0x0
	SetFlagInitiateTransfer     SetFlags = 0x1
	SetFlagContinueTransfer     SetFlags = 0x2
	SetFlagFinishTransfer       SetFlags = 0x3
	SetFlagAbortTransfer        SetFlags = 0x4
	SetFlagTransferMask         SetFlags = 0x7
	SetFlagDataSavedAcrossReset SetFlags = 1 << 3
)

type SetFeatureIn struct {
	UUID    uuid.UUID
	Flags   SetFlags
	Offset  uint16
	Version uint8
	Data    []byte
}

func EncodeSetFeatureIn(buff []byte, in *SetFeatureIn) error {
	if len(buff) < SetFeatureHdrSize+len(in.Data) {
		return ErrInvalidPayload
	}
	copy(buff, in.UUID[:])
	binary.LittleEndian.PutUint32(buff[16:], uint32(in.Flags))
	binary.LittleEndian.PutUint16(buff[20:], in.Offset)
	buff[22] = in.Version
	for i := 23; i < SetFeatureHdrSize; i++ {
		buff[i] = 0
	}
	copy(buff[SetFeatureHdrSize:], in.Data)
	return nil
}

func DecodeSetFeatureIn(buff []byte) (*SetFeatureIn, error) {
	if buff == nil || len(buff) < SetFeatureHdrSize {
		return nil, ErrInvalidPayload
	}
	in := &SetFeatureIn{
		Flags:   SetFlags(binary.LittleEndian.Uint32(buff[16:])),
		Offset:  binary.LittleEndian.Uint16(buff[20:]),
		Version: buff[22],
		Data:    buff[SetFeatureHdrSize:],
	}
	copy(in.UUID[:], buff)
	return in, nil
}

// Feature values on the wire are little endian u32.
func EncodeFeatureValue(buff []byte, value uint32) error {
	if len(buff) < FeatureValueSize {
		return ErrInvalidPayload
	}
	binary.LittleEndian.PutUint32(buff, value)
	return nil
}

func DecodeFeatureValue(buff []byte) (uint32, error) {
	if buff == nil || len(buff) != FeatureValueSize {
		return 0, ErrInvalidPayload
	}
	return binary.LittleEndian.Uint32(buff), nil
}
