package cxl

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

const GetFeatureInSize = 21

// Selection picks which copy of a feature a read returns.
type Selection uint8

const (
	SelectionCurrent Selection = 0
	SelectionDefault Selection = 1
	SelectionSaved   Selection = 2
)

func (s Selection) String() string {
	switch s {
	case SelectionCurrent:
		return "current"
	case SelectionDefault:
		return "default"
	case SelectionSaved:
		return "saved"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

type GetFeatureIn struct {
	UUID      uuid.UUID
	Offset    uint16
	Count     uint16
	Selection Selection
}

func EncodeGetFeatureIn(buff []byte, in *GetFeatureIn) error {
	if len(buff) < GetFeatureInSize {
		return ErrInvalidPayload
	}
	copy(buff, in.UUID[:])
	binary.LittleEndian.PutUint16(buff[16:], in.Offset)
	binary.LittleEndian.PutUint16(buff[18:], in.Count)
	buff[20] = uint8(in.Selection)
	return nil
}

func DecodeGetFeatureIn(buff []byte) (*GetFeatureIn, error) {
	if buff == nil || len(buff) < GetFeatureInSize {
		return nil, ErrInvalidPayload
	}
	in := &GetFeatureIn{
		Offset:    binary.LittleEndian.Uint16(buff[16:]),
		Count:     binary.LittleEndian.Uint16(buff[18:]),
		Selection: Selection(buff[20]),
	}
	copy(in.UUID[:], buff)
	return in, nil
}
