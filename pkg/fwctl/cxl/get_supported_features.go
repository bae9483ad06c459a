package cxl

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const GetSupportedFeaturesInSize = 8
const GetSupportedFeaturesHdrSize = 8
const FeatureEntrySize = 48

// Effects bits from a feature entry that we name in code.
const EffectConfigChangeColdReset uint16 = 1 << 0
const EffectsValid uint16 = 1 << 9

// FeatureEntry is one entry from a GetSupportedFeatures response.
type FeatureEntry struct {
	UUID       uuid.UUID
	ID         uint16
	GetSize    uint16
	SetSize    uint16
	Flags      uint32
	GetVersion uint8
	SetVersion uint8
	Effects    uint16
}

// count is how many bytes the host set aside for entries. The device
// sizes its answer to fit, so asking with count zero is how you learn
// the total without pulling any entries.
func EncodeGetSupportedFeaturesIn(buff []byte, count uint32, startIdx uint16) error {
	if len(buff) < GetSupportedFeaturesInSize {
		return ErrInvalidPayload
	}
	binary.LittleEndian.PutUint32(buff, count)
	binary.LittleEndian.PutUint16(buff[4:], startIdx)
	buff[6] = 0
	buff[7] = 0
	return nil
}

func DecodeGetSupportedFeaturesIn(buff []byte) (uint32, uint16, error) {
	if buff == nil || len(buff) < GetSupportedFeaturesInSize {
		return 0, 0, ErrInvalidPayload
	}
	count := binary.LittleEndian.Uint32(buff)
	startIdx := binary.LittleEndian.Uint16(buff[4:])
	return count, startIdx, nil
}

// The response header leads with how many entries follow, then the total
// the device supports.
func EncodeGetSupportedFeaturesHdr(buff []byte, numEntries uint16, supported uint16) error {
	if len(buff) < GetSupportedFeaturesHdrSize {
		return ErrInvalidPayload
	}
	binary.LittleEndian.PutUint16(buff, numEntries)
	binary.LittleEndian.PutUint16(buff[2:], supported)
	binary.LittleEndian.PutUint32(buff[4:], 0)
	return nil
}

func DecodeGetSupportedFeaturesHdr(buff []byte) (uint16, uint16, error) {
	if buff == nil || len(buff) < GetSupportedFeaturesHdrSize {
		return 0, 0, ErrInvalidPayload
	}
	numEntries := binary.LittleEndian.Uint16(buff)
	supported := binary.LittleEndian.Uint16(buff[2:])
	return numEntries, supported, nil
}

func EncodeFeatureEntry(buff []byte, e *FeatureEntry) error {
	if len(buff) < FeatureEntrySize {
		return ErrInvalidPayload
	}
	copy(buff, e.UUID[:])
	binary.LittleEndian.PutUint16(buff[16:], e.ID)
	binary.LittleEndian.PutUint16(buff[18:], e.GetSize)
	binary.LittleEndian.PutUint16(buff[20:], e.SetSize)
	binary.LittleEndian.PutUint32(buff[22:], e.Flags)
	buff[26] = e.GetVersion
	buff[27] = e.SetVersion
	binary.LittleEndian.PutUint16(buff[28:], e.Effects)
	for i := 30; i < FeatureEntrySize; i++ {
		buff[i] = 0
	}
	return nil
}

func DecodeFeatureEntry(buff []byte) (*FeatureEntry, error) {
	if buff == nil || len(buff) < FeatureEntrySize {
		return nil, ErrInvalidPayload
	}
	e := &FeatureEntry{
		ID:         binary.LittleEndian.Uint16(buff[16:]),
		GetSize:    binary.LittleEndian.Uint16(buff[18:]),
		SetSize:    binary.LittleEndian.Uint16(buff[20:]),
		Flags:      binary.LittleEndian.Uint32(buff[22:]),
		GetVersion: buff[26],
		SetVersion: buff[27],
		Effects:    binary.LittleEndian.Uint16(buff[28:]),
	}
	copy(e.UUID[:], buff)
	return e, nil
}

// DecodeSupportedFeatures unpacks a whole enumeration response. The
// payload must hold exactly the entries the header claims.
func DecodeSupportedFeatures(buff []byte) (uint16, []*FeatureEntry, error) {
	numEntries, supported, err := DecodeGetSupportedFeaturesHdr(buff)
	if err != nil {
		return 0, nil, err
	}
	rest := buff[GetSupportedFeaturesHdrSize:]
	if len(rest) != int(numEntries)*FeatureEntrySize {
		return 0, nil, ErrInvalidPayload
	}
	entries := make([]*FeatureEntry, numEntries)
	for i := 0; i < int(numEntries); i++ {
		entries[i], err = DecodeFeatureEntry(rest[i*FeatureEntrySize:])
		if err != nil {
			return 0, nil, err
		}
	}
	return supported, entries, nil
}
