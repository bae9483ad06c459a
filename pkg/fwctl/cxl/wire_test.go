package cxl

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRequestHdr(t *testing.T) {
	buff := make([]byte, RequestHdrSize)
	err := EncodeRequestHdr(buff, OpcodeSetFeature, 0, SetFeatureInSize)
	assert.NoError(t, err)

	// Exact wire layout, little endian
	assert.Equal(t, []byte{
		0x02, 0x05, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x24, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, buff)

	op, flags, opSize, err := DecodeRequestHdr(buff)
	assert.NoError(t, err)
	assert.Equal(t, OpcodeSetFeature, op)
	assert.Equal(t, uint32(0), flags)
	assert.Equal(t, SetFeatureInSize, opSize)

	// Make sure we can't decode silly things
	_, _, _, err = DecodeRequestHdr(nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, _, _, err = DecodeRequestHdr(buff[:15])
	assert.ErrorIs(t, err, ErrInvalidPayload)
	err = EncodeRequestHdr(make([]byte, 3), OpcodeSetFeature, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestResponseHdr(t *testing.T) {
	buff := make([]byte, ResponseHdrSize)
	err := EncodeResponseHdr(buff, 48, RetvalBusy)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00}, buff)

	size, retval, err := DecodeResponseHdr(buff)
	assert.NoError(t, err)
	assert.Equal(t, 48, size)
	assert.Equal(t, RetvalBusy, retval)

	_, _, err = DecodeResponseHdr(nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, _, err = DecodeResponseHdr(buff[:7])
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGetSupportedFeaturesIn(t *testing.T) {
	buff := make([]byte, GetSupportedFeaturesInSize)
	err := EncodeGetSupportedFeaturesIn(buff, 96, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}, buff)

	count, startIdx, err := DecodeGetSupportedFeaturesIn(buff)
	assert.NoError(t, err)
	assert.Equal(t, uint32(96), count)
	assert.Equal(t, uint16(2), startIdx)

	_, _, err = DecodeGetSupportedFeaturesIn(buff[:7])
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGetSupportedFeaturesHdr(t *testing.T) {
	buff := make([]byte, GetSupportedFeaturesHdrSize)
	err := EncodeGetSupportedFeaturesHdr(buff, 2, 3)
	assert.NoError(t, err)

	// The entry count comes first on the wire, then the total
	assert.Equal(t, []byte{0x02, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00}, buff)

	numEntries, supported, err := DecodeGetSupportedFeaturesHdr(buff)
	assert.NoError(t, err)
	assert.Equal(t, uint16(2), numEntries)
	assert.Equal(t, uint16(3), supported)

	_, _, err = DecodeGetSupportedFeaturesHdr(nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestFeatureEntry(t *testing.T) {
	entry := &FeatureEntry{
		UUID:       TestFeatureUUID,
		ID:         7,
		GetSize:    4,
		SetSize:    4,
		Flags:      0x00000001,
		GetVersion: 1,
		SetVersion: 2,
		Effects:    TestFeatureEffects,
	}
	buff := make([]byte, FeatureEntrySize)
	err := EncodeFeatureEntry(buff, entry)
	assert.NoError(t, err)

	// Field offsets within the 48 byte entry
	assert.Equal(t, TestFeatureUUID[:], buff[0:16])
	assert.Equal(t, []byte{0x07, 0x00}, buff[16:18])
	assert.Equal(t, []byte{0x04, 0x00}, buff[18:20])
	assert.Equal(t, []byte{0x04, 0x00}, buff[20:22])
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, buff[22:26])
	assert.Equal(t, byte(1), buff[26])
	assert.Equal(t, byte(2), buff[27])
	assert.Equal(t, []byte{0x01, 0x02}, buff[28:30])
	assert.Equal(t, make([]byte, 18), buff[30:48])

	decoded, err := DecodeFeatureEntry(buff)
	assert.NoError(t, err)
	assert.Equal(t, entry, decoded)

	_, err = DecodeFeatureEntry(buff[:47])
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeSupportedFeatures(t *testing.T) {
	entry := &FeatureEntry{UUID: TestFeatureUUID, GetSize: 4, SetSize: 4}
	buff := make([]byte, GetSupportedFeaturesHdrSize+FeatureEntrySize)
	assert.NoError(t, EncodeGetSupportedFeaturesHdr(buff, 1, 1))
	assert.NoError(t, EncodeFeatureEntry(buff[GetSupportedFeaturesHdrSize:], entry))

	supported, entries, err := DecodeSupportedFeatures(buff)
	assert.NoError(t, err)
	assert.Equal(t, uint16(1), supported)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, entry, entries[0])

	// Payload must hold exactly the entries the header claims
	_, _, err = DecodeSupportedFeatures(buff[:GetSupportedFeaturesHdrSize+20])
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.NoError(t, EncodeGetSupportedFeaturesHdr(buff, 2, 2))
	_, _, err = DecodeSupportedFeatures(buff)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGetFeatureIn(t *testing.T) {
	in := &GetFeatureIn{
		UUID:      TestFeatureUUID,
		Offset:    0,
		Count:     4,
		Selection: SelectionCurrent,
	}
	buff := make([]byte, GetFeatureInSize)
	err := EncodeGetFeatureIn(buff, in)
	assert.NoError(t, err)

	assert.Equal(t, TestFeatureUUID[:], buff[0:16])
	assert.Equal(t, []byte{0x00, 0x00, 0x04, 0x00, 0x00}, buff[16:21])

	decoded, err := DecodeGetFeatureIn(buff)
	assert.NoError(t, err)
	assert.Equal(t, in, decoded)

	_, err = DecodeGetFeatureIn(buff[:20])
	assert.ErrorIs(t, err, ErrInvalidPayload)
	err = EncodeGetFeatureIn(make([]byte, 5), in)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSetFeatureIn(t *testing.T) {
	in := &SetFeatureIn{
		UUID:    TestFeatureUUID,
		Flags:   SetFlagFullDataTransfer | SetFlagDataSavedAcrossReset,
		Offset:  0,
		Version: 1,
		Data:    []byte{0xef, 0xbe, 0xad, 0xde},
	}
	buff := make([]byte, SetFeatureInSize)
	err := EncodeSetFeatureIn(buff, in)
	assert.NoError(t, err)

	assert.Equal(t, TestFeatureUUID[:], buff[0:16])
	assert.Equal(t, []byte{0x08, 0x00, 0x00, 0x00}, buff[16:20])
	assert.Equal(t, []byte{0x00, 0x00}, buff[20:22])
	assert.Equal(t, byte(1), buff[22])
	assert.Equal(t, make([]byte, 9), buff[23:32])
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, buff[32:36])

	decoded, err := DecodeSetFeatureIn(buff)
	assert.NoError(t, err)
	assert.Equal(t, in.UUID, decoded.UUID)
	assert.Equal(t, in.Flags, decoded.Flags)
	assert.Equal(t, in.Offset, decoded.Offset)
	assert.Equal(t, in.Version, decoded.Version)
	assert.Equal(t, in.Data, decoded.Data)

	_, err = DecodeSetFeatureIn(buff[:31])
	assert.ErrorIs(t, err, ErrInvalidPayload)
	err = EncodeSetFeatureIn(make([]byte, 33), in)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestFeatureValue(t *testing.T) {
	buff := make([]byte, FeatureValueSize)
	err := EncodeFeatureValue(buff, TestFeatureInitialValue)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, buff)

	value, err := DecodeFeatureValue(buff)
	assert.NoError(t, err)
	assert.Equal(t, TestFeatureInitialValue, value)

	_, err = DecodeFeatureValue(buff[:3])
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = DecodeFeatureValue(make([]byte, 5))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	err = EncodeFeatureValue(make([]byte, 2), 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	in := &GetFeatureIn{UUID: id, Count: 4}
	buff := make([]byte, GetFeatureInSize)
	assert.NoError(t, EncodeGetFeatureIn(buff, in))
	decoded, err := DecodeGetFeatureIn(buff)
	assert.NoError(t, err)
	assert.Equal(t, id, decoded.UUID)
}
