package cxl

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loopholelabs/fwctl/pkg/fwctl"
)

// SupportedFeatures enumerates the device features. The device is asked
// twice, once for the count and once for the entries, and the two
// answers must agree.
func (m *Mailbox) SupportedFeatures(ctx context.Context) ([]*FeatureEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	supported, _, err := m.supportedFeatures(0, 0)
	if err != nil {
		return nil, err
	}
	if supported == 0 {
		return []*FeatureEntry{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reported, entries, err := m.supportedFeatures(uint32(supported)*FeatureEntrySize, 0)
	if err != nil {
		return nil, err
	}
	if reported != supported || len(entries) != int(supported) {
		err = &CountMismatchError{
			Advertised: int(supported),
			Reported:   int(reported),
			Returned:   len(entries),
		}
		if m.log != nil {
			m.log.Error().Err(err).Msg("feature enumeration mismatch")
		}
		return nil, err
	}
	return entries, nil
}

// count is the space the device may fill with entries, in bytes.
func (m *Mailbox) supportedFeatures(count uint32, startIdx uint16) (uint16, []*FeatureEntry, error) {
	payload, err := m.roundTrip(OpcodeGetSupportedFeatures, GetSupportedFeaturesHdrSize+int(count), func(p []byte) error {
		return EncodeGetSupportedFeaturesIn(p, count, startIdx)
	})
	if err != nil {
		return 0, nil, err
	}
	supported, entries, err := DecodeSupportedFeatures(payload)
	if err != nil {
		return 0, nil, err
	}
	return supported, entries, nil
}

// FindFeature enumerates and picks out one feature by UUID.
func (m *Mailbox) FindFeature(ctx context.Context, id uuid.UUID) (*FeatureEntry, error) {
	entries, err := m.SupportedFeatures(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.UUID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("feature %s: %w", id, ErrFeatureNotFound)
}

// GetFeature reads count bytes of a feature starting at offset.
func (m *Mailbox) GetFeature(ctx context.Context, id uuid.UUID, sel Selection, offset uint16, count uint16) ([]byte, error) {
	if count == 0 {
		return nil, fwctl.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := m.roundTrip(OpcodeGetFeature, int(count), func(p []byte) error {
		return EncodeGetFeatureIn(p, &GetFeatureIn{
			UUID:      id,
			Offset:    offset,
			Count:     count,
			Selection: sel,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(payload) != int(count) {
		return nil, ErrInvalidPayload
	}
	return payload, nil
}

// GetFeatureValue reads a feature as a 32 bit value.
func (m *Mailbox) GetFeatureValue(ctx context.Context, id uuid.UUID, sel Selection) (uint32, error) {
	data, err := m.GetFeature(ctx, id, sel, 0, FeatureValueSize)
	if err != nil {
		return 0, err
	}
	return DecodeFeatureValue(data)
}

// VerifyFeature reads a feature back and checks it holds want.
func (m *Mailbox) VerifyFeature(ctx context.Context, id uuid.UUID, want uint32) error {
	got, err := m.GetFeatureValue(ctx, id, SelectionCurrent)
	if err != nil {
		return err
	}
	if got != want {
		err = &VerifyError{UUID: id, Want: want, Got: got}
		if m.log != nil {
			m.log.Error().Err(err).Msg("feature verify failed")
		}
		return err
	}
	return nil
}

// SetFeature writes a 32 bit feature value, then reads it back to make
// sure it stuck. A write the device accepted but did not apply is an
// error just like a rejected one.
func (m *Mailbox) SetFeature(ctx context.Context, entry *FeatureEntry, value uint32, flags SetFlags) error {
	if entry == nil {
		return fwctl.ErrInvalidArgument
	}
	if entry.SetSize != FeatureValueSize {
		return fmt.Errorf("feature %s set size %d: %w", entry.UUID, entry.SetSize, ErrFeatureSizeMismatch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := make([]byte, FeatureValueSize)
	err := EncodeFeatureValue(data, value)
	if err != nil {
		return err
	}
	_, err = m.roundTrip(OpcodeSetFeature, 0, func(p []byte) error {
		return EncodeSetFeatureIn(p, &SetFeatureIn{
			UUID:    entry.UUID,
			Flags:   flags,
			Offset:  0,
			Version: entry.SetVersion,
			Data:    data,
		})
	})
	if err != nil {
		return err
	}
	return m.VerifyFeature(ctx, entry.UUID, value)
}
