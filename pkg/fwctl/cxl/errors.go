package cxl

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUnknownOpcode = errors.New("unknown opcode")
var ErrInvalidPayload = errors.New("invalid payload")
var ErrCommandClosed = errors.New("command closed")
var ErrDeviceRejected = errors.New("device rejected command")
var ErrEnumerationMismatch = errors.New("feature enumeration mismatch")
var ErrFeatureNotFound = errors.New("feature not found")
var ErrFeatureSizeMismatch = errors.New("feature size mismatch")
var ErrVerifyMismatch = errors.New("feature readback mismatch")

// DeviceError is a command the ioctl carried fine but the device itself
// refused. Retval is the CXL mailbox return code.
type DeviceError struct {
	Opcode Opcode
	Retval uint32
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s rejected by device: %s (0x%x)", e.Opcode, ReturnCodeString(e.Retval), e.Retval)
}

func (e *DeviceError) Unwrap() error {
	return ErrDeviceRejected
}

// CountMismatchError means the two enumeration phases did not agree on
// how many features the device has.
type CountMismatchError struct {
	Advertised int
	Reported   int
	Returned   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("device advertised %d features, then reported %d and returned %d", e.Advertised, e.Reported, e.Returned)
}

func (e *CountMismatchError) Unwrap() error {
	return ErrEnumerationMismatch
}

// VerifyError means a feature read back a different value than was just
// written to it.
type VerifyError struct {
	UUID uuid.UUID
	Want uint32
	Got  uint32
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("feature %s read back 0x%08x, wanted 0x%08x", e.UUID, e.Got, e.Want)
}

func (e *VerifyError) Unwrap() error {
	return ErrVerifyMismatch
}
