package cxl

import (
	"fmt"

	"github.com/loopholelabs/fwctl/pkg/fwctl"
)

// CXL mailbox feature commands carried over fwctl.
type Opcode uint32

const (
	OpcodeGetSupportedFeatures Opcode = 0x0500
	OpcodeGetFeature           Opcode = 0x0501
	OpcodeSetFeature           Opcode = 0x0502
)

func (o Opcode) String() string {
	switch o {
	case OpcodeGetSupportedFeatures:
		return "GetSupportedFeatures"
	case OpcodeGetFeature:
		return "GetFeature"
	case OpcodeSetFeature:
		return "SetFeature"
	}
	return fmt.Sprintf("Unknown(0x%04x)", uint32(o))
}

// Scope returns the fwctl privilege scope an opcode must be submitted
// under. Reads stay at configuration scope, writing a feature can leave
// the device needing a reset so it needs the full debug scope.
func Scope(op Opcode) (fwctl.RPCScope, error) {
	switch op {
	case OpcodeGetSupportedFeatures, OpcodeGetFeature:
		return fwctl.ScopeConfiguration, nil
	case OpcodeSetFeature:
		return fwctl.ScopeDebugWriteFull, nil
	}
	return 0, fmt.Errorf("opcode 0x%04x: %w", uint32(op), ErrUnknownOpcode)
}

// OperationSize returns the hardware input payload size for an opcode.
func OperationSize(op Opcode) (int, error) {
	switch op {
	case OpcodeGetSupportedFeatures:
		return GetSupportedFeaturesInSize, nil
	case OpcodeGetFeature:
		return GetFeatureInSize, nil
	case OpcodeSetFeature:
		return SetFeatureInSize, nil
	}
	return 0, fmt.Errorf("opcode 0x%04x: %w", uint32(op), ErrUnknownOpcode)
}
