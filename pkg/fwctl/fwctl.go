package fwctl

import "fmt"

// ioctls for the fwctl char device, from include/uapi/fwctl/fwctl.h.
// Both are _IO(0x9a, n) with no size encoded.
const FWCTL_IOCTL_TYPE = 0x9a << 8
const FWCTL_INFO = FWCTL_IOCTL_TYPE | 0
const FWCTL_RPC = FWCTL_IOCTL_TYPE | 1

// RPCScope is the privilege level an RPC is submitted under. The driver
// refuses commands that need more scope than the caller granted.
type RPCScope uint32

const (
	ScopeConfiguration RPCScope = 0
	ScopeDebugReadOnly RPCScope = 1
	ScopeDebugWrite    RPCScope = 2
	// ScopeDebugWriteFull allows writes that can leave the device needing
	// a reset to recover.
	ScopeDebugWriteFull RPCScope = 3
)

func (s RPCScope) String() string {
	switch s {
	case ScopeConfiguration:
		return "Configuration"
	case ScopeDebugReadOnly:
		return "DebugReadOnly"
	case ScopeDebugWrite:
		return "DebugWrite"
	case ScopeDebugWriteFull:
		return "DebugWriteFull"
	}
	return fmt.Sprintf("Unknown(%d)", uint32(s))
}

// DeviceType identifies which driver sits behind a fwctl device.
type DeviceType uint32

const (
	DeviceTypeError DeviceType = 0
	DeviceTypeMLX5  DeviceType = 1
	DeviceTypeCXL   DeviceType = 2
	DeviceTypePDS   DeviceType = 4
)

func (d DeviceType) String() string {
	switch d {
	case DeviceTypeError:
		return "Error"
	case DeviceTypeMLX5:
		return "MLX5"
	case DeviceTypeCXL:
		return "CXL"
	case DeviceTypePDS:
		return "PDS"
	}
	return fmt.Sprintf("Unknown(%d)", uint32(d))
}

// Transport is anything that can carry one fwctl RPC to a device. The
// input buffer holds the driver envelope and hardware payload, the output
// buffer receives the response. It returns how many bytes of out the
// device filled in.
type Transport interface {
	RPC(scope RPCScope, in []byte, out []byte) (int, error)
}

// Info is what the device reports about itself.
type Info struct {
	DeviceType DeviceType
	DeviceData []byte
}
