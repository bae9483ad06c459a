package fwctl

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/loopholelabs/logging/types"
	"golang.org/x/sys/unix"
)

// struct fwctl_rpc
type rpcArgs struct {
	size   uint32
	scope  uint32
	inLen  uint32
	outLen uint32
	in     uint64
	out    uint64
}

// struct fwctl_info
type infoArgs struct {
	size          uint32
	flags         uint32
	outDeviceType uint32
	deviceDataLen uint32
	outDeviceData uint64
}

// Device is an open fwctl char device node.
type Device struct {
	path string
	fp   *os.File
	log  types.Logger

	lock   sync.Mutex
	closed bool
}

// New opens the fwctl device node at path, usually /dev/fwctl/fwctlN.
func New(path string, log types.Logger) (*Device, error) {
	fp, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("open fwctl device: %w", err)
	}
	if log != nil {
		log.Debug().Str("path", path).Msg("opened fwctl device")
	}
	return &Device{
		path: path,
		fp:   fp,
		log:  log,
	}, nil
}

// NewFromDevNum opens a device by its char major:minor, the way the
// kernel selftests find devices that have no stable node name.
func NewFromDevNum(major uint32, minor uint32, log types.Logger) (*Device, error) {
	return New(fmt.Sprintf("/dev/char/%d:%d", major, minor), log)
}

func (d *Device) Path() string {
	return d.path
}

func (d *Device) Fd() uintptr {
	return d.fp.Fd()
}

func (d *Device) isClosed() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.closed
}

// RPC submits one command. in carries the driver envelope and hardware
// payload, out receives the response. The return value is how many bytes
// of out the kernel filled in.
func (d *Device) RPC(scope RPCScope, in []byte, out []byte) (int, error) {
	if d.isClosed() {
		return 0, ErrDeviceClosed
	}
	if len(in) == 0 || len(out) == 0 {
		return 0, ErrInvalidArgument
	}

	args := rpcArgs{
		size:   uint32(unsafe.Sizeof(rpcArgs{})),
		scope:  uint32(scope),
		inLen:  uint32(len(in)),
		outLen: uint32(len(out)),
		in:     uint64(uintptr(unsafe.Pointer(&in[0]))),
		out:    uint64(uintptr(unsafe.Pointer(&out[0]))),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.fp.Fd(), FWCTL_RPC, uintptr(unsafe.Pointer(&args)))
	runtime.KeepAlive(in)
	runtime.KeepAlive(out)
	if errno != 0 {
		return 0, fmt.Errorf("ioctl FWCTL_RPC: %w", errno)
	}

	if d.log != nil {
		d.log.Debug().
			Str("scope", scope.String()).
			Int("in", len(in)).
			Uint32("out", args.outLen).
			Msg("fwctl rpc")
	}
	return int(args.outLen), nil
}

// Info asks the driver what kind of device this is. The device specific
// data blob is fetched when the driver has one.
func (d *Device) Info() (*Info, error) {
	if d.isClosed() {
		return nil, ErrDeviceClosed
	}

	// First call with no buffer sizes the device data.
	args := infoArgs{
		size: uint32(unsafe.Sizeof(infoArgs{})),
	}
	err := d.ioctlInfo(&args)
	if err != nil {
		return nil, err
	}

	info := &Info{
		DeviceType: DeviceType(args.outDeviceType),
	}
	if args.deviceDataLen == 0 {
		return info, nil
	}

	data := make([]byte, args.deviceDataLen)
	args = infoArgs{
		size:          uint32(unsafe.Sizeof(infoArgs{})),
		deviceDataLen: uint32(len(data)),
		outDeviceData: uint64(uintptr(unsafe.Pointer(&data[0]))),
	}
	err = d.ioctlInfo(&args)
	runtime.KeepAlive(data)
	if err != nil {
		return nil, err
	}
	info.DeviceType = DeviceType(args.outDeviceType)
	info.DeviceData = data[:min(int(args.deviceDataLen), len(data))]
	return info, nil
}

func (d *Device) ioctlInfo(args *infoArgs) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.fp.Fd(), FWCTL_INFO, uintptr(unsafe.Pointer(args)))
	if errno != 0 {
		return fmt.Errorf("ioctl FWCTL_INFO: %w", errno)
	}
	return nil
}

// Close releases the device node. The device can only be closed once.
func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true
	return d.fp.Close()
}
