package fwctl

import (
	"sync/atomic"
	"unsafe"
)

// Command buffers are kept 16 byte aligned for the hardware payloads.
const BufferAlignment = 16

// MaxBufferSize caps a single RPC buffer. Nothing a CXL mailbox carries
// comes anywhere near this.
const MaxBufferSize = 1 << 20

var outstandingBuffers int64

// AcquireBuffer returns a zeroed, aligned buffer of exactly size bytes.
// Every acquired buffer must be handed back with ReleaseBuffer.
func AcquireBuffer(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidArgument
	}
	if size > MaxBufferSize {
		return nil, ErrBufferTooLarge
	}
	raw := make([]byte, size+BufferAlignment-1)
	off := 0
	if r := int(uintptr(unsafe.Pointer(&raw[0])) & (BufferAlignment - 1)); r != 0 {
		off = BufferAlignment - r
	}
	atomic.AddInt64(&outstandingBuffers, 1)
	return raw[off : off+size : off+size], nil
}

// ReleaseBuffer hands a buffer from AcquireBuffer back.
func ReleaseBuffer(buff []byte) {
	if buff == nil {
		return
	}
	atomic.AddInt64(&outstandingBuffers, -1)
}

// OutstandingBuffers reports how many acquired buffers have not been
// released yet. Tests use this to prove buffers are returned on every
// path.
func OutstandingBuffers() int64 {
	return atomic.LoadInt64(&outstandingBuffers)
}
