package fwctl

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestAcquireBuffer(t *testing.T) {
	base := OutstandingBuffers()

	buff, err := AcquireBuffer(100)
	assert.NoError(t, err)
	assert.Equal(t, 100, len(buff))
	assert.Equal(t, uintptr(0), uintptr(unsafe.Pointer(&buff[0]))&(BufferAlignment-1))
	assert.Equal(t, make([]byte, 100), buff)
	assert.Equal(t, base+1, OutstandingBuffers())

	ReleaseBuffer(buff)
	assert.Equal(t, base, OutstandingBuffers())
}

func TestAcquireBufferLimits(t *testing.T) {
	base := OutstandingBuffers()

	// Make sure we can't acquire silly sizes
	_, err := AcquireBuffer(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = AcquireBuffer(-5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = AcquireBuffer(MaxBufferSize + 1)
	assert.ErrorIs(t, err, ErrBufferTooLarge)
	assert.Equal(t, base, OutstandingBuffers())

	buff, err := AcquireBuffer(MaxBufferSize)
	assert.NoError(t, err)
	assert.Equal(t, MaxBufferSize, len(buff))
	ReleaseBuffer(buff)
	assert.Equal(t, base, OutstandingBuffers())
}

func TestReleaseBufferNil(t *testing.T) {
	base := OutstandingBuffers()
	ReleaseBuffer(nil)
	assert.Equal(t, base, OutstandingBuffers())
}
