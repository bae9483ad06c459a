package cxl

import "encoding/binary"

// The driver envelopes around each command. The request payload sits
// right after the 16 byte request header in the same allocation, the
// response payload after the 8 byte response header. All little endian.
const RequestHdrSize = 16
const ResponseHdrSize = 8

func EncodeRequestHdr(buff []byte, op Opcode, flags uint32, opSize int) error {
	if len(buff) < RequestHdrSize {
		return ErrInvalidPayload
	}
	binary.LittleEndian.PutUint32(buff, uint32(op))
	binary.LittleEndian.PutUint32(buff[4:], flags)
	binary.LittleEndian.PutUint32(buff[8:], uint32(opSize))
	binary.LittleEndian.PutUint32(buff[12:], 0)
	return nil
}

func DecodeRequestHdr(buff []byte) (Opcode, uint32, int, error) {
	if buff == nil || len(buff) < RequestHdrSize {
		return 0, 0, 0, ErrInvalidPayload
	}
	op := Opcode(binary.LittleEndian.Uint32(buff))
	flags := binary.LittleEndian.Uint32(buff[4:])
	opSize := int(binary.LittleEndian.Uint32(buff[8:]))
	return op, flags, opSize, nil
}

func EncodeResponseHdr(buff []byte, size int, retval uint32) error {
	if len(buff) < ResponseHdrSize {
		return ErrInvalidPayload
	}
	binary.LittleEndian.PutUint32(buff, uint32(size))
	binary.LittleEndian.PutUint32(buff[4:], retval)
	return nil
}

func DecodeResponseHdr(buff []byte) (int, uint32, error) {
	if buff == nil || len(buff) < ResponseHdrSize {
		return 0, 0, ErrInvalidPayload
	}
	size := int(binary.LittleEndian.Uint32(buff))
	retval := binary.LittleEndian.Uint32(buff[4:])
	return size, retval, nil
}
