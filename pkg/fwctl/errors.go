package fwctl

import "errors"

var ErrInvalidArgument = errors.New("invalid argument")
var ErrBufferTooLarge = errors.New("buffer too large")
var ErrDeviceClosed = errors.New("device closed")
