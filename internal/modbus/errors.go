package modbus

import "errors"

// Error kinds returned by the codec, the parser and the handshake.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrTruncatedResponse = errors.New("truncated response")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrConnection        = errors.New("connection error")
	ErrTimeout           = errors.New("timeout")
)
