package modbus

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// minResponseLength is unit id, function code, byte count and CRC.
const minResponseLength = 3 + checksumLength

// SignedMode selects how a raw register is reinterpreted as a signed value.
type SignedMode int

const (
	// SignedCompatible subtracts 65535 from values >= 0x8000. This is off by
	// one against two's complement (0x8000 -> -32767, 0xFFFF -> 0) and matches
	// the output of earlier anenji_modbus_scan releases.
	SignedCompatible SignedMode = iota
	// SignedCorrected uses two's complement (0x8000 -> -32768, 0xFFFF -> -1).
	SignedCorrected
)

func (m SignedMode) String() string {
	switch m {
	case SignedCompatible:
		return "compatible"
	case SignedCorrected:
		return "corrected"
	default:
		return "unknown"
	}
}

// ParseSignedMode maps a config value onto a SignedMode.
func ParseSignedMode(s string) (SignedMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compatible":
		return SignedCompatible, nil
	case "corrected":
		return SignedCorrected, nil
	default:
		return SignedCompatible, fmt.Errorf("%w: unknown signed mode %q", ErrInvalidArgument, s)
	}
}

// Signed converts a raw register value according to the mode.
func (m SignedMode) Signed(raw uint16) int {
	if m == SignedCorrected {
		return int(int16(raw))
	}
	if raw >= 0x8000 {
		return int(raw) - 65535
	}
	return int(raw)
}

// RegisterReading is one decoded 16-bit register.
type RegisterReading struct {
	Address     int    `json:"address" yaml:"address"`
	RawHex      string `json:"hex" yaml:"hex"`
	Value       uint16 `json:"raw" yaml:"raw"`
	SignedValue int    `json:"value" yaml:"value"`
}

// Response is a decoded read-registers reply.
type Response struct {
	UnitID       uint8             `json:"unit_id" yaml:"unit_id"`
	FunctionCode uint8             `json:"function_code" yaml:"function_code"`
	ByteCount    uint8             `json:"byte_count" yaml:"byte_count"`
	ChecksumOK   bool              `json:"checksum_ok" yaml:"checksum_ok"`
	Readings     []RegisterReading `json:"registers" yaml:"registers"`
}

// ParseOptions tune DecodeResponse. The zero value reproduces the
// historical behaviour: compatible sign conversion, checksum not enforced.
type ParseOptions struct {
	SignedMode SignedMode
	// StrictCRC rejects replies whose checksum does not match.
	StrictCRC bool
}

// ParseResponse decodes raw into register readings starting at startAddr,
// using the default options.
func ParseResponse(raw []byte, startAddr uint16) ([]RegisterReading, error) {
	resp, err := DecodeResponse(raw, startAddr, ParseOptions{})
	if err != nil {
		return nil, err
	}
	return resp.Readings, nil
}

// DecodeResponse validates and decodes a Modbus RTU reply. raw is not modified.
func DecodeResponse(raw []byte, startAddr uint16, opts ParseOptions) (*Response, error) {
	if len(raw) < minResponseLength {
		return nil, fmt.Errorf("%w: response too short to contain a header and checksum (%d bytes)",
			ErrTruncatedResponse, len(raw))
	}

	byteCount := int(raw[2])
	frameLen := 3 + byteCount + checksumLength
	if len(raw) < frameLen {
		return nil, fmt.Errorf("%w: declared byte count %d exceeds available data (%d bytes)",
			ErrTruncatedResponse, byteCount, len(raw))
	}

	checksumOK := VerifyChecksum(raw[:frameLen])
	if opts.StrictCRC && !checksumOK {
		return nil, fmt.Errorf("%w: expected 0x%04X", ErrChecksumMismatch, Checksum(raw[:frameLen-checksumLength]))
	}

	data := raw[3 : 3+byteCount]

	// Ein unvollständiges letztes Byte wird ignoriert
	readings := make([]RegisterReading, 0, byteCount/2)
	for i := 0; i+1 < len(data); i += 2 {
		value := binary.BigEndian.Uint16(data[i : i+2])
		readings = append(readings, RegisterReading{
			Address:     int(startAddr) + i/2,
			RawHex:      fmt.Sprintf("%02X%02X", data[i], data[i+1]),
			Value:       value,
			SignedValue: opts.SignedMode.Signed(value),
		})
	}

	return &Response{
		UnitID:       raw[0],
		FunctionCode: raw[1],
		ByteCount:    raw[2],
		ChecksumOK:   checksumOK,
		Readings:     readings,
	}, nil
}
