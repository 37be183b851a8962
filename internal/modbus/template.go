package modbus

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const crcPlaceholder = "{CRC}"

// firstArgIndex is the index of the first template argument; {ARG2} is
// replaced by args[0].
const firstArgIndex = 2

// BuildTemplate expands a raw command template into frame bytes.
//
// {ARGn} placeholders are replaced with the hex encoding of the matching
// argument. A {CRC} marker is replaced with the little-endian checksum of
// the bytes before it; anything after the marker is dropped.
func BuildTemplate(tmpl string, args []string) ([]byte, error) {
	cmd := tmpl
	for i, arg := range args {
		placeholder := fmt.Sprintf("{ARG%d}", i+firstArgIndex)
		cmd = strings.ReplaceAll(cmd, placeholder, hex.EncodeToString([]byte(arg)))
	}

	before, _, hasCRC := strings.Cut(cmd, crcPlaceholder)
	if !hasCRC {
		return ParseHex(cmd)
	}

	frame, err := ParseHex(before)
	if err != nil {
		return nil, err
	}
	return AppendChecksum(frame), nil
}

// ParseHex decodes a hex string, ignoring spaces and line breaks.
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "\n", "", "\r", "", "\t", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex %q: %v", ErrInvalidArgument, s, err)
	}
	return data, nil
}

// FormatHex renders bytes as space separated upper-case hex, e.g. "01 03 00 0A".
func FormatHex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
