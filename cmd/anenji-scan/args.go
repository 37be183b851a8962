package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/types"
)

const usage = "Usage: anenji-scan [flags] <datalogger_ip> <register_number> [register_count] [localip=...]"

// invocation holds the positional arguments.
type invocation struct {
	DeviceIP      string
	StartRegister uint16
	RegisterCount uint16
	LocalIP       string
}

var errUsage = fmt.Errorf("%w: missing arguments", modbus.ErrInvalidArgument)

// parsePositional reads "<ip> <register> [count]" and an optional
// localip=<addr> anywhere in the list. needRegister is false in raw and
// template mode, where the frame already carries the start address.
func parsePositional(args []string, needRegister bool) (*invocation, error) {
	inv := &invocation{RegisterCount: 1}

	var positional []string
	for _, a := range args {
		if ip, ok := strings.CutPrefix(a, "localip="); ok {
			inv.LocalIP = ip
			continue
		}
		positional = append(positional, a)
	}

	if len(positional) < 1 || (needRegister && len(positional) < 2) {
		return nil, errUsage
	}
	inv.DeviceIP = positional[0]

	if len(positional) > 1 {
		start, err := strconv.ParseUint(positional[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid register number %q", modbus.ErrInvalidArgument, positional[1])
		}
		inv.StartRegister = uint16(start)
	}

	if len(positional) > 2 {
		count, err := strconv.ParseUint(positional[2], 10, 16)
		if err != nil || count == 0 {
			return nil, fmt.Errorf("%w: invalid register count %q", modbus.ErrInvalidArgument, positional[2])
		}
		inv.RegisterCount = uint16(count)
	}

	return inv, nil
}

// errorCode maps an error onto the code used in JSON error payloads.
func errorCode(err error) string {
	switch {
	case errors.Is(err, modbus.ErrInvalidArgument):
		return types.CodeInvalidArgument
	case errors.Is(err, modbus.ErrTruncatedResponse):
		return types.CodeTruncatedResponse
	case errors.Is(err, modbus.ErrChecksumMismatch):
		return types.CodeChecksumMismatch
	case errors.Is(err, modbus.ErrTimeout):
		return types.CodeTimeout
	case errors.Is(err, modbus.ErrConnection):
		return types.CodeConnectionError
	default:
		return types.CodeInternalError
	}
}
