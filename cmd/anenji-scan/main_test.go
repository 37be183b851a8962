package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
)

func TestParsePositional(t *testing.T) {
	inv, err := parsePositional([]string{"192.168.1.50", "201", "4", "localip=192.168.1.10"}, true)
	if err != nil {
		t.Fatalf("parsePositional() should have succeeded, got: %v", err)
	}
	want := invocation{DeviceIP: "192.168.1.50", StartRegister: 201, RegisterCount: 4, LocalIP: "192.168.1.10"}
	if *inv != want {
		t.Errorf("expected %+v, saw %+v", want, *inv)
	}
}

func TestParsePositionalDefaults(t *testing.T) {
	inv, err := parsePositional([]string{"localip=10.0.0.2", "10.0.0.7", "300"}, true)
	if err != nil {
		t.Fatalf("parsePositional() should have succeeded, got: %v", err)
	}
	if inv.RegisterCount != 1 || inv.StartRegister != 300 || inv.LocalIP != "10.0.0.2" {
		t.Errorf("unexpected invocation: %+v", inv)
	}
}

func TestParsePositionalErrors(t *testing.T) {
	for _, tt := range []struct {
		args         []string
		needRegister bool
	}{
		{nil, true},
		{[]string{"10.0.0.7"}, true},
		{[]string{"localip=10.0.0.2"}, false},
		{[]string{"10.0.0.7", "abc"}, true},
		{[]string{"10.0.0.7", "70000"}, true},
		{[]string{"10.0.0.7", "1", "0"}, true},
		{[]string{"10.0.0.7", "1", "-2"}, true},
	} {
		if _, err := parsePositional(tt.args, tt.needRegister); !errors.Is(err, modbus.ErrInvalidArgument) {
			t.Errorf("%v: expected ErrInvalidArgument, got: %v", tt.args, err)
		}
	}

	if _, err := parsePositional([]string{"10.0.0.7"}, false); err != nil {
		t.Errorf("raw mode should not need a register, got: %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	for want, err := range map[string]error{
		"invalid_argument":   fmt.Errorf("x: %w", modbus.ErrInvalidArgument),
		"truncated_response": modbus.ErrTruncatedResponse,
		"checksum_mismatch":  modbus.ErrChecksumMismatch,
		"timeout":            fmt.Errorf("%w: accept", modbus.ErrTimeout),
		"connection_error":   modbus.ErrConnection,
		"internal_error":     errors.New("boom"),
	} {
		if got := errorCode(err); got != want {
			t.Errorf("%v: expected %s, saw %s", err, want, got)
		}
	}
}

func TestRunMissingArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"10.0.0.7"}, &stdout, &stderr); code != 1 {
		t.Errorf("expected exit code 1, saw %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("expected usage on stderr, saw %q", stderr.String())
	}
}

func TestRunRejectsInvalidRawFrame(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--format", "json", "--raw", "01 0z", "10.0.0.7"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("expected exit code 1, saw %d", code)
	}
	if !strings.Contains(stdout.String(), `"invalid_argument"`) {
		t.Errorf("expected JSON error payload, saw %q", stdout.String())
	}
}
