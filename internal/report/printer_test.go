package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/profiles"
	"gopkg.in/yaml.v3"
)

func sampleReport(t *testing.T, profile *profiles.Profile) *Report {
	t.Helper()

	request, _ := modbus.ReadHoldingRegistersRequest(1, 5, 2)
	raw := modbus.AppendChecksum([]byte{0x01, 0x03, 0x04, 0x00, 0x0A, 0x80, 0x00})
	resp, err := modbus.DecodeResponse(raw, 5, modbus.ParseOptions{})
	if err != nil {
		t.Fatalf("DecodeResponse() should have succeeded, got: %v", err)
	}
	return Build(request, resp, profile)
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(FormatTable, &buf).Print(sampleReport(t, nil)); err != nil {
		t.Fatalf("Print() should have succeeded, got: %v", err)
	}

	want := "\nUnit ID: 1, Function: 3, Number of registers: 2\n" +
		"  Register |    Hex |      Dec\n" +
		"------------------------------\n" +
		"         5 |   000A |       10\n" +
		"         6 |   8000 |   -32767\n"
	if buf.String() != want {
		t.Errorf("expected:\n%q\nsaw:\n%q", want, buf.String())
	}
}

func TestPrintTableWithProfile(t *testing.T) {
	l, err := profiles.NewLoader()
	if err != nil {
		t.Fatalf("NewLoader() should have succeeded, got: %v", err)
	}
	p, err := l.Parse([]byte(`{"profile": {"id": "t"}, "registers": [{"address": 5, "name": "pv_voltage", "scale_factor": 0.5, "unit": "V"}]}`))
	if err != nil {
		t.Fatalf("Parse() should have succeeded, got: %v", err)
	}

	r := sampleReport(t, p)
	if r.Registers[0].Scaled == nil || *r.Registers[0].Scaled != 5 {
		t.Errorf("expected scaled value 5, saw %+v", r.Registers[0])
	}
	if r.Registers[1].Scaled != nil {
		t.Errorf("expected register 6 to be unlabelled, saw %+v", r.Registers[1])
	}

	var buf bytes.Buffer
	if err := NewPrinter(FormatTable, &buf).Print(r); err != nil {
		t.Fatalf("Print() should have succeeded, got: %v", err)
	}
	if !strings.Contains(buf.String(), "pv_voltage") || !strings.Contains(buf.String(), "5 V") {
		t.Errorf("expected labelled row in:\n%s", buf.String())
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(FormatJSON, &buf).Print(sampleReport(t, nil)); err != nil {
		t.Fatalf("Print() should have succeeded, got: %v", err)
	}

	var doc struct {
		Request   string `json:"request"`
		Registers []struct {
			Address int    `json:"address"`
			Hex     string `json:"hex"`
			Value   int    `json:"value"`
		} `json:"registers"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Request != "01 03 00 05 00 02 D4 0A" {
		t.Errorf("unexpected request %q", doc.Request)
	}
	if len(doc.Registers) != 2 || doc.Registers[1].Value != -32767 || doc.Registers[1].Hex != "8000" {
		t.Errorf("unexpected registers: %+v", doc.Registers)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(FormatYAML, &buf).Print(sampleReport(t, nil)); err != nil {
		t.Fatalf("Print() should have succeeded, got: %v", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	regs, ok := doc["registers"].([]interface{})
	if !ok || len(regs) != 2 {
		t.Fatalf("unexpected registers: %v", doc["registers"])
	}
	first := regs[0].(map[string]interface{})
	if first["address"] != 5 || first["value"] != 10 {
		t.Errorf("unexpected first register: %v", first)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(FormatJSON, &buf).PrintError("connection_error", errors.New("peer closed")); err != nil {
		t.Fatalf("PrintError() should have succeeded, got: %v", err)
	}
	if !strings.Contains(buf.String(), `"code":"connection_error"`) {
		t.Errorf("unexpected error payload: %s", buf.String())
	}

	buf.Reset()
	NewPrinter(FormatTable, &buf).PrintError("x", errors.New("y"))
	if buf.Len() != 0 {
		t.Errorf("expected no table output, saw %q", buf.String())
	}
}

func TestPrintUnknownFormat(t *testing.T) {
	err := NewPrinter("xml", &bytes.Buffer{}).Print(sampleReport(t, nil))
	if !errors.Is(err, modbus.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got: %v", err)
	}
}
