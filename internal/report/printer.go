// Package report renders decoded register readings for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/profiles"
	"github.com/attilagyurman/anenji-local-modbus/internal/types"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Row is one register reading, labelled if a profile knows its address.
type Row struct {
	modbus.RegisterReading `yaml:",inline"`

	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Unit   string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Scaled *float64 `json:"scaled,omitempty" yaml:"scaled,omitempty"`
}

// Report is the document emitted for JSON and YAML output.
type Report struct {
	SessionID    string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Device       string `json:"device,omitempty" yaml:"device,omitempty"`
	Request      string `json:"request" yaml:"request"`
	UnitID       uint8  `json:"unit_id" yaml:"unit_id"`
	FunctionCode uint8  `json:"function_code" yaml:"function_code"`
	ChecksumOK   bool   `json:"checksum_ok" yaml:"checksum_ok"`
	Registers    []Row  `json:"registers" yaml:"registers"`
}

// Build combines a decoded response with optional profile labels.
func Build(request []byte, resp *modbus.Response, profile *profiles.Profile) *Report {
	rows := make([]Row, 0, len(resp.Readings))
	for _, r := range resp.Readings {
		row := Row{RegisterReading: r}
		if reg, ok := profile.Lookup(r.Address); ok {
			scaled := profiles.Scaled(reg, r)
			row.Name = reg.Name
			row.Unit = reg.Unit
			row.Scaled = &scaled
		}
		rows = append(rows, row)
	}

	return &Report{
		Request:      modbus.FormatHex(request),
		UnitID:       resp.UnitID,
		FunctionCode: resp.FunctionCode,
		ChecksumOK:   resp.ChecksumOK,
		Registers:    rows,
	}
}

type Printer struct {
	format Format
	out    io.Writer
}

func NewPrinter(format Format, out io.Writer) *Printer {
	return &Printer{format: format, out: out}
}

func (p *Printer) Print(r *Report) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return p.printTable(r)
	default:
		return fmt.Errorf("%w: unknown output format %q", modbus.ErrInvalidArgument, p.format)
	}
}

// PrintError writes a failure in the selected format. Table output is left
// to the logger.
func (p *Printer) PrintError(code string, err error) error {
	resp := types.NewErrorResponse(code, err.Error(), nil)
	switch p.format {
	case FormatJSON:
		return json.NewEncoder(p.out).Encode(resp)
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	default:
		return nil
	}
}

func (p *Printer) printTable(r *Report) error {
	labelled := false
	for _, row := range r.Registers {
		if row.Name != "" {
			labelled = true
			break
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nUnit ID: %d, Function: %d, Number of registers: %d\n",
		r.UnitID, r.FunctionCode, len(r.Registers))
	if !r.ChecksumOK {
		sb.WriteString("Warning: response checksum mismatch\n")
	}

	header := fmt.Sprintf("%10s | %6s | %8s", "Register", "Hex", "Dec")
	if labelled {
		header += fmt.Sprintf(" | %-24s | %s", "Name", "Value")
	}
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("-", len(header)) + "\n")

	for _, row := range r.Registers {
		line := fmt.Sprintf("%10d | %6s | %8d", row.Address, row.RawHex, row.SignedValue)
		if labelled && row.Scaled != nil {
			line += fmt.Sprintf(" | %-24s | %g %s", row.Name, *row.Scaled, row.Unit)
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	_, err := io.WriteString(p.out, sb.String())
	return err
}
