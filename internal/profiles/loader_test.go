package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/types"
)

const jsonProfile = `{
  "profile": {"id": "anenji-4kw", "vendor": "Anenji"},
  "registers": [
    {"address": 201, "name": "battery_voltage", "scale_factor": 0.1, "unit": "V", "data_type": "uint16"},
    {"address": 202, "name": "battery_current", "scale_factor": 0.1, "unit": "A"}
  ]
}`

const yamlProfile = `profile:
  id: anenji-4kw
registers:
  - address: 300
    name: pv_power
    unit: W
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader() should have succeeded, got: %v", err)
	}
	return l
}

func TestLoadJSONProfile(t *testing.T) {
	p, err := newTestLoader(t).Load(writeFile(t, "profile.json", jsonProfile))
	if err != nil {
		t.Fatalf("Load() should have succeeded, got: %v", err)
	}

	if p.Definition.Profile.ID != "anenji-4kw" {
		t.Errorf("unexpected profile id %q", p.Definition.Profile.ID)
	}

	reg, ok := p.Lookup(202)
	if !ok || reg.Name != "battery_current" {
		t.Fatalf("expected battery_current at 202, saw %+v", reg)
	}
	if _, ok := p.Lookup(203); ok {
		t.Error("expected no register at 203")
	}
}

func TestLoadYAMLProfile(t *testing.T) {
	p, err := newTestLoader(t).Load(writeFile(t, "profile.yaml", yamlProfile))
	if err != nil {
		t.Fatalf("Load() should have succeeded, got: %v", err)
	}

	reg, ok := p.Lookup(300)
	if !ok || reg.Unit != "W" {
		t.Errorf("expected pv_power at 300, saw %+v", reg)
	}
}

func TestLoadRejectsInvalidProfiles(t *testing.T) {
	l := newTestLoader(t)
	for name, content := range map[string]string{
		"missing-id.json":  `{"profile": {}, "registers": []}`,
		"bad-address.json": `{"profile": {"id": "x"}, "registers": [{"address": 70000, "name": "a"}]}`,
		"unknown-key.json": `{"profile": {"id": "x"}, "registers": [{"address": 1, "name": "a", "foo": 1}]}`,
		"not-json.json":    `{`,
		"bad-type.yaml":    "profile:\n  id: x\nregisters:\n  - address: 1\n    name: a\n    data_type: float32\n",
		"broken-yaml.yaml": "profile: [",
	} {
		if _, err := l.Load(writeFile(t, name, content)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	if _, err := l.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestScaled(t *testing.T) {
	reading := modbus.RegisterReading{Address: 1, Value: 0xFFF6, SignedValue: modbus.SignedCorrected.Signed(0xFFF6)}

	signed := &types.RegisterDefinition{ScaleFactor: 0.1}
	if got := Scaled(signed, reading); got != -1.0 {
		t.Errorf("expected -1.0, saw %v", got)
	}

	unsigned := &types.RegisterDefinition{DataType: types.DataTypeUint16}
	if got := Scaled(unsigned, reading); got != 65526 {
		t.Errorf("expected 65526, saw %v", got)
	}
}

func TestLookupOnNilProfile(t *testing.T) {
	var p *Profile
	if _, ok := p.Lookup(1); ok {
		t.Error("expected lookup on nil profile to fail")
	}
}
