// Package profiles loads register profiles that attach names, units and
// scale factors to raw register addresses.
package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/attilagyurman/anenji-local-modbus/internal/types"
	"gopkg.in/yaml.v3"
)

type Loader struct {
	validator *Validator
}

func NewLoader() (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{validator: validator}, nil
}

// Load reads a JSON or YAML profile (by file extension) and validates it.
func (l *Loader) Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile not found: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	return l.Parse(data)
}

// Parse validates and decodes a JSON profile.
func (l *Loader) Parse(data []byte) (*Profile, error) {
	if err := l.validator.ValidateProfile(data); err != nil {
		return nil, err
	}

	var def types.RegisterProfile
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return newProfile(&def), nil
}

// Schema-Validierung läuft immer auf JSON
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
