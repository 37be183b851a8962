package types

// RegisterProfile describes a known register layout of one inverter model.
type RegisterProfile struct {
	Profile   ProfileInfo          `json:"profile" yaml:"profile"`
	Registers []RegisterDefinition `json:"registers" yaml:"registers"`
}

type ProfileInfo struct {
	ID          string `json:"id" yaml:"id"`
	Vendor      string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type RegisterDefinition struct {
	Address     uint16   `json:"address" yaml:"address"`
	Name        string   `json:"name" yaml:"name"`
	DataType    DataType `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	ScaleFactor float64  `json:"scale_factor,omitempty" yaml:"scale_factor,omitempty"`
	Unit        string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

type DataType string

const (
	DataTypeInt16  DataType = "int16"
	DataTypeUint16 DataType = "uint16"
)
