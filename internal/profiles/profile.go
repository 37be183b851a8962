package profiles

import (
	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/types"
)

// Profile is a loaded register profile indexed by address.
type Profile struct {
	Definition *types.RegisterProfile
	byAddress  map[int]*types.RegisterDefinition
}

func newProfile(def *types.RegisterProfile) *Profile {
	byAddress := make(map[int]*types.RegisterDefinition, len(def.Registers))
	for i := range def.Registers {
		reg := &def.Registers[i]
		byAddress[int(reg.Address)] = reg
	}

	return &Profile{Definition: def, byAddress: byAddress}
}

func (p *Profile) Lookup(address int) (*types.RegisterDefinition, bool) {
	if p == nil {
		return nil, false
	}
	reg, ok := p.byAddress[address]
	return reg, ok
}

// Scaled applies the register's data type and scale factor to a reading.
func Scaled(reg *types.RegisterDefinition, r modbus.RegisterReading) float64 {
	scaleFactor := reg.ScaleFactor
	if scaleFactor == 0 {
		scaleFactor = 1.0
	}

	if reg.DataType == types.DataTypeUint16 {
		return float64(r.Value) * scaleFactor
	}
	return float64(r.SignedValue) * scaleFactor
}
