package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/attilagyurman/anenji-local-modbus/internal/modbus"
	"github.com/attilagyurman/anenji-local-modbus/internal/rendezvous"
	"github.com/spf13/viper"
)

type Config struct {
	Handshake HandshakeConfig `mapstructure:"handshake"`
	Modbus    ModbusConfig    `mapstructure:"modbus"`
	Output    OutputConfig    `mapstructure:"output"`
}

type HandshakeConfig struct {
	DiscoveryPort  int           `mapstructure:"discovery_port"`
	DataPort       int           `mapstructure:"data_port"`
	UDPAckTimeout  time.Duration `mapstructure:"udp_ack_timeout"`
	ReadBufferSize int           `mapstructure:"read_buffer_size"`
	AcceptTimeout  time.Duration `mapstructure:"accept_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	ListenAddress  string        `mapstructure:"listen_address"`
}

type ModbusConfig struct {
	UnitID       uint8  `mapstructure:"unit_id"`
	FunctionCode uint8  `mapstructure:"function_code"`
	SignedMode   string `mapstructure:"signed_mode"`
	StrictCRC    bool   `mapstructure:"strict_crc"`
}

type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Profile string `mapstructure:"profile"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("handshake.discovery_port", 58899)
	v.SetDefault("handshake.data_port", 8899)
	v.SetDefault("handshake.udp_ack_timeout", "2s")
	v.SetDefault("handshake.read_buffer_size", 1024)
	v.SetDefault("handshake.accept_timeout", "0s")
	v.SetDefault("handshake.read_timeout", "0s")
	v.SetDefault("handshake.listen_address", "")

	v.SetDefault("modbus.unit_id", 1)
	v.SetDefault("modbus.function_code", modbus.FuncCodeReadHoldingRegisters)
	v.SetDefault("modbus.signed_mode", "compatible")
	v.SetDefault("modbus.strict_crc", false)

	v.SetDefault("output.format", "table")
	v.SetDefault("output.profile", "")
}

// Load reads the optional config file at path (empty to skip) and the
// ANENJI_* environment variables into v.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	// Environment Variables mit Prefix ANENJI_, z.B. ANENJI_HANDSHAKE_DATA_PORT
	v.SetEnvPrefix("ANENJI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := validPort("handshake.discovery_port", c.Handshake.DiscoveryPort); err != nil {
		return err
	}
	if err := validPort("handshake.data_port", c.Handshake.DataPort); err != nil {
		return err
	}
	if c.Handshake.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: handshake.read_buffer_size must be positive", modbus.ErrInvalidArgument)
	}
	if _, err := modbus.ParseSignedMode(c.Modbus.SignedMode); err != nil {
		return err
	}
	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output format %q", modbus.ErrInvalidArgument, c.Output.Format)
	}
	return nil
}

func validPort(key string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: %s out of range: %d", modbus.ErrInvalidArgument, key, port)
	}
	return nil
}

// Rendezvous converts the handshake section into a session config.
func (h HandshakeConfig) Rendezvous() rendezvous.Config {
	return rendezvous.Config{
		DiscoveryPort:  h.DiscoveryPort,
		DataPort:       h.DataPort,
		UDPAckTimeout:  h.UDPAckTimeout,
		ReadBufferSize: h.ReadBufferSize,
		AcceptTimeout:  h.AcceptTimeout,
		ReadTimeout:    h.ReadTimeout,
		ListenAddress:  h.ListenAddress,
	}
}

// ParseOptions converts the modbus section into parser options.
func (m ModbusConfig) ParseOptions() (modbus.ParseOptions, error) {
	mode, err := modbus.ParseSignedMode(m.SignedMode)
	if err != nil {
		return modbus.ParseOptions{}, err
	}
	return modbus.ParseOptions{SignedMode: mode, StrictCRC: m.StrictCRC}, nil
}
