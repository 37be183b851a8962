package rendezvous

import "time"

// Config holds the ports and timeouts of a handshake session.
// Zero AcceptTimeout and ReadTimeout mean no deadline; the context
// passed to Exchange can still cancel those stages.
type Config struct {
	DiscoveryPort  int
	DataPort       int
	UDPAckTimeout  time.Duration
	ReadBufferSize int
	AcceptTimeout  time.Duration
	ReadTimeout    time.Duration
	// ListenAddress is the local interface for the TCP listener, empty for all.
	ListenAddress string
}

// DefaultConfig returns the values the datalogger firmware expects.
func DefaultConfig() Config {
	return Config{
		DiscoveryPort:  58899,
		DataPort:       8899,
		UDPAckTimeout:  2 * time.Second,
		ReadBufferSize: 1024,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DiscoveryPort == 0 {
		c.DiscoveryPort = def.DiscoveryPort
	}
	if c.DataPort == 0 {
		c.DataPort = def.DataPort
	}
	if c.UDPAckTimeout <= 0 {
		c.UDPAckTimeout = def.UDPAckTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	return c
}
