package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared socket settings
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes (in bytes, 0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int // 0 disables keep-alive
	TCPLingerSec    int // negative leaves the OS default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the transport settings of the server
type ServerTransportConfig struct {
	Endpoint string
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the development server.
type ServerConfig struct {
	// I/O timeout per frame read and write
	TimeoutSecond int64

	Transport ServerTransportConfig

	// Path of the bbolt file, empty keeps all data in memory
	DataFile string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Storage
	addSection("Storage")
	if c.DataFile == "" {
		addField("Engine", "memory")
	} else {
		addField("Engine", "bbolt")
		addField("Data File", c.DataFile)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClaimTimeoutUnbounded makes Claim wait until a connection becomes available
const ClaimTimeoutUnbounded = -1

// ClientTransportConfig holds the pool and socket settings of the client
type ClientTransportConfig struct {
	// Backend addresses, new connections are spread round robin across them
	Endpoints []string
	// Upper bound of simultaneously open connections
	MaxConnections int
	// How long a claim waits for a free connection, ClaimTimeoutUnbounded waits forever
	ClaimTimeoutMillisecond int
	SocketConf
	TCPConf
}

// ClientConfig holds all configuration parameters of a client
type ClientConfig struct {
	// I/O timeout per frame read and write (0 = no deadline)
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// DefaultClientConfig returns the configuration used by the address based constructors
func DefaultClientConfig(endpoints ...string) ClientConfig {
	return ClientConfig{
		TimeoutSecond: 30,
		Transport: ClientTransportConfig{
			Endpoints:               endpoints,
			MaxConnections:          4,
			ClaimTimeoutMillisecond: 5000,
			TCPConf: TCPConf{
				TCPNoDelay:   true,
				TCPLingerSec: -1,
			},
		},
	}
}

// Validate checks the transport independent parts of the configuration.
// Endpoint syntax is checked by the transport connector.
func (c *ClientConfig) Validate() error {
	if len(c.Transport.Endpoints) == 0 {
		return fmt.Errorf("%w: no endpoints provided", ErrConfig)
	}
	for i, endpoint := range c.Transport.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("%w: endpoint %d is empty", ErrConfig, i)
		}
	}
	if c.Transport.MaxConnections < 1 {
		return fmt.Errorf("%w: max connections must be at least 1, got %d", ErrConfig, c.Transport.MaxConnections)
	}
	if c.Transport.ClaimTimeoutMillisecond < ClaimTimeoutUnbounded {
		return fmt.Errorf("%w: claim timeout must be >= 0 or unbounded (%d), got %d",
			ErrConfig, ClaimTimeoutUnbounded, c.Transport.ClaimTimeoutMillisecond)
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %d", ErrConfig, c.TimeoutSecond)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	claimTimeout := fmt.Sprintf("%d ms", c.Transport.ClaimTimeoutMillisecond)
	if c.Transport.ClaimTimeoutMillisecond == ClaimTimeoutUnbounded {
		claimTimeout = "unbounded"
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Connections", strconv.Itoa(c.Transport.MaxConnections))
	addField("Claim Timeout", claimTimeout)

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
