package client

import (
	"fmt"
	"github.com/ValentinKolb/moray/lib/moray"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/serializer"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/ValentinKolb/moray/rpc/transport/tcp"
	"net"
	"strconv"
)

// MorayClient is a moray client backed by a pool of connections.
// It is safe for concurrent use, every call claims its own connection.
type MorayClient struct {
	rpcClientAdapter
}

var _ moray.IClient = (*MorayClient)(nil)

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// NewMorayClient creates a new client.
// No connection is opened here, the pool dials on demand.
func NewMorayClient(config common.ClientConfig, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*MorayClient, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: no transport provided", common.ErrConfig)
	}
	if serializer == nil {
		return nil, fmt.Errorf("%w: no serializer provided", common.ErrConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	Logger.Debugf("Created moray client for %v", config.Transport.Endpoints)

	return &MorayClient{
		rpcClientAdapter: rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

// NewMorayClientFromAddress creates a client for a "host:port" address
// with the default configuration, the tcp transport and the binary serializer.
func NewMorayClientFromAddress(address string) (*MorayClient, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid address %q: %v", common.ErrConfig, address, err)
	}
	if host == "" {
		return nil, fmt.Errorf("%w: invalid address %q: missing host", common.ErrConfig, address)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid address %q: port must be a number between 1 and 65535", common.ErrConfig, address)
	}

	return NewMorayClient(
		common.DefaultClientConfig(net.JoinHostPort(host, strconv.Itoa(port))),
		tcp.NewTCPClientTransport(),
		serializer.NewBinarySerializer(),
	)
}

// MustNewMorayClientFromAddress is like NewMorayClientFromAddress but panics on error
func MustNewMorayClientFromAddress(address string) *MorayClient {
	client, err := NewMorayClientFromAddress(address)
	if err != nil {
		panic(err)
	}
	return client
}

// NewMorayClientFromParts creates a client for an ip and port, see NewMorayClientFromAddress
func NewMorayClientFromParts(ip net.IP, port uint16) (*MorayClient, error) {
	if ip == nil {
		return nil, fmt.Errorf("%w: no ip provided", common.ErrConfig)
	}
	return NewMorayClientFromAddress(net.JoinHostPort(ip.String(), strconv.Itoa(int(port))))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see moray.IClient)
// --------------------------------------------------------------------------

func (c *MorayClient) Close() error {
	return c.transport.Close()
}
