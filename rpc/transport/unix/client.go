package unix

import (
	"errors"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/ValentinKolb/moray/rpc/transport/base"
	"net"
	"time"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New("empty socket path")
	}
	return nil
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return upgradeUnixConn(conn, config.Transport.SocketConf)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new pooled Unix client transport
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}

// upgradeUnixConn sets the socket buffer sizes if configured
func upgradeUnixConn(conn net.Conn, socketConf common.SocketConf) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	if socketConf.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(socketConf.WriteBufferSize); err != nil {
			return err
		}
	}
	if socketConf.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(socketConf.ReadBufferSize); err != nil {
			return err
		}
	}
	return nil
}
