// Package tcp implements the TCP socket transport of the moray RPC system.
// It provides the TCP specific connectors for the base package, which owns
// the connection pool, the frame format and the server accept loop.
//
// Key Components:
//
//   - clientConnector: validates host:port endpoints, dials with the configured
//     timeout and applies the TCPConf and SocketConf settings to new connections
//
//   - serverConnector: creates the TCP listener for the development server
//
// The default server buffer size is set to 512 KB.
package tcp
