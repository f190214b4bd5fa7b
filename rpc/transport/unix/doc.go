// Package unix implements the transport layer of the moray RPC system using
// Unix domain sockets. It is mainly used to talk to a development server on
// the same machine.
//
// Key Components:
//
//   - clientConnector: Establishes pooled connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners, removing stale socket files first
//
// The default server buffer size is 64 KB.
package unix
