// Package base provides the foundation for the transport layers of the moray
// RPC system, implementing the core functionality independent of the specific
// network protocol (TCP, Unix sockets). Protocol specific behaviour is injected
// through connectors.
//
// The package focuses on:
//   - A bounded, lazily filled connection pool with exclusive claims
//   - A frame based message protocol with requestID correlation
//   - A server accept loop that streams any number of response frames per request
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: The connection pool. A connection is dialed only when a claim
//     finds no idle connection and the pool is below MaxConnections. Connections are
//     spread round robin across the configured endpoints. A claim waits up to the
//     configured claim timeout for a free slot.
//
//   - clientClaim: Exclusive use of one connection for one call. Releasing a claim
//     returns a healthy connection to the idle list. A claim that saw an I/O or
//     framing failure, or that was released as not reusable, closes its connection.
//
//   - serverTransport: Accepts connections and passes every request frame to the
//     registered handler together with a reply function. Requests of one connection
//     are processed in order.
//
// Frame Format:
//
//	8 bytes  request id (uint64, big endian)
//	4 bytes  payload length (uint32, big endian, at most MaxFrameSize)
//	N bytes  payload
//
// Thread Safety:
//
//	The transports are safe for concurrent use. A single claim is not.
package base
