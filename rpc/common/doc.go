// Package common provides core data structures and utilities shared across
// the moray client, the development server and the command line tools.
//
// The package focuses on:
//   - Message envelope definition for the streaming request/response protocol
//   - Configuration structures for client and server components
//   - The error taxonomy shared by all layers
//   - Custom logging implementation based on the Dragonboat logger facade
//
// Key Components:
//
//   - Message: The single envelope used on the wire. A call is one request
//     message (method name plus a JSON argument array) answered by a stream of
//     data messages terminated by exactly one end or error message.
//
//   - MessageType: Enumeration of the envelope kinds (request, data, end, error).
//
//   - ClientConfig: Pool and socket settings of a client (endpoints, max
//     connections, claim timeout, I/O timeout). Validate reports ErrConfig.
//
//   - ServerConfig: Settings of the development server.
//
//   - Errors: ErrConfig, ErrPoolTimeout, ErrPoolClosed, ErrTransport, ErrProtocol
//     and ErrHandlerAborted sentinels plus the RemoteError and HandlerError types.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging facade while providing consistent formatting across the application.
package common
