// Package transport defines the interfaces and abstractions for the RPC
// communication of the moray client. It provides a common contract that all
// transport implementations must fulfill, enabling protocol-agnostic communication.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for the client side connection pool. Every call
//     claims one connection exclusively (IClaim) and releases it when the call ended.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receive requests and stream response messages back through a reply function.
//
//   - ServerHandleFunc / ServerReplyFunc: Function types for request handling callbacks.
package transport
