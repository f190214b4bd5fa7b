package transport

import (
	"github.com/ValentinKolb/moray/rpc/common"
	"net"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerReplyFunc writes one response message for the request currently handled.
// It may be called any number of times, every call produces one frame.
type ServerReplyFunc func(resp []byte) error

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It streams the response messages through reply and returns once the response is complete
type ServerHandleFunc func(req []byte, reply ServerReplyFunc)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen creates a listener for the configured endpoint and serves it (blocking)
	Listen(config common.ServerConfig) error
	// Serve accepts connections on an existing listener until Close is called (blocking)
	Serve(listener net.Listener, config common.ServerConfig) error
	// Close stops accepting connections and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// It owns a bounded pool of connections, every call claims one connection exclusively.
type IRPCClientTransport interface {
	// Connect validates the configuration and prepares the pool bookkeeping.
	// Connections are established lazily on the first claim that needs one.
	Connect(config common.ClientConfig) error
	// Claim blocks up to the configured claim timeout until a connection is available
	// Errors: common.ErrPoolTimeout, common.ErrPoolClosed or common.ErrTransport (dial failure)
	Claim() (IClaim, error)
	// Close closes the pool. Claimed connections are closed when they are released.
	Close() error
}

// IClaim is the exclusive ownership of one pooled connection for one call.
// A claim is not safe for concurrent use and must be released exactly once.
type IClaim interface {
	// Send writes one request message (common.ErrTransport on failure)
	Send(req []byte) error
	// Receive blocks until the next response message of the outstanding request arrives
	// Errors: common.ErrTransport for I/O failures, common.ErrProtocol for frames
	// that do not belong to the outstanding request
	Receive() ([]byte, error)
	// Release gives the connection back to the pool. If reusable is false,
	// or the claim saw an I/O or protocol failure, the connection is closed instead.
	// Calls after the first one are ignored.
	Release(reusable bool)
}
