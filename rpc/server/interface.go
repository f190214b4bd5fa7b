package server

import (
	"github.com/ValentinKolb/moray/lib/moray/mstore"
	"github.com/ValentinKolb/moray/rpc/common"
)

// StreamFunc sends one result value of the current call as data message
type StreamFunc func(value interface{}) error

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request against the store.
	// Result values are sent through stream while the request is processed,
	// the returned message (end or error) terminates the response.
	Handle(req *common.Message, store *mstore.Store, stream StreamFunc) (resp *common.Message)
}
