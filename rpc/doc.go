// Package rpc provides the request/response streaming layer of moray.
// A call sends one request message and receives any number of data messages
// followed by exactly one end or error message on the same connection.
//
// The package is organized into several subpackages:
//
//   - common: The Message envelope, configuration structures, the error
//     taxonomy and logging.
//
//   - transport: The connection pool (client) and connection handling (server)
//     with pluggable TCP and Unix socket implementations.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB, MsgPack)
//     for converting between Message objects and byte arrays.
//
//   - client: The moray client implementing moray.IClient on top of the pool.
//
//   - server: A development server answering the moray methods from a mstore.Store.
package rpc
