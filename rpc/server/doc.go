// Package server implements the development RPC server of the moray system.
// It serves a mstore.Store over any server transport, so the client can be
// exercised end to end without a real moray deployment.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that processes one request against the store and
//     streams the results.
//
//   - NewMorayServerAdapter: Factory function creating the adapter for the moray
//     methods (listBuckets, getBucket, createBucket, delBucket, findObjects,
//     getObject, putObject, delObject, sql). Every result value is sent as one
//     data message, the call ends with an end message or an error message
//     carrying the error name and message.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms. The store is kept in memory unless
//     ServerConfig.DataFile names a bbolt file.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Transport: common.ServerTransportConfig{Endpoint: "127.0.0.1:2020"},
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server handles connections concurrently, requests of one connection
//	are processed in order. Serve and ServeListener should be called only once.
package server
