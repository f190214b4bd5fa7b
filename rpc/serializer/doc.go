// Package serializer provides message serialization capabilities for the moray
// RPC system. It defines a common interface and multiple implementations for
// serializing and deserializing the common.Message envelope exchanged between
// client and server.
//
// Only the envelope is encoded by the serializer. The argument list of a request
// and the value of a data message are JSON documents carried in Message.Data,
// so every serializer transports them unchanged.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for speed
//     and space efficiency. Uses a flag-based approach to encode only present fields.
//
//   - msgpackSerializerImpl: MessagePack encoding based on vmihailenco/msgpack,
//     compact and interoperable with non-Go peers.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for debugging
//     or interoperability with other systems, but with lower performance.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding. Larger
//     payloads and slower than the others, kept for compatibility.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	serializer := serializer.NewBinarySerializer()
//	data, err := serializer.Serialize(message)
//	// ... send data ...
//	var receivedMsg common.Message
//	err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
