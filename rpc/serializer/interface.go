package serializer

import "github.com/ValentinKolb/moray/rpc/common"

// IRPCSerializer converts envelopes to and from the payload of one frame.
// Client and server must use the same implementation, nothing on the wire identifies it.
type IRPCSerializer interface {
	// Serialize encodes one request or response message
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes one message into msg.
	// Fields absent in b are reset to their zero value, so msg can be reused
	// for every frame of a response stream.
	// The decoded message must not alias b, the transport reuses its read buffers.
	Deserialize(b []byte, msg *common.Message) error
}
