package serializer

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgPackSerializer creates a new serializer using the MessagePack format
func NewMsgPackSerializer() IRPCSerializer {
	return &msgpackSerializerImpl{}
}

// msgpackSerializerImpl implements the IRPCSerializer interface using msgpack encoding.
// Encoders and decoders are taken from the msgpack package pools.
type msgpackSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.UseCompactInts(true)
	err := enc.Encode(&msg)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message using MsgPack: %w", err)
	}
	return buf.Bytes(), nil
}

func (m msgpackSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(b))
	err := dec.Decode(msg)
	msgpack.PutDecoder(dec)
	if err != nil {
		return fmt.Errorf("failed to decode MsgPack message: %w", err)
	}
	return nil
}
