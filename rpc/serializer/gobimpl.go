package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Every message carries its own type information, so frames can be decoded independently.
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("failed to encode message using GOB: %w", err)
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	buf := bytes.NewBuffer(b)
	if err := gob.NewDecoder(buf).Decode(msg); err != nil {
		return fmt.Errorf("failed to decode GOB message: %w", err)
	}
	if buf.Len() != 0 {
		return fmt.Errorf("failed to decode GOB message: %d trailing bytes", buf.Len())
	}
	return nil
}
