package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// The output is human readable which makes it the choice for debugging with packet captures.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// filters like (&(a=b)(c<=d)) stay readable
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("failed to encode message using JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("failed to decode JSON message: %w", err)
	}
	return nil
}
