package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
//
// Layout: 1 byte MsgType, 1 byte flags, then every present field as
// 4 byte big endian length followed by the field bytes, in flag order.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasMethod  byte = 1 << 0
	hasData    byte = 1 << 1
	hasErrName byte = 1 << 2
	hasErrMsg  byte = 1 << 3

	knownFlags = hasMethod | hasData | hasErrName | hasErrMsg
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	result := make([]byte, b.sizeBytes(msg))

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// writeField writes a length prefixed field
	writeField := func(field []byte) {
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(field)))
		pos += 4
		copy(result[pos:pos+len(field)], field)
		pos += len(field)
	}

	// Handle Method
	if msg.Method != "" {
		flags |= hasMethod
		writeField([]byte(msg.Method))
	}

	// Handle Data
	if msg.Data != nil {
		flags |= hasData
		writeField(msg.Data)
	}

	// Handle ErrName
	if msg.ErrName != "" {
		flags |= hasErrName
		writeField([]byte(msg.ErrName))
	}

	// Handle ErrMsg
	if msg.ErrMsg != "" {
		flags |= hasErrMsg
		writeField([]byte(msg.ErrMsg))
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]
	if flags&^knownFlags != 0 {
		return fmt.Errorf("unknown field flags 0x%02x", flags&^knownFlags)
	}

	// Initialize read position
	pos := 2

	// readField reads a length prefixed field
	readField := func(name string) ([]byte, error) {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("data too short for %s length", name)
		}
		fieldLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		if fieldLen < 0 || pos+fieldLen > len(data) {
			return nil, fmt.Errorf("data too short for %s data", name)
		}
		field := data[pos : pos+fieldLen]
		pos += fieldLen
		return field, nil
	}

	// Read Method if present
	msg.Method = ""
	if flags&hasMethod != 0 {
		field, err := readField("method")
		if err != nil {
			return err
		}
		msg.Method = string(field)
	}

	// Read Data if present - the frame buffer may be reused, so the data is copied
	msg.Data = nil
	if flags&hasData != 0 {
		field, err := readField("data")
		if err != nil {
			return err
		}
		msg.Data = make([]byte, len(field))
		copy(msg.Data, field)
	}

	// Read ErrName if present
	msg.ErrName = ""
	if flags&hasErrName != 0 {
		field, err := readField("error name")
		if err != nil {
			return err
		}
		msg.ErrName = string(field)
	}

	// Read ErrMsg if present
	msg.ErrMsg = ""
	if flags&hasErrMsg != 0 {
		field, err := readField("error message")
		if err != nil {
			return err
		}
		msg.ErrMsg = string(field)
	}

	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-pos)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Method != "" {
		size += 4 + len(msg.Method)
	}
	if msg.Data != nil {
		size += 4 + len(msg.Data)
	}
	if msg.ErrName != "" {
		size += 4 + len(msg.ErrName)
	}
	if msg.ErrMsg != "" {
		size += 4 + len(msg.ErrMsg)
	}

	return size
}
