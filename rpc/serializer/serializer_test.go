package serializer

import (
	"bytes"
	"encoding/json"
	"github.com/ValentinKolb/moray/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":    NewJSONSerializer,
	"GOB":     NewGOBSerializer,
	"Binary":  NewBinarySerializer,
	"MsgPack": NewMsgPackSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Successful end of a stream
		{MsgType: common.MsgTEnd},

		// Request with arguments
		{
			MsgType: common.MsgTRequest,
			Method:  "getObject",
			Data:    json.RawMessage(`["widgets","w1",{"req_id":"abc"}]`),
		},

		// Data message
		{
			MsgType: common.MsgTData,
			Data:    json.RawMessage(`{"key":"w1","value":{"color":"red"}}`),
		},

		// Error message
		{
			MsgType: common.MsgTError,
			ErrName: common.ErrCodeBucketNotFound,
			ErrMsg:  "widgets does not exist",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTEnd,
			Method:  "sql",
			Data:    json.RawMessage(`[1,2,3]`),
			ErrName: "name",
			ErrMsg:  "message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeResetsMessage tests that a reused message does not keep fields of a previous message
func TestDeserializeResetsMessage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			full, err := serializer.Serialize(testMessages()[4])
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			end, err := serializer.Serialize(common.Message{MsgType: common.MsgTEnd})
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			var msg common.Message
			if err := serializer.Deserialize(full, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if err := serializer.Deserialize(end, &msg); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(msg, common.Message{MsgType: common.MsgTEnd}) {
				t.Errorf("Expected a clean end message, got %+v", msg)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTRequest; msgType <= common.MsgTError; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty data slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTData,
				Data:    json.RawMessage{},
			},
		},
		{
			name: "Error name without message",
			msg: common.Message{
				MsgType: common.MsgTError,
				ErrName: common.ErrCodeInternal,
			},
		},
		{
			name: "Large data",
			msg: common.Message{
				MsgType: common.MsgTData,
				Data:    json.RawMessage(`"` + string(bytes.Repeat([]byte("x"), 64*1024)) + `"`),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}
			if tc.msg.Method != result.Method {
				t.Errorf("Method mismatch: expected '%s', got '%s'", tc.msg.Method, result.Method)
			}
			if tc.msg.ErrName != result.ErrName || tc.msg.ErrMsg != result.ErrMsg {
				t.Errorf("Error mismatch: expected %s/%s, got %s/%s", tc.msg.ErrName, tc.msg.ErrMsg, result.ErrName, result.ErrMsg)
			}

			// Special handling for byte slices that may be nil or empty
			if (tc.msg.Data == nil) != (result.Data == nil) {
				t.Errorf("Data nil/non-nil mismatch: expected %v, got %v", tc.msg.Data, result.Data)
			} else if !bytes.Equal(tc.msg.Data, result.Data) {
				t.Errorf("Data content mismatch")
			}
		})
	}
}

// TestBinaryDataIsCopied tests that the decoded data does not alias the input buffer
func TestBinaryDataIsCopied(t *testing.T) {
	serializer := NewBinarySerializer()

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTData, Data: json.RawMessage(`"abc"`)})
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	var result common.Message
	if err := serializer.Deserialize(data, &result); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}

	// overwrite the frame buffer as the transport would when reading the next frame
	for i := range data {
		data[i] = 0
	}
	if string(result.Data) != `"abc"` {
		t.Errorf("Decoded data changed with the input buffer: %q", result.Data)
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{3, 0}, // End message, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for method",
			data:        []byte{1, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims method length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Invalid length for data",
			data:        []byte{2, 2, 0, 0, 0, 10}, // Claims data length 10 but no bytes provided
			expectError: true,
		},
		{
			name:        "Unknown flags",
			data:        []byte{2, 0x80},
			expectError: true,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{3, 0, 'x'},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestInvalidData tests that all serializers reject garbage input
func TestInvalidData(t *testing.T) {
	for name, factory := range testSerializers {
		if name == "Binary" {
			continue // covered by TestInvalidBinaryData
		}
		t.Run(name, func(t *testing.T) {
			var msg common.Message
			if err := factory().Deserialize([]byte{0xc1}, &msg); err == nil {
				t.Errorf("Expected error for garbage input")
			}
		})
	}
}
