package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/moray/rpc/common"
	"strings"
	"testing"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	largeValue := `{"blob":"` + strings.Repeat("x", 1024) + `"}`
	veryLargeValue := `{"blob":"` + strings.Repeat("x", 1024*16) + `"}`

	return map[string]common.Message{
		"End": {
			MsgType: common.MsgTEnd,
		},
		"SmallRequest": {
			MsgType: common.MsgTRequest,
			Method:  "getObject",
			Data:    json.RawMessage(`["b","k",{}]`),
		},
		"MediumRequest": {
			MsgType: common.MsgTRequest,
			Method:  "findObjects",
			Data:    json.RawMessage(`["medium_length_bucket_name","(&(color=red)(size>=10))",{"limit":100,"sort":{"attribute":"size","order":"DESC"}}]`),
		},
		"SmallData": {
			MsgType: common.MsgTData,
			Data:    json.RawMessage(`{"key":"k","value":{"v":1}}`),
		},
		"LargeData": {
			MsgType: common.MsgTData,
			Data:    json.RawMessage(largeValue), // ~1KB of data
		},
		"VeryLargeData": {
			MsgType: common.MsgTData,
			Data:    json.RawMessage(veryLargeValue), // ~16KB of data
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			ErrName: common.ErrCodeInvalidQuery,
			ErrMsg:  "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
