package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// A call consists of exactly one request message followed by any number of
// data messages and one terminal end or error message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type" msgpack:"type"`

	// Request only fields
	Method string `json:"method,omitempty" msgpack:"method,omitempty"` // Name of the remote method (e.g. getObject)

	// General fields
	Data json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"` // Request: JSON array of arguments, Data/End: JSON value

	// Error only fields
	ErrName string `json:"err_name,omitempty" msgpack:"err_name,omitempty"` // Error identity reported by the service (e.g. BucketNotFoundError)
	ErrMsg  string `json:"err_msg,omitempty" msgpack:"err_msg,omitempty"`   // Human readable error message
}

// DecodeData decodes the JSON payload of the message into v
func (m *Message) DecodeData(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message of type %s carries no data", m.MsgType)
	}
	return json.Unmarshal(m.Data, v)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a new request for the given method.
// The arguments are encoded as one JSON array in the order given.
func NewRequest(method string, args ...interface{}) (*Message, error) {
	if args == nil {
		args = []interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments for %s: %w", method, err)
	}
	return &Message{
		MsgType: MsgTRequest,
		Method:  method,
		Data:    data,
	}, nil
}

// NewDataResponse creates a new data message carrying one result value
func NewDataResponse(value interface{}) (*Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &Message{
		MsgType: MsgTData,
		Data:    data,
	}, nil
}

// NewEndResponse creates a new message that terminates a successful call
func NewEndResponse() *Message {
	return &Message{
		MsgType: MsgTEnd,
	}
}

// NewErrorResponse creates a new message that terminates a failed call
func NewErrorResponse(name, msg string) *Message {
	return &Message{
		MsgType: MsgTError,
		ErrName: name,
		ErrMsg:  msg,
	}
}

// NewErrorResponseFromError creates an error message from err.
// A *RemoteError keeps its code, every other error is reported as InternalError.
func NewErrorResponseFromError(err error) *Message {
	if remote, ok := AsRemoteError(err); ok {
		return NewErrorResponse(remote.Code, remote.Message)
	}
	return NewErrorResponse(ErrCodeInternal, err.Error())
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTRequest:
		return "request"
	case MsgTData:
		return "data"
	case MsgTEnd:
		return "end"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "request":
		*t = MsgTRequest
	case "data":
		*t = MsgTData
	case "end":
		*t = MsgTEnd
	case "error":
		*t = MsgTError
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// IsTerminal reports whether a message of this type ends a response stream
func (t MessageType) IsTerminal() bool {
	return t == MsgTEnd || t == MsgTError
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota
	MsgTRequest             // A call: method name plus argument list
	MsgTData                // One streamed result value
	MsgTEnd                 // Successful end of the response stream
	MsgTError               // Failed end of the response stream
)
