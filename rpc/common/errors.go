package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

var (
	// ErrConfig is returned for invalid construction input (bad address, pool size, ...)
	ErrConfig = errors.New("invalid configuration")
	// ErrPoolTimeout is returned when no connection became available within the claim timeout
	ErrPoolTimeout = errors.New("timed out waiting for a pooled connection")
	// ErrPoolClosed is returned when a connection is claimed from a closed pool
	ErrPoolClosed = errors.New("connection pool is closed")
	// ErrTransport is returned for I/O failures while dialing, writing or reading
	ErrTransport = errors.New("transport failure")
	// ErrProtocol is returned when a frame violates the expected envelope
	ErrProtocol = errors.New("protocol violation")
	// ErrHandlerAborted matches every *HandlerError
	ErrHandlerAborted = errors.New("handler aborted the call")
)

// Error codes reported by the service in error messages
const (
	ErrCodeBucketNotFound         = "BucketNotFoundError"
	ErrCodeBucketConflict         = "BucketConflictError"
	ErrCodeInvalidBucketName      = "InvalidBucketNameError"
	ErrCodeInvalidIndexDefinition = "InvalidIndexDefinitionError"
	ErrCodeObjectNotFound         = "ObjectNotFoundError"
	ErrCodeEtagConflict           = "EtagConflictError"
	ErrCodeUniqueAttribute        = "UniqueAttributeError"
	ErrCodeInvalidQuery           = "InvalidQueryError"
	ErrCodeNotIndexed             = "NotIndexedError"
	ErrCodeInvocation             = "InvocationError"
	ErrCodeNotImplemented         = "NotImplementedError"
	ErrCodeInternal               = "InternalError"
)

// RemoteError is an error the service reported explicitly in an error message.
// Code and Message are taken verbatim from the wire.
type RemoteError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewRemoteError creates a RemoteError with a formatted message
func NewRemoteError(code string, format string, args ...interface{}) *RemoteError {
	return &RemoteError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRemoteError returns the *RemoteError in err's chain if there is one
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// IsRemoteCode reports whether err is a RemoteError with the given code
func IsRemoteCode(err error, code string) bool {
	remote, ok := AsRemoteError(err)
	return ok && remote.Code == code
}

// HandlerError wraps the error returned by a caller supplied handler.
// errors.Is(err, ErrHandlerAborted) is true and errors.Unwrap yields the original error.
type HandlerError struct {
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", ErrHandlerAborted, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerAborted
}
