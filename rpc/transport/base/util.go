package base

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
)

const (
	// frameHeaderSize is 8 bytes request id + 4 bytes payload length
	frameHeaderSize = 12
	// MaxFrameSize is the largest payload accepted in either direction
	MaxFrameSize = 64 << 20
)

// errFrameTooLarge is returned for payloads above MaxFrameSize
var errFrameTooLarge = errors.New("frame exceeds maximum size")

// writeFrame writes a frame to the writer with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(w io.Writer, requestID uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return errFrameTooLarge
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], requestID)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads a frame from the reader using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data
// The returned payload may alias buf
func readFrame(r io.Reader, buf []byte) (uint64, []byte, error) {
	var header [frameHeaderSize]byte

	// Read header
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	// Parse header
	requestID := binary.BigEndian.Uint64(header[:8])
	contentLength := binary.BigEndian.Uint32(header[8:12])

	// If no data, return empty slice
	if contentLength == 0 {
		return requestID, []byte{}, nil
	}

	if contentLength > MaxFrameSize {
		return requestID, nil, errFrameTooLarge
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(r, buf[:contentLength]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return requestID, nil, err
	}

	return requestID, buf[:contentLength], nil
}
