package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("x"),
		bytes.Repeat([]byte("moray"), 10000),
	}

	for i, payload := range payloads {
		var buf bytes.Buffer
		if err := writeFrame(&buf, uint64(i+1), payload); err != nil {
			t.Fatalf("writeFrame failed: %v", err)
		}
		if buf.Len() != frameHeaderSize+len(payload) {
			t.Errorf("Expected %d bytes on the wire, got %d", frameHeaderSize+len(payload), buf.Len())
		}

		requestID, data, err := readFrame(&buf, nil)
		if err != nil {
			t.Fatalf("readFrame failed: %v", err)
		}
		if requestID != uint64(i+1) {
			t.Errorf("Expected request id %d, got %d", i+1, requestID)
		}
		if !bytes.Equal(data, payload) {
			t.Errorf("Payload %d does not match after round trip", i)
		}
	}
}

func TestReadFrameUsesBuffer(t *testing.T) {
	var wire bytes.Buffer
	if err := writeFrame(&wire, 7, []byte("abc")); err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}

	buf := make([]byte, 16)
	_, data, err := readFrame(&wire, buf)
	if err != nil {
		t.Fatalf("readFrame failed: %v", err)
	}
	if &data[0] != &buf[0] {
		t.Errorf("Expected the payload to be read into the provided buffer")
	}
}

func TestReadFrameErrors(t *testing.T) {
	// header announcing more data than MaxFrameSize
	oversized := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(oversized[:8], 1)
	binary.BigEndian.PutUint32(oversized[8:], MaxFrameSize+1)

	// header announcing 10 bytes followed by 3
	truncated := make([]byte, frameHeaderSize, frameHeaderSize+3)
	binary.BigEndian.PutUint32(truncated[8:], 10)
	truncated = append(truncated, 'a', 'b', 'c')

	testCases := []struct {
		name string
		wire []byte
		want error
	}{
		{"Empty stream", nil, io.EOF},
		{"Partial header", []byte{0, 0, 0}, io.ErrUnexpectedEOF},
		{"Oversized frame", oversized, errFrameTooLarge},
		{"Truncated payload", truncated, io.ErrUnexpectedEOF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := readFrame(bytes.NewReader(tc.wire), nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, 1, make([]byte, MaxFrameSize+1))
	if !errors.Is(err, errFrameTooLarge) {
		t.Errorf("Expected errFrameTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing to be written, got %d bytes", buf.Len())
	}
}
