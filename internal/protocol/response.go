package protocol

import (
	"encoding/binary"
	"io"
)

// MaxResponseSize bounds the payload a client will accept.
const MaxResponseSize = MaxValueSize + 1024

// EncodeResponse frames resp as <len:uint32><resp>.
func EncodeResponse(resp string) ([]byte, error) {
	if len(resp) > MaxResponseSize {
		return nil, &FrameTooLargeError{Field: "response", Size: uint64(len(resp)), Limit: MaxResponseSize}
	}

	buf := make([]byte, 4, 4+len(resp))
	binary.BigEndian.PutUint32(buf, uint32(len(resp)))
	buf = append(buf, resp...)

	return buf, nil
}

// DecodeResponse reads one framed response from r.
func DecodeResponse(r io.Reader) (string, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return "", err
	}

	respLen := binary.BigEndian.Uint32(header[:])
	if respLen > MaxResponseSize {
		return "", &FrameTooLargeError{Field: "response", Size: uint64(respLen), Limit: MaxResponseSize}
	}

	buf := make([]byte, respLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}
