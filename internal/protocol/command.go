package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Command names understood by the server.
const (
	CmdPing   = "ping"
	CmdSet    = "set"
	CmdGet    = "get"
	CmdDelete = "delete"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
	CmdHelp   = "help"
)

const (
	commandHeaderSize = 1 + 4 + 4

	MaxCommandSize = 1<<8 - 1
	MaxKeySize     = 1 << 16
	MaxValueSize   = 64 << 20
)

// Command represents a decoded client command received by the Bitcask server.
//
// A Command consists of a command name (Cmd), an optional key, and an optional
// value. The meaning of Key and Val depends on the command type (e.g. GET,
// SET, DELETE).
type Command struct {
	Cmd string // Command name (e.g. "get", "set", "delete")
	Key string // Key argument (may be empty)
	Val string // Value argument (may be empty)
}

// FrameTooLargeError is returned when a frame field exceeds its size limit.
type FrameTooLargeError struct {
	Field string
	Size  uint64
	Limit uint64
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("%s too large: %d bytes (limit %d)", e.Field, e.Size, e.Limit)
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
//
// The returned byte slice is suitable for writing directly to a TCP
// connection.
func EncodeCommand(cmd, key, val string) ([]byte, error) {
	if len(cmd) > MaxCommandSize {
		return nil, &FrameTooLargeError{Field: "command", Size: uint64(len(cmd)), Limit: MaxCommandSize}
	}
	if len(key) > MaxKeySize {
		return nil, &FrameTooLargeError{Field: "key", Size: uint64(len(key)), Limit: MaxKeySize}
	}
	if len(val) > MaxValueSize {
		return nil, &FrameTooLargeError{Field: "value", Size: uint64(len(val)), Limit: MaxValueSize}
	}

	buf := make([]byte, commandHeaderSize, commandHeaderSize+len(cmd)+len(key)+len(val))
	buf[0] = uint8(len(cmd))
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(key)))
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(val)))

	buf = append(buf, cmd...)
	buf = append(buf, key...)
	buf = append(buf, val...)

	return buf, nil
}

// DecodeCommand reads and decodes one command from r.
//
// DecodeCommand blocks until the full command has been read or an
// error occurs. Length fields above the protocol limits are rejected before
// any payload is allocated.
func DecodeCommand(r io.Reader) (*Command, error) {
	var header [commandHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	cmdLen := int(header[0])
	keyLen := binary.BigEndian.Uint32(header[1:5])
	valLen := binary.BigEndian.Uint32(header[5:9])

	if keyLen > MaxKeySize {
		return nil, &FrameTooLargeError{Field: "key", Size: uint64(keyLen), Limit: MaxKeySize}
	}
	if valLen > MaxValueSize {
		return nil, &FrameTooLargeError{Field: "value", Size: uint64(valLen), Limit: MaxValueSize}
	}

	payload := make([]byte, cmdLen+int(keyLen)+int(valLen))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	keyEnd := cmdLen + int(keyLen)
	return &Command{
		Cmd: string(payload[:cmdLen]),
		Key: string(payload[cmdLen:keyEnd]),
		Val: string(payload[keyEnd:]),
	}, nil
}
