package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/0xRadioAc7iv/caskdb/internal/protocol"
)

func TestEncodeDecodeCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		key  string
		val  string
	}{
		{"SET command", "set", "foo", "bar"},
		{"GET command", "get", "hello", ""},
		{"COUNT command", "count", "", ""},
		{"empty key and value", "ping", "", ""},
		{"value with spaces", "set", "city", "new york"},
		{"unicode value", "set", "emoji", "🚀🔥"},
		{"large value", "set", "big", string(make([]byte, 1024))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeCommand(tt.cmd, tt.key, tt.val)
			if err != nil {
				t.Fatalf("EncodeCommand failed: %v", err)
			}

			go func() {
				_, _ = client.Write(payload)
			}()

			cmd, err := protocol.DecodeCommand(server)
			if err != nil {
				t.Fatalf("DecodeCommand failed: %v", err)
			}

			if cmd.Cmd != tt.cmd {
				t.Errorf("Cmd mismatch: got %q, want %q", cmd.Cmd, tt.cmd)
			}
			if cmd.Key != tt.key {
				t.Errorf("Key mismatch: got %q, want %q", cmd.Key, tt.key)
			}
			if cmd.Val != tt.val {
				t.Errorf("Val mismatch: got %q, want %q", cmd.Val, tt.val)
			}
		})
	}
}

func TestDecodeCommand_TruncatedPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeCommand("set", "key", "value")
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	// Write only part of the payload
	go func() {
		_, _ = client.Write(payload[:len(payload)/2])
		client.Close()
	}()

	if _, err := protocol.DecodeCommand(server); err == nil {
		t.Fatalf("expected error on truncated payload, got nil")
	}
}

func TestDecodeCommand_BlocksUntilComplete(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeCommand("get", "foo", "")
	if err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	done := make(chan struct{})

	go func() {
		_, _ = protocol.DecodeCommand(server)
		close(done)
	}()

	// Ensure decoder is blocked
	select {
	case <-done:
		t.Fatal("DecodeCommand returned early")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = client.Write(payload)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("DecodeCommand did not return after full payload")
	}
}

func TestEncodeCommand_RejectsOversizedFields(t *testing.T) {
	_, err := protocol.EncodeCommand(strings.Repeat("x", protocol.MaxCommandSize+1), "", "")
	var tooLarge *protocol.FrameTooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Field != "command" {
		t.Fatalf("expected command too large, got %v", err)
	}

	_, err = protocol.EncodeCommand("set", strings.Repeat("k", protocol.MaxKeySize+1), "")
	if !errors.As(err, &tooLarge) || tooLarge.Field != "key" {
		t.Fatalf("expected key too large, got %v", err)
	}
}

func TestDecodeCommand_RejectsOversizedLengths(t *testing.T) {
	header := []byte{3, 0, 0, 0, 1, 0xff, 0xff, 0xff, 0xff}

	_, err := protocol.DecodeCommand(bytes.NewReader(header))
	var tooLarge *protocol.FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected FrameTooLargeError, got %v", err)
	}
	if tooLarge.Field != "value" {
		t.Fatalf("expected value field, got %q", tooLarge.Field)
	}
}

func TestDecodeCommand_FromBuffer(t *testing.T) {
	var buf bytes.Buffer
	for _, key := range []string{"a", "b"} {
		payload, err := protocol.EncodeCommand(protocol.CmdGet, key, "")
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(payload)
	}

	for _, want := range []string{"a", "b"} {
		cmd, err := protocol.DecodeCommand(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if cmd.Cmd != protocol.CmdGet || cmd.Key != want {
			t.Fatalf("got %+v, want get %q", cmd, want)
		}
	}

	if _, err := protocol.DecodeCommand(&buf); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}
