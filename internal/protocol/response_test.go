package protocol_test

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/caskdb/internal/protocol"
)

func TestResponseRoundTripOverPipe(t *testing.T) {
	for name, resp := range map[string]string{
		"ok":        "ok",
		"nil":       "nil",
		"empty":     "",
		"multiline": "----- KEYS START -----\na\nb\n----- KEYS END -----",
		"unicode":   "こんにちは世界",
		"binary":    string([]byte{0, 1, 2, 0xff}),
		"large":     strings.Repeat("v", 64<<10),
	} {
		t.Run(name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			payload, err := protocol.EncodeResponse(resp)
			require.NoError(t, err)

			go func() { _, _ = client.Write(payload) }()

			got, err := protocol.DecodeResponse(server)
			require.NoError(t, err)
			assert.Equal(t, resp, got)
		})
	}
}

func TestResponseFraming(t *testing.T) {
	payload, err := protocol.EncodeResponse("PONG!")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 5, 'P', 'O', 'N', 'G', '!'}, payload)
}

func TestDecodeResponseBackToBack(t *testing.T) {
	var buf bytes.Buffer
	for _, r := range []string{"ok", "", "true"} {
		p, err := protocol.EncodeResponse(r)
		require.NoError(t, err)
		buf.Write(p)
	}

	for _, want := range []string{"ok", "", "true"} {
		got, err := protocol.DecodeResponse(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := protocol.DecodeResponse(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeResponseTruncatedPayload(t *testing.T) {
	payload, err := protocol.EncodeResponse("hello world")
	require.NoError(t, err)

	_, err = protocol.DecodeResponse(bytes.NewReader(payload[:len(payload)/2]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeResponseWaitsForFullFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload, err := protocol.EncodeResponse("blocking test")
	require.NoError(t, err)

	done := make(chan string, 1)
	go func() {
		resp, _ := protocol.DecodeResponse(server)
		done <- resp
	}()

	_, _ = client.Write(payload[:3])
	select {
	case <-done:
		t.Fatal("DecodeResponse returned before the frame was complete")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = client.Write(payload[3:])
	select {
	case resp := <-done:
		assert.Equal(t, "blocking test", resp)
	case <-time.After(time.Second):
		t.Fatal("DecodeResponse did not return after full payload")
	}
}

func TestResponseSizeLimits(t *testing.T) {
	_, err := protocol.DecodeResponse(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}))

	var tooLarge *protocol.FrameTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "response", tooLarge.Field)
	assert.Equal(t, uint64(protocol.MaxResponseSize), tooLarge.Limit)
}
