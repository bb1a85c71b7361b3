package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	l := New("caskdb", "warn", &buf)
	l.Info("hidden")
	l.Warn("shown", "offset", 38)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "offset=38")
	assert.Contains(t, out, "caskdb")
}

func TestNewUnknownLevel(t *testing.T) {
	var buf bytes.Buffer

	l := New("caskdb", "loud", &buf)
	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := New("x", "info", &bytes.Buffer{})
	assert.Equal(t, l, OrDiscard(l))
}
