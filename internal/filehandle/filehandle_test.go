package filehandle

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Handle {
	t.Helper()

	h, err := Open(filepath.Join(t.TempDir(), "data.0"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.1")

	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), h.WritePos())
	assert.Equal(t, uint64(0), h.ReadPos())
	assert.Equal(t, path, h.Path())
}

func TestOpenFailures(t *testing.T) {
	t.Run("path is a directory", func(t *testing.T) {
		_, err := Open(t.TempDir())
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "open", ioErr.Op)
	})

	t.Run("parent does not exist", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing", "data.0"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestReopenResumesAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.2")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0644))

	h, err := Open(path)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, uint64(8), h.WritePos())

	_, err = h.Write([]byte("+more"))
	require.NoError(t, err)
	require.NoError(t, h.Flush())

	buf := make([]byte, 13)
	n, err := h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "existing+more", string(buf[:n]))
}

func TestWriteIsBufferedUntilFlush(t *testing.T) {
	h := openTemp(t)

	n, err := h.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, uint64(5), h.WritePos())
	assert.Equal(t, 5, h.Buffered())

	buf := make([]byte, 5)
	got, err := h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	require.NoError(t, h.Flush())
	assert.Equal(t, 0, h.Buffered())

	got, err = h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, "hello", string(buf))
}

func TestShortRead(t *testing.T) {
	h := openTemp(t)

	_, err := h.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, h.Sync())

	buf := make([]byte, 10)
	n, err := h.ReadAt(1, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "bc", string(buf[:n]))
	assert.Equal(t, uint64(3), h.ReadPos())

	n, err = h.ReadAt(100, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCursorsAreIndependent(t *testing.T) {
	h := openTemp(t)

	_, err := h.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, h.Flush())

	buf := make([]byte, 3)
	_, err = h.ReadAt(2, buf)
	require.NoError(t, err)
	assert.Equal(t, "234", string(buf))
	assert.Equal(t, uint64(5), h.ReadPos())
	assert.Equal(t, uint64(10), h.WritePos())

	_, err = h.Write([]byte("ab"))
	require.NoError(t, err)
	require.NoError(t, h.Flush())
	assert.Equal(t, uint64(5), h.ReadPos())
	assert.Equal(t, uint64(12), h.WritePos())

	_, err = h.ReadAt(10, buf[:2])
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:2]))
	assert.Equal(t, uint64(12), h.WritePos())
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	h := openTemp(t)

	chunk := []byte("abcdefgh")
	_, err := h.Write(chunk)
	require.NoError(t, err)
	require.NoError(t, h.Flush())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := h.Write(chunk); err != nil {
				t.Error(err)
				return
			}
			if err := h.Flush(); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, len(chunk))
			for i := 0; i < 200; i++ {
				n, err := h.ReadAt(0, buf)
				if err != nil || n != len(chunk) || string(buf) != string(chunk) {
					t.Errorf("read %d bytes %q: %v", n, buf[:n], err)
					return
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, uint64(201*len(chunk)), h.WritePos())
}

func TestTruncate(t *testing.T) {
	h := openTemp(t)

	_, err := h.Write([]byte("keep|drop"))
	require.NoError(t, err)
	require.NoError(t, h.Truncate(4))

	assert.Equal(t, uint64(4), h.WritePos())
	size, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	_, err = h.Write([]byte("!"))
	require.NoError(t, err)
	require.NoError(t, h.Flush())

	buf := make([]byte, 8)
	n, err := h.ReadAt(0, buf)
	require.NoError(t, err)
	assert.Equal(t, "keep!", string(buf[:n]))
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.3")
	h, err := Open(path)
	require.NoError(t, err)

	_, err = h.Write([]byte("pending"))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(data))

	_, err = h.Write([]byte("x"))
	assert.True(t, errors.Is(err, os.ErrClosed))
	_, err = h.ReadAt(0, make([]byte, 1))
	assert.True(t, errors.Is(err, os.ErrClosed))
}
