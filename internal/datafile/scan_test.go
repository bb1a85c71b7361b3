package datafile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

func TestScan(t *testing.T) {
	df := openTemp(t, false)

	type seen struct {
		off, length uint64
		key         string
	}
	var want []seen
	for _, k := range []string{"a", "bb", "", "dddd"} {
		off, n, err := df.Append([]byte(k), []byte("v-"+k), record.NewTimestamp(1))
		require.NoError(t, err)
		want = append(want, seen{off, uint64(n), k})
	}

	var got []seen
	res, err := df.Scan(func(off, length uint64, e *record.Entry) error {
		got = append(got, seen{off, length, string(e.Key)})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 4, res.Records)
	assert.False(t, res.Torn)
	assert.Equal(t, int64(df.WritePos()), res.End)
}

func TestScanEmpty(t *testing.T) {
	df := openTemp(t, false)

	res, err := df.Scan(nil)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{}, res)
}

func TestScanStopsAtTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(1))
	df, err := Open(path, false)
	require.NoError(t, err)

	_, n, err := df.Append([]byte("whole"), []byte("record"), record.NewTimestamp(1))
	require.NoError(t, err)
	require.NoError(t, df.Close())

	torn := record.Encode([]byte("partial"), []byte("record"), record.NewTimestamp(2))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write(torn[:len(torn)-3])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := ScanFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, int64(n), res.End)
	assert.True(t, res.Torn)

	df, err = Open(path, false)
	require.NoError(t, err)
	defer df.Close()
	require.NoError(t, df.Truncate(res.End))

	res, err = df.Scan(nil)
	require.NoError(t, err)
	assert.False(t, res.Torn)
	assert.Equal(t, uint64(n), df.WritePos())
}

func TestScanStopsAtCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(2))
	df, err := Open(path, false)
	require.NoError(t, err)

	_, n, err := df.Append([]byte("a"), []byte("1"), record.NewTimestamp(1))
	require.NoError(t, err)
	_, _, err = df.Append([]byte("b"), []byte("2"), record.NewTimestamp(2))
	require.NoError(t, err)
	require.NoError(t, df.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[n+record.HeaderSize] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	res, err := ScanFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, int64(n), res.End)
	assert.True(t, res.Torn)
}

func TestScanCallbackError(t *testing.T) {
	df := openTemp(t, false)
	_, err := df.Write([]byte("a"), []byte("1"), record.NewTimestamp(1))
	require.NoError(t, err)

	stop := errors.New("stop")
	_, err = df.Scan(func(uint64, uint64, *record.Entry) error { return stop })
	require.ErrorIs(t, err, stop)
}

func TestScanSkipsDamagedRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(3))
	df, err := Open(path, false)
	require.NoError(t, err)

	var lengths []int
	for _, k := range []string{"a", "b", "c"} {
		_, n, err := df.Append([]byte(k), []byte("value-"+k), record.NewTimestamp(1))
		require.NoError(t, err)
		lengths = append(lengths, n)
	}
	require.NoError(t, df.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[lengths[0]+record.HeaderSize] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	var keys []string
	res, err := ScanFile(path, func(_, _ uint64, e *record.Entry) error {
		keys = append(keys, string(e.Key))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, keys)
	assert.Equal(t, 2, res.Records)
	assert.False(t, res.Torn)
	assert.Equal(t, int64(len(data)), res.End)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.Equal(t, []Region{{Offset: int64(lengths[0]), Length: int64(lengths[1])}}, res.Skipped)
}
