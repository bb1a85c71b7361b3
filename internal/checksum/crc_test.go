package checksum

import (
	"hash/crc32"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	var key = []byte("language")
	var value = []byte("go")

	want := crc32.ChecksumIEEE(append(key, value...))

	t.Run("Hash matches the IEEE polynomial", func(t *testing.T) {
		got := Hash(append(key, value...))
		if got != want {
			t.Errorf("Hash() = %v, want %v", got, want)
		}
	})

	t.Run("Validate returns true for matching checksum", func(t *testing.T) {
		if !Validate(append(key, value...), want) {
			t.Errorf("Validate() returned false, expected true")
		}
	})

	t.Run("Validate returns false for mismatched checksum", func(t *testing.T) {
		if Validate(append(key, value...), want+1) {
			t.Errorf("Validate() returned true for wrong checksum")
		}
	})

	t.Run("empty input hashes to zero", func(t *testing.T) {
		assert.Equal(t, uint32(0), Hash(nil))
	})
}

func TestExtendEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	randBytes := func(n int) []byte {
		b := make([]byte, n)
		rng.Read(b)
		return b
	}

	for i := 0; i < 200; i++ {
		a := randBytes(rng.Intn(64))
		b := randBytes(rng.Intn(64))
		c := randBytes(rng.Intn(64))

		whole := append(append(append([]byte{}, a...), b...), c...)
		require.Equal(t, Hash(whole), Extend(Extend(Hash(a), b), c), "iteration %d", i)
	}

	t.Run("extending with nothing is a no-op", func(t *testing.T) {
		h := Hash([]byte("abc"))
		assert.Equal(t, h, Extend(h, nil))
	})
}

func TestMaskUnmask(t *testing.T) {
	edges := []uint32{0, 1, maskDelta, maskDelta - 1, math.MaxUint32, 1 << 31, 0x7fffffff}
	for _, x := range edges {
		assert.Equal(t, x, Unmask(Mask(x)), "x=%#x", x)
	}

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 10000; i++ {
		x := rng.Uint32()
		require.Equal(t, x, Unmask(Mask(x)))
	}

	t.Run("mask changes the value", func(t *testing.T) {
		crc := Hash([]byte("foo"))
		assert.NotEqual(t, crc, Mask(crc))
		assert.NotEqual(t, Mask(crc), Mask(Mask(crc)))
	})
}

func TestMaskVectors(t *testing.T) {
	// rotate right by 15, then add 0xa282ead8 (wrapping)
	tests := []struct {
		crc, masked uint32
	}{
		{0x00000000, 0xa282ead8},
		{0x00000001, 0xa284ead8},
		{0xffffffff, 0xa282ead7},
		{0x12345678, 0x4f730f40},
		{0xcbf43926, 0x14d082c0}, // crc32("123456789")
	}

	for _, tt := range tests {
		assert.Equal(t, tt.masked, Mask(tt.crc), "Mask(%#08x)", tt.crc)
		assert.Equal(t, tt.crc, Unmask(tt.masked), "Unmask(%#08x)", tt.masked)
	}

	assert.Equal(t, uint32(0xcbf43926), Hash([]byte("123456789")))
	assert.Equal(t, uint32(0x0d4a1185), Hash([]byte("hello world")))
	assert.Equal(t, uint32(0xc58d056c), Mask(Hash([]byte("hello world"))))
}

func TestDigest(t *testing.T) {
	d := New()
	_, _ = d.Write([]byte("hello "))
	_, _ = d.Write([]byte("world"))

	assert.Equal(t, Hash([]byte("hello world")), d.Sum32())
	assert.Equal(t, []byte{0xff, byte(d.Sum32() >> 24), byte(d.Sum32() >> 16), byte(d.Sum32() >> 8), byte(d.Sum32())}, d.Sum([]byte{0xff}))

	d.Reset()
	assert.Equal(t, uint32(0), d.Sum32())
}
