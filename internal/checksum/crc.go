// Package checksum implements the CRC-32 scheme used to guard records on disk.
//
// Checksums can be computed incrementally: Extend(Hash(a), b) is equal to
// Hash(a‖b), which lets the record codec checksum the header fields, the key
// and the value without concatenating them first.
package checksum

import (
	"hash"

	"github.com/klauspost/crc32"
)

// maskDelta is added to a rotated checksum by Mask.
const maskDelta = 0xa282ead8

// Size is the length in bytes of a checksum.
const Size = 4

// Hash computes the CRC32 (IEEE polynomial) checksum of data.
func Hash(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Extend returns the checksum of the bytes that produced crc followed by data.
func Extend(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, crc32.IEEETable, data)
}

// Validate reports whether crc is the checksum of data.
func Validate(data []byte, crc uint32) bool {
	return Hash(data) == crc
}

// Mask returns a masked representation of crc.
//
// Storing a masked checksum guards against data that itself embeds a valid
// checksum of some other record being accepted by accident.
func Mask(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Unmask reverses Mask.
func Unmask(masked uint32) uint32 {
	rot := masked - maskDelta
	return (rot >> 17) | (rot << 15)
}

// Digest is a streaming hash.Hash32 built on Extend.
type Digest struct {
	crc uint32
}

var _ hash.Hash32 = (*Digest)(nil)

// New returns an empty Digest.
func New() *Digest {
	return &Digest{}
}

func (d *Digest) Write(p []byte) (int, error) {
	d.crc = Extend(d.crc, p)
	return len(p), nil
}

func (d *Digest) Sum32() uint32 { return d.crc }

func (d *Digest) Sum(b []byte) []byte {
	s := d.crc
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (d *Digest) Reset() { d.crc = 0 }

func (d *Digest) Size() int { return Size }

func (d *Digest) BlockSize() int { return 1 }
