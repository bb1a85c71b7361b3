package record

import (
	"bytes"
	"encoding/binary"

	"github.com/0xRadioAc7iv/caskdb/internal/checksum"
)

// Entry is one key/value record as stored in a datafile.
//
// On disk an Entry is laid out big-endian as:
//
//	checksum(4) | timestamp(16) | key_len(8) | value_len(8) | key | value
//
// The checksum covers every byte after the checksum field.
type Entry struct {
	Checksum  uint32
	Timestamp Timestamp
	Key       []byte
	Value     []byte
}

// Checksum (4) + Timestamp (16) + KeySize (8) + ValueSize (8)
const HeaderSize = checksum.Size + TimestampSize + 8 + 8

const (
	timestampOff = checksum.Size
	keyLenOff    = timestampOff + TimestampSize
	valueLenOff  = keyLenOff + 8
)

// Header is the fixed-width prefix of an encoded Entry.
type Header struct {
	Checksum  uint32
	Timestamp Timestamp
	KeySize   uint64
	ValueSize uint64
}

// RecordSize returns the full encoded size of the record h describes. ok is
// false if the size overflows a uint64.
func (h Header) RecordSize() (size uint64, ok bool) {
	size = HeaderSize + h.KeySize
	if size < h.KeySize {
		return 0, false
	}
	total := size + h.ValueSize
	if total < size {
		return 0, false
	}
	return total, true
}

// NewEntry builds an Entry for key and value and computes its checksum.
func NewEntry(key, value []byte, ts Timestamp) *Entry {
	e := &Entry{
		Timestamp: ts,
		Key:       bytes.Clone(key),
		Value:     bytes.Clone(value),
	}
	if e.Key == nil {
		e.Key = []byte{}
	}
	if e.Value == nil {
		e.Value = []byte{}
	}
	e.Checksum = e.computeChecksum()
	return e
}

// Size returns the encoded size of e in bytes.
func (e *Entry) Size() int {
	return HeaderSize + len(e.Key) + len(e.Value)
}

// IsTombstone reports whether e marks its key as deleted.
func (e *Entry) IsTombstone() bool {
	return len(e.Value) == 0
}

func (e *Entry) lengths() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], uint64(len(e.Key)))
	binary.BigEndian.PutUint64(b[8:], uint64(len(e.Value)))
	return b
}

func (e *Entry) computeChecksum() uint32 {
	ts := e.Timestamp.Bytes()
	lens := e.lengths()

	crc := checksum.Hash(ts[:])
	crc = checksum.Extend(crc, lens[:])
	crc = checksum.Extend(crc, e.Key)
	return checksum.Extend(crc, e.Value)
}

// Valid reports whether e's stored checksum matches its contents.
func (e *Entry) Valid() bool {
	return e.Checksum == e.computeChecksum()
}

// MarshalBinary encodes e into its on-disk representation.
func (e *Entry) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, e.Size()))

	if err := binary.Write(buf, binary.BigEndian, e.Checksum); err != nil {
		return nil, err
	}
	ts := e.Timestamp.Bytes()
	buf.Write(ts[:])
	lens := e.lengths()
	buf.Write(lens[:])
	buf.Write(e.Key)
	buf.Write(e.Value)

	return buf.Bytes(), nil
}

// Encode serializes a new record for key and value stamped with ts.
func Encode(key, value []byte, ts Timestamp) []byte {
	b, _ := NewEntry(key, value, ts).MarshalBinary()
	return b
}

// DecodeHeader parses the fixed-width header at the start of data without
// validating the checksum.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, &TruncatedError{Offset: -1, Need: HeaderSize, Have: uint64(len(data))}
	}
	return Header{
		Checksum:  binary.BigEndian.Uint32(data[:timestampOff]),
		Timestamp: timestampFromBytes(data[timestampOff:keyLenOff]),
		KeySize:   binary.BigEndian.Uint64(data[keyLenOff:valueLenOff]),
		ValueSize: binary.BigEndian.Uint64(data[valueLenOff:HeaderSize]),
	}, nil
}

// Decode parses and validates one encoded record. data must hold exactly one
// record.
//
// The checksum is verified before the length fields are trusted, so a
// corrupted length is reported as a checksum mismatch rather than used to
// slice data. The returned Entry never aliases data.
func Decode(data []byte) (*Entry, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	actual := checksum.Hash(data[timestampOff:])
	if actual != h.Checksum {
		return nil, &ChecksumError{Offset: -1, Expected: h.Checksum, Actual: actual}
	}

	have := uint64(len(data))
	need, ok := h.RecordSize()
	if !ok || need > have {
		if !ok {
			need = ^uint64(0)
		}
		return nil, &TruncatedError{Offset: -1, Need: need, Have: have}
	}
	if need < have {
		return nil, &LengthError{Offset: -1, Expected: need, Actual: have}
	}

	keyEnd := HeaderSize + h.KeySize
	key := make([]byte, h.KeySize)
	copy(key, data[HeaderSize:keyEnd])
	value := make([]byte, h.ValueSize)
	copy(value, data[keyEnd:])

	return &Entry{
		Checksum:  h.Checksum,
		Timestamp: h.Timestamp,
		Key:       key,
		Value:     value,
	}, nil
}
