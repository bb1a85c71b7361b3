package datafile

import (
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

// Region is a byte range of a datafile that holds no valid record.
type Region struct {
	Offset int64
	Length int64
}

// ScanResult summarises a sequential pass over a datafile.
type ScanResult struct {
	Records int
	// End is the offset just past the last valid record.
	End int64
	// Size is the file size when the scan started.
	Size int64
	// Torn is set when the bytes from End to Size do not form a valid record,
	// as left behind by a write interrupted by a crash.
	Torn bool
	// Skipped lists damaged ranges that were followed by further valid
	// records. Records inside them are lost; the file is not modified.
	Skipped []Region
}

// ScanFunc is called for every valid record, in file order. Returning an
// error stops the scan and Scan returns that error.
type ScanFunc func(offset uint64, length uint64, e *record.Entry) error

// Scan walks every record in the datafile from the start. See ScanFile.
func (df *DataFile) Scan(fn ScanFunc) (ScanResult, error) {
	if err := df.fh.Flush(); err != nil {
		return ScanResult{}, err
	}
	return ScanFile(df.Path(), fn)
}

// ScanFile walks every record of the datafile at path. When a record fails
// validation the scan searches forward byte by byte for the next record that
// decodes and checksums cleanly and resumes there, reporting the gap in
// Skipped. If nothing valid follows, the damage is reported as Torn.
func ScanFile(path string, fn ScanFunc) (ScanResult, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	defer r.Close()

	s := scanner{r: r, size: int64(r.Len()), header: make([]byte, record.HeaderSize)}
	res := ScanResult{Size: s.size}

	var off int64
	for off < s.size {
		e, length, err := s.recordAt(off)
		if err != nil {
			return res, err
		}

		if e == nil {
			next, err := s.resync(off + 1)
			if err != nil {
				return res, err
			}
			if next < 0 {
				res.Torn = true
				break
			}
			res.Skipped = append(res.Skipped, Region{Offset: off, Length: next - off})
			off = next
			continue
		}

		if fn != nil {
			if err := fn(uint64(off), length, e); err != nil {
				return res, err
			}
		}

		res.Records++
		off += int64(length)
		res.End = off
	}

	return res, nil
}

type scanner struct {
	r      *mmap.ReaderAt
	size   int64
	header []byte
}

// recordAt decodes the record starting at off. A nil entry with a nil error
// means the bytes at off are not a valid record.
func (s *scanner) recordAt(off int64) (*record.Entry, uint64, error) {
	if s.size-off < record.HeaderSize {
		return nil, 0, nil
	}
	if _, err := s.r.ReadAt(s.header, off); err != nil {
		return nil, 0, fmt.Errorf("read header at %d: %w", off, err)
	}

	h, err := record.DecodeHeader(s.header)
	if err != nil {
		return nil, 0, nil
	}
	length, ok := h.RecordSize()
	if !ok || length > uint64(s.size-off) {
		return nil, 0, nil
	}

	buf := make([]byte, length)
	if _, err := s.r.ReadAt(buf, off); err != nil {
		return nil, 0, fmt.Errorf("read record at %d: %w", off, err)
	}
	e, err := record.Decode(buf)
	if err != nil {
		return nil, 0, nil
	}
	return e, length, nil
}

// resync returns the first offset at or after from where a valid record
// starts, or -1 if there is none.
func (s *scanner) resync(from int64) (int64, error) {
	for p := from; s.size-p >= record.HeaderSize; p++ {
		e, _, err := s.recordAt(p)
		if err != nil {
			return -1, err
		}
		if e != nil {
			return p, nil
		}
	}
	return -1, nil
}
