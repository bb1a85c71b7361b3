package core

import (
	"fmt"
	"os"
	"slices"

	"github.com/0xRadioAc7iv/caskdb/internal/datafile"
	"github.com/0xRadioAc7iv/caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

// scanForDatafiles returns the ids of every data.<id> file in the datafile
// directory, oldest first.
func (bk *Bitcask) scanForDatafiles() ([]uint64, error) {
	entries, err := os.ReadDir(bk.dataDir())
	if err != nil {
		return nil, err
	}

	ids := []uint64{}
	for _, entry := range entries {
		if entry.IsDir() || !datafile.IsDataFile(entry.Name()) {
			continue
		}

		id, err := datafile.ParseFileID(entry.Name())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}

// loadDatafilesToKeyDir replays every datafile in id order. Records are
// applied in log order, so the last record written for a key wins regardless
// of its timestamp. Each file is left open and read-only; openActiveDatafile
// unfreezes the newest one if it is resumed.
func (bk *Bitcask) loadDatafilesToKeyDir(ids []uint64) error {
	kd := bk.index()

	for i, id := range ids {
		df, err := bk.openDatafile(id, false)
		if err != nil {
			return err
		}

		bk.filesMu.Lock()
		bk.files[id] = df
		bk.filesMu.Unlock()

		newest := i == len(ids)-1
		if err := bk.readDatafile(kd, id, df, newest); err != nil {
			return fmt.Errorf("recover %s: %w", datafile.FileName(id), err)
		}
		df.SetReadOnly(true)
	}

	bk.Metrics.SetKeyDirSize(kd.Len())
	return nil
}

// readDatafile applies every valid record of df to kd. Only the newest
// datafile can hold a half-written append, so a torn tail is cut off there
// and left in place everywhere else. Damaged ranges followed by valid records
// are logged and skipped without touching the file.
func (bk *Bitcask) readDatafile(kd keydir.Index, id uint64, df *datafile.DataFile, newest bool) error {
	name := datafile.FileName(id)

	res, err := df.Scan(func(offset, length uint64, e *record.Entry) error {
		key := string(e.Key)

		if e.IsTombstone() {
			kd.Delete(key)
			return nil
		}

		kd.Put(key, keydir.Entry{
			FileID:    id,
			Offset:    offset,
			Length:    length,
			Timestamp: e.Timestamp,
		})
		return nil
	})
	if err != nil {
		return err
	}

	for _, r := range res.Skipped {
		bk.logger.Error("skipped damaged datafile range",
			"file", name, "offset", r.Offset, "length", r.Length)
	}
	corrupt := len(res.Skipped)

	truncated := false
	if res.Torn {
		if newest {
			bk.logger.Warn("truncating torn datafile tail",
				"file", name, "valid", res.End, "size", res.Size)

			if err := df.Truncate(res.End); err != nil {
				return err
			}
			truncated = true
		} else {
			bk.logger.Error("damaged tail in frozen datafile, leaving it in place",
				"file", name, "valid", res.End, "size", res.Size)
			corrupt++
		}
	}

	bk.Metrics.ObserveRecovery(res.Records, truncated)
	bk.Metrics.ObserveCorruption(corrupt)

	bk.logger.Debug("loaded datafile", "file", name, "records", res.Records)
	return nil
}
