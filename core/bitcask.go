package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/0xRadioAc7iv/caskdb/internal/clock"
	"github.com/0xRadioAc7iv/caskdb/internal/datafile"
	"github.com/0xRadioAc7iv/caskdb/internal/keydir"
	"github.com/0xRadioAc7iv/caskdb/internal/lock"
	"github.com/0xRadioAc7iv/caskdb/internal/logging"
	"github.com/0xRadioAc7iv/caskdb/internal/metrics"
	"github.com/0xRadioAc7iv/caskdb/internal/server"
	"github.com/0xRadioAc7iv/caskdb/internal/utils"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrEmptyKey    = errors.New("key must not be empty")
	ErrEmptyValue  = errors.New("value must not be empty")
	ErrNotStarted  = errors.New("bitcask is not running")
)

type Bitcask struct {
	lock         *lock.Lock
	listener     net.Listener
	serverCancel context.CancelFunc
	syncCancel   context.CancelFunc
	background   sync.WaitGroup
	logger       hclog.Logger

	dataMu   sync.Mutex // for active + activeID
	active   *datafile.DataFile
	activeID uint64

	filesMu sync.RWMutex // for files + keyDir
	files   map[uint64]*datafile.DataFile
	keyDir  keydir.Index

	DirectoryPath       string
	MaximumDatafileSize int
	ListenerPort        int
	SyncInterval        uint
	SyncOnWrite         bool
	KeyDirShards        int

	// DisableServer skips the TCP listener for embedded use.
	DisableServer bool

	Clock   clock.Clock
	Logger  hclog.Logger
	Metrics *metrics.Metrics
}

func (bk *Bitcask) dataDir() string {
	return filepath.Join(bk.DirectoryPath, DataDirName)
}

func (bk *Bitcask) applyDefaults() {
	if bk.MaximumDatafileSize <= 0 {
		bk.MaximumDatafileSize = DefaultDataFileSize
	}
	if bk.SyncInterval == 0 {
		bk.SyncInterval = DefaultSyncInterval
	}
	if bk.Clock == nil {
		bk.Clock = clock.System{}
	}
	bk.logger = logging.OrDiscard(bk.Logger).Named("bitcask")
}

func (bk *Bitcask) Start() error {
	bk.applyDefaults()

	if _, err := utils.EnsureDirectory(bk.DirectoryPath); err != nil {
		return fmt.Errorf("open bitcask directory: %w", err)
	}

	lk, err := lock.LockDirectory(bk.DirectoryPath)
	if err != nil {
		bk.logger.Error("error locking bitcask datafiles directory", "dir", bk.DirectoryPath, "error", err)
		return err
	}
	bk.lock = lk
	bk.logger.Info("acquired directory lock", "dir", bk.DirectoryPath, "instance", lk.ID)

	if err := bk.openDataDirectory(); err != nil {
		bk.Stop()
		return err
	}

	bk.filesMu.Lock()
	bk.keyDir = keydir.NewSharded(bk.KeyDirShards)
	bk.files = make(map[uint64]*datafile.DataFile)
	bk.filesMu.Unlock()

	ids, err := bk.scanForDatafiles()
	if err != nil {
		bk.logger.Error("error scanning for datafiles", "error", err)
		bk.Stop()
		return err
	}

	if err := bk.loadDatafilesToKeyDir(ids); err != nil {
		bk.logger.Error("error reading datafiles", "error", err)
		bk.Stop()
		return err
	}

	if err := bk.openActiveDatafile(ids); err != nil {
		bk.logger.Error("error creating new active datafile", "error", err)
		bk.Stop()
		return err
	}

	if !bk.DisableServer {
		ln, err := server.Listen(bk.ListenerPort)
		if err != nil {
			bk.Stop()
			return fmt.Errorf("start server: %w", err)
		}
		bk.listener = ln

		ctx, cancel := context.WithCancel(context.Background())
		bk.serverCancel = cancel
		bk.background.Add(1)
		go func() {
			defer bk.background.Done()
			if err := server.Serve(ctx, ln, bk.commandHandler, bk.logger.Named("server")); err != nil {
				bk.logger.Error("server stopped abruptly", "error", err)
			}
		}()
	}

	syncCtx, syncCancel := context.WithCancel(context.Background())
	bk.syncCancel = syncCancel
	bk.background.Add(1)
	go func() {
		defer bk.background.Done()
		bk.syncDiskInterval(syncCtx, bk.SyncInterval)
	}()

	bk.logger.Info("bitcask started successfully", "keys", bk.index().Len(), "active", datafile.FileName(bk.activeID))
	if bk.listener != nil {
		bk.logger.Info("server listening", "addr", bk.listener.Addr().String())
	}

	return nil
}

// Addr returns the address the TCP server is bound to, or nil when the
// server is disabled or not running.
func (bk *Bitcask) Addr() net.Addr {
	if bk.listener == nil {
		return nil
	}
	return bk.listener.Addr()
}

func (bk *Bitcask) openDataDirectory() error {
	created, err := utils.EnsureDirectory(bk.dataDir())
	if err != nil {
		bk.logger.Error("error opening bitcask datafiles directory", "error", err)
		return err
	}

	if created {
		bk.logger.Info("datafile directory does not exist, created one", "dir", bk.dataDir())
	} else {
		bk.logger.Debug("datafile directory already exists, skipping creation", "dir", bk.dataDir())
	}

	return nil
}

func (bk *Bitcask) datafileOptions() []datafile.Option {
	return []datafile.Option{
		datafile.WithSyncOnWrite(bk.SyncOnWrite),
		datafile.WithMetrics(bk.Metrics),
		datafile.WithLogger(bk.logger.Named("datafile")),
	}
}

func (bk *Bitcask) openDatafile(id uint64, readonly bool) (*datafile.DataFile, error) {
	return datafile.Open(filepath.Join(bk.dataDir(), datafile.FileName(id)), readonly, bk.datafileOptions()...)
}

// index returns the keydir, or nil once the engine is stopped.
func (bk *Bitcask) index() keydir.Index {
	bk.filesMu.RLock()
	defer bk.filesMu.RUnlock()
	return bk.keyDir
}

func (bk *Bitcask) datafile(id uint64) (*datafile.DataFile, bool) {
	bk.filesMu.RLock()
	defer bk.filesMu.RUnlock()

	df, ok := bk.files[id]
	return df, ok
}

// openActiveDatafile resumes the newest datafile if it still has room,
// otherwise starts a new one after it.
func (bk *Bitcask) openActiveDatafile(ids []uint64) error {
	bk.dataMu.Lock()
	defer bk.dataMu.Unlock()

	if len(ids) > 0 {
		newest := ids[len(ids)-1]
		df, _ := bk.datafile(newest)

		if df.WritePos() < uint64(bk.MaximumDatafileSize) {
			df.SetReadOnly(false)
			bk.active = df
			bk.activeID = newest
			return nil
		}

		return bk.startDatafile(newest + 1)
	}

	return bk.startDatafile(0)
}

// startDatafile creates datafile id and makes it the active one. The caller
// holds dataMu.
func (bk *Bitcask) startDatafile(id uint64) error {
	df, err := bk.openDatafile(id, false)
	if err != nil {
		return err
	}

	bk.filesMu.Lock()
	bk.files[id] = df
	bk.filesMu.Unlock()

	bk.active = df
	bk.activeID = id
	return nil
}

// rotateActiveDatafile freezes the active datafile and starts the next one.
// The frozen file stays open for readers. The caller holds dataMu.
func (bk *Bitcask) rotateActiveDatafile() error {
	old := bk.active
	oldID := bk.activeID

	if err := old.Sync(); err != nil {
		bk.logger.Error("error syncing the active datafile on rotation", "error", err)
		return err
	}
	old.SetReadOnly(true)

	if err := bk.startDatafile(oldID + 1); err != nil {
		old.SetReadOnly(false)
		return err
	}

	bk.Metrics.ObserveRotation()
	bk.logger.Info("rotated active datafile", "frozen", datafile.FileName(oldID), "active", datafile.FileName(bk.activeID))
	return nil
}

// append writes one record to the active datafile, applies it to the keydir
// and rotates the datafile once it reaches MaximumDatafileSize. An empty
// value is a tombstone.
func (bk *Bitcask) append(key, value []byte) (keydir.Entry, error) {
	bk.dataMu.Lock()
	defer bk.dataMu.Unlock()

	kd := bk.index()
	if bk.active == nil || kd == nil {
		return keydir.Entry{}, ErrNotStarted
	}

	ts := bk.Clock.Now()
	off, n, err := bk.active.Append(key, value, ts)
	if err != nil {
		return keydir.Entry{}, err
	}

	entry := keydir.Entry{
		FileID:    bk.activeID,
		Offset:    off,
		Length:    uint64(n),
		Timestamp: ts,
	}

	// dataMu orders appends, so the last record written is the one indexed
	// whatever its timestamp.
	if len(value) == 0 {
		kd.Delete(string(key))
	} else {
		kd.Put(string(key), entry)
	}
	bk.Metrics.SetKeyDirSize(kd.Len())

	if bk.active.WritePos() >= uint64(bk.MaximumDatafileSize) {
		if err := bk.rotateActiveDatafile(); err != nil {
			// the record itself is durable in the old file
			bk.logger.Error("error rotating active datafile", "error", err)
		}
	}

	return entry, nil
}

// Set stores value under key, replacing any previous value.
func (bk *Bitcask) Set(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}

	_, err := bk.append(key, value)
	return err
}

// Get returns the latest value stored under key.
func (bk *Bitcask) Get(key []byte) ([]byte, error) {
	kd := bk.index()
	if kd == nil {
		return nil, ErrNotStarted
	}

	entry, ok := kd.Get(string(key))
	if !ok {
		return nil, ErrKeyNotFound
	}

	df, ok := bk.datafile(entry.FileID)
	if !ok {
		return nil, fmt.Errorf("keydir points at unknown datafile %d", entry.FileID)
	}

	e, err := df.Read(entry.Offset, entry.Length)
	if err != nil {
		return nil, err
	}
	if string(e.Key) != string(key) {
		return nil, fmt.Errorf("record at %s:%d holds key %q, want %q", datafile.FileName(entry.FileID), entry.Offset, e.Key, key)
	}

	return e.Value, nil
}

// Delete appends a tombstone for key and drops it from the keydir. Deleting
// a missing key is not an error.
func (bk *Bitcask) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	kd := bk.index()
	if kd == nil {
		return ErrNotStarted
	}
	if _, ok := kd.Get(string(key)); !ok {
		return nil
	}

	_, err := bk.append(key, nil)
	return err
}

func (bk *Bitcask) Exists(key []byte) bool {
	kd := bk.index()
	if kd == nil {
		return false
	}
	_, ok := kd.Get(string(key))
	return ok
}

func (bk *Bitcask) Count() int {
	kd := bk.index()
	if kd == nil {
		return 0
	}
	return kd.Len()
}

// List returns every live key in sorted order.
func (bk *Bitcask) List() []string {
	kd := bk.index()
	if kd == nil {
		return nil
	}
	return kd.Keys()
}

// Sync forces the active datafile to stable storage.
func (bk *Bitcask) Sync() error {
	bk.dataMu.Lock()
	defer bk.dataMu.Unlock()

	if bk.active == nil {
		return ErrNotStarted
	}
	return bk.active.Sync()
}

func (bk *Bitcask) syncDiskInterval(ctx context.Context, seconds uint) {
	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := bk.Sync(); err != nil {
				bk.logger.Error("error syncing active datafile", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (bk *Bitcask) Stop() {
	if bk.serverCancel != nil {
		bk.serverCancel()
		bk.serverCancel = nil
	}

	if bk.syncCancel != nil {
		bk.syncCancel()
		bk.syncCancel = nil
	}

	bk.background.Wait()
	bk.listener = nil

	bk.dataMu.Lock()
	if bk.active != nil {
		if err := bk.active.Sync(); err != nil {
			bk.logger.Error("error syncing the active datafile", "error", err)
		}
	}
	bk.active = nil
	bk.dataMu.Unlock()

	bk.filesMu.Lock()
	for id, df := range bk.files {
		if err := df.Close(); err != nil {
			bk.logger.Error("error closing datafile", "file", datafile.FileName(id), "error", err)
		}
	}
	bk.files = nil
	bk.keyDir = nil
	bk.filesMu.Unlock()

	if bk.lock != nil {
		bk.lock.Unlock()
		bk.lock = nil
	}
}
