// Package datafile stores key/value records in append-only segment files.
//
// A DataFile appends encoded records through the write cursor of a
// filehandle.Handle and reads them back by (offset, length) through the read
// cursor. One goroutine may write while any number read. A record is readable
// as soon as the Write that produced it returns, since every write is flushed
// to the OS before returning; whether it is also fsynced depends on
// WithSyncOnWrite.
//
// Segment files are named data.<id>, see FileName and ParseFileID.
package datafile
