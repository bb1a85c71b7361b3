//go:build !linux

package filehandle

import "os"

func adviseRandom(*os.File) {}

func datasync(f *os.File) error {
	return f.Sync()
}
