package utils

import (
	"errors"
	"os"
)

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(filepath string) bool {
	_, err := os.Stat(filepath)
	return err == nil
}

// EnsureDirectory creates path if it does not exist yet. It reports whether
// the directory was created.
func EnsureDirectory(path string) (created bool, err error) {
	fi, err := os.Stat(path)
	if err == nil {
		if !fi.IsDir() {
			return false, errors.New(path + " exists and is not a directory")
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}

	// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
	if err := os.MkdirAll(path, 0755); err != nil {
		return false, err
	}
	return true, nil
}
