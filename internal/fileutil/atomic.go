// Package fileutil writes translated output without leaving a half-written
// file behind when the process dies or the disk fills.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/FocuswithJustin/dansk/core/errors"
)

// osRename is swapped in tests.
var osRename = os.Rename

// WriteFile writes data to a temp file next to path and renames it into
// place. An existing file keeps its permissions; a new one gets perm.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.NewIO("create", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", tmpPath, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("chmod", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", tmpPath, err)
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
