package filestore

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

// writeFileAtomic writes data to a temp file next to path and renames it over path,
// so readers never see a partially written file.
// A full or read-only disk is reported as a shutdown error: no later write can succeed either.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := writeAndRename(path, data, perm)
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EROFS) {
		return core.NewShutdownError("data directory is not writable", err)
	}
	return err
}

func writeAndRename(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return errors.Wrap(err, "setting file mode")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
