//go:build unix

package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
)

// dirLockFileName is the well-known lock file inside a mods directory.
// The zero-byte file is harmless if orphaned: the kernel drops the flock
// when the holding process exits, cleanly or not.
const dirLockFileName = ".furrctorio.dirlock"

// dirLock holds a non-blocking exclusive flock on a mods directory,
// serializing apply runs across processes.
type dirLock struct {
	file *os.File
}

// acquireDirLock takes the directory's flock without blocking. A directory
// already locked by another process fails with errors.ErrBusy.
func acquireDirLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, dirLockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ferrors.NewBusyError(dir)
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &dirLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *dirLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
