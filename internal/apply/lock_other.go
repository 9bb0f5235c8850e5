//go:build !unix

package apply

import (
	"fmt"
	"os"
	"path/filepath"

	ferrors "github.com/cliftontoaster-reid/furrctorio/internal/errors"
)

const dirLockFileName = ".furrctorio.dirlock"

// dirLock falls back to create-exclusive semantics where flock(2) is not
// available. Unlike the flock variant, a crashed process leaves the file
// behind and the next run reports the directory busy until it is removed.
type dirLock struct {
	path string
}

func acquireDirLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, dirLockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ferrors.NewBusyError(dir)
		}
		return nil, fmt.Errorf("create lock file %s: %w", path, err)
	}
	f.Close()

	return &dirLock{path: path}, nil
}

func (l *dirLock) Release() {
	if l == nil || l.path == "" {
		return
	}
	_ = os.Remove(l.path)
	l.path = ""
}
