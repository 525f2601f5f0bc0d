package nvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const lockRetryInterval = 10 * time.Millisecond

// ErrLocked is returned when another process holds the image lock.
var ErrLocked = errors.New("storage image is locked by another process")

// fileLock is an exclusive flock on a separate "<image>.lock" file. The image
// itself is replaced on every write, so it cannot carry the lock.
type fileLock struct {
	path string
	file *os.File
}

// acquireLock takes an exclusive lock for image, retrying until timeout.
// A zero timeout tries exactly once.
func acquireLock(image string, timeout time.Duration) (*fileLock, error) {
	lockPath := image + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, imagePerm) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &fileLock{path: lockPath, file: file}, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) && !errors.Is(err, syscall.EINTR) {
			_ = file.Close()
			return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
		}
		if !time.Now().Before(deadline) {
			_ = file.Close()
			return nil, fmt.Errorf("%w: %s", ErrLocked, image)
		}
		time.Sleep(lockRetryInterval)
	}
}

func (l *fileLock) release() error {
	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	return errors.Join(unlockErr, l.file.Close())
}
