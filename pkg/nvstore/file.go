package nvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/utils"
)

const imagePerm os.FileMode = 0o600

// FileStorage is a Storage backed by an image file standing in for a
// device's non-volatile memory. Several regions may share one image; a Save
// rewrites the whole file atomically and leaves bytes outside its region
// untouched.
//
// Transient I/O errors are retried according to the RetryConfig. ctx bounds
// those retries for the lifetime of the FileStorage.
//
// A table is read once and then rewritten whole, so only one process may use
// an image at a time. Owners call Lock before the first Load and Close when
// done.
type FileStorage struct {
	ctx   context.Context
	path  string
	retry utils.RetryConfig
	lock  *fileLock
}

// NewFileStorage returns a FileStorage for the image at path.
func NewFileStorage(ctx context.Context, path string, retry utils.RetryConfig) *FileStorage {
	return &FileStorage{ctx: ctx, path: path, retry: retry}
}

// Path returns the image file path.
func (f *FileStorage) Path() string {
	return f.path
}

// Lock takes the exclusive lock on the image, waiting up to timeout for
// another owner to let go. It returns an error wrapping ErrLocked when the
// wait runs out.
func (f *FileStorage) Lock(timeout time.Duration) error {
	if f.lock != nil {
		return nil
	}
	lock, err := acquireLock(f.path, timeout)
	if err != nil {
		return err
	}
	glog.V(2).Infof("Locked storage image %s", f.path)
	f.lock = lock
	return nil
}

// Close releases the image lock, if held.
func (f *FileStorage) Close() error {
	if f.lock == nil {
		return nil
	}
	err := f.lock.release()
	f.lock = nil
	if err != nil {
		return fmt.Errorf("failed to unlock storage image %s: %w", f.path, err)
	}
	return nil
}

// Load reads region from the image. A missing or short image reads as zeros.
func (f *FileStorage) Load(region Region) ([]byte, error) {
	if err := region.validate(); err != nil {
		return nil, err
	}
	image, err := f.readImage()
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("Loaded region %s from %s (%d byte image)", region, f.path, len(image))
	return extract(image, region), nil
}

// Save writes data into region of the image.
func (f *FileStorage) Save(region Region, data []byte) error {
	if err := region.checkData(data); err != nil {
		return err
	}
	image, err := f.readImage()
	if err != nil {
		return err
	}
	image = patch(image, region, data)

	err = utils.RetryWithBackoff(f.ctx, "write "+f.path, func() error {
		return filesystem.WriteFile(f.path, image, imagePerm)
	}, f.retry)
	if err != nil {
		return fmt.Errorf("failed to write storage image %s: %w", f.path, err)
	}
	glog.V(2).Infof("Saved region %s to %s", region, f.path)
	return nil
}

func (f *FileStorage) readImage() ([]byte, error) {
	var image []byte
	err := utils.RetryWithBackoff(f.ctx, "read "+f.path, func() error {
		var readErr error
		image, readErr = filesystem.ReadFile(f.path)
		return readErr
	}, f.retry)
	if errors.Is(err, fs.ErrNotExist) {
		glog.V(2).Infof("Storage image %s does not exist yet", f.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage image %s: %w", f.path, err)
	}
	return image, nil
}
