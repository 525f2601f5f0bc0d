package nvstore

import (
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// imageFS stands in for the filesystem holding a single storage image.
// Errors queued with failRead and failWrite are returned in order before the
// image itself is touched.
type imageFS struct {
	t         *testing.T
	path      string
	image     []byte
	exists    bool
	readErrs  []error
	writeErrs []error
	reads     int
	writes    int
}

// setupImageFS swaps the package filesystem for an imageFS serving image at
// path. A nil image means the file does not exist yet.
func setupImageFS(t *testing.T, path string, image []byte) *imageFS {
	t.Helper()
	original := filesystem
	m := &imageFS{t: t, path: path, image: image, exists: image != nil}
	filesystem = m
	t.Cleanup(func() { filesystem = original })
	return m
}

func (m *imageFS) failRead(errs ...error) {
	m.readErrs = append(m.readErrs, errs...)
}

func (m *imageFS) failWrite(errs ...error) {
	m.writeErrs = append(m.writeErrs, errs...)
}

func (m *imageFS) ReadFile(filename string) ([]byte, error) {
	m.reads++
	assert.Equal(m.t, m.path, filename, "ReadFile called with unexpected path")
	if len(m.readErrs) > 0 {
		err := m.readErrs[0]
		m.readErrs = m.readErrs[1:]
		return nil, err
	}
	if !m.exists {
		return nil, &fs.PathError{Op: "open", Path: filename, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), m.image...), nil
}

func (m *imageFS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	m.writes++
	assert.Equal(m.t, m.path, filename, "WriteFile called with unexpected path")
	assert.Equal(m.t, imagePerm, perm, "WriteFile called with unexpected permissions")
	if len(m.writeErrs) > 0 {
		err := m.writeErrs[0]
		m.writeErrs = m.writeErrs[1:]
		return err
	}
	m.image = append([]byte(nil), data...)
	m.exists = true
	return nil
}

// assertRegion checks the bytes the image holds in region.
func (m *imageFS) assertRegion(region Region, want []byte) {
	m.t.Helper()
	if !assert.GreaterOrEqual(m.t, int64(len(m.image)), region.End(), "image shorter than region %s", region) {
		return
	}
	assert.Equal(m.t, want, m.image[region.Offset:region.End()], "region %s", region)
}

// assertOutside checks that every byte outside region still matches before.
func (m *imageFS) assertOutside(region Region, before []byte) {
	m.t.Helper()
	for i, b := range before {
		if int64(i) >= region.Offset && int64(i) < region.End() {
			continue
		}
		if !assert.Less(m.t, i, len(m.image)) || !assert.Equal(m.t, b, m.image[i], "byte %d outside region %s", i, region) {
			return
		}
	}
}

// assertCalls checks the number of reads and writes since the last check.
func (m *imageFS) assertCalls(reads, writes int) {
	m.t.Helper()
	assert.Equal(m.t, reads, m.reads, "ReadFile calls")
	assert.Equal(m.t, writes, m.writes, "WriteFile calls")
	assert.Empty(m.t, m.readErrs, "queued read errors left")
	assert.Empty(m.t, m.writeErrs, "queued write errors left")
	m.reads, m.writes = 0, 0
}
