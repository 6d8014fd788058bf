// Package fsutil holds the file system helpers of the pipeline: creating
// directory chains, expanding glob patterns and clearing matched paths.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/errors"
)

const opEnsure = "fsutil.Ensure"

// DirMaker creates directories on a file system.
type DirMaker struct {
	fs afero.Fs
}

// NewDirMaker creates a DirMaker for fs.
func NewDirMaker(fs afero.Fs) *DirMaker {
	return &DirMaker{fs: fs}
}

// Ensure creates path if it does not exist. With recursive unset only the
// last segment is created and a missing parent is an error. With recursive
// set every missing segment is created from the root down. Calling Ensure on
// an existing directory is a no-op.
func (m *DirMaker) Ensure(path string, recursive bool) error {
	if path == "" {
		return errors.NewValidationError(opEnsure, errors.ErrCodeInvalidArgument, "empty path")
	}
	path = filepath.Clean(path)

	if done, err := m.exists(path); done || err != nil {
		return err
	}

	if !recursive {
		if err := m.fs.Mkdir(path, 0o755); err != nil && !os.IsExist(err) {
			return errors.NewIOError(opEnsure, errors.ErrCodeMkdir, path, err)
		}
		return nil
	}

	for _, dir := range segments(path) {
		done, err := m.exists(dir)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if err := m.fs.Mkdir(dir, 0o755); err != nil && !os.IsExist(err) {
			return errors.NewIOError(opEnsure, errors.ErrCodeMkdir, dir, err)
		}
	}

	return nil
}

// exists reports whether dir is an existing directory. An existing
// non-directory is an error.
func (m *DirMaker) exists(dir string) (bool, error) {
	info, err := m.fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewIOError(opEnsure, errors.ErrCodeStat, dir, err)
	}
	if !info.IsDir() {
		return false, errors.NewIOError(opEnsure, errors.ErrCodeNotDirectory, dir, nil)
	}
	return true, nil
}

// segments returns every prefix directory of path from the root down,
// ending with path itself.
func segments(path string) []string {
	volume := filepath.VolumeName(path)
	rest := strings.TrimPrefix(path, volume)

	current := volume
	if strings.HasPrefix(rest, string(filepath.Separator)) {
		current += string(filepath.Separator)
	}

	var dirs []string
	for _, part := range strings.Split(rest, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}
