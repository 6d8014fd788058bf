package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
)

const opRemove = "fsutil.Cleaner.Remove"

// CleanResult lists what a Remove call deleted.
type CleanResult struct {
	Patterns []string
	Removed  []string
}

// Cleaner deletes glob-matched files and directories.
//
// Patterns follow the usual "match everything under X but not X" idiom:
// "dist/**/*" together with "!dist" empties dist but keeps the folder. A
// matched directory that contains an excluded path is kept; its own matched
// children are still removed.
type Cleaner struct {
	fs     afero.Fs
	logger logging.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner(fs afero.Fs, logger logging.Logger) *Cleaner {
	return &Cleaner{fs: fs, logger: logger.WithComponent("cleaner")}
}

// Remove deletes every path matched by patterns. Nothing to delete is not an
// error. The first removal failure stops the batch; paths removed before it
// stay removed and are listed in the returned result.
func (c *Cleaner) Remove(ctx context.Context, patterns []string) (*CleanResult, error) {
	result := &CleanResult{Patterns: patterns}

	include, exclude, err := ParsePatterns(patterns)
	if err != nil {
		c.logger.Error(ctx, err, "Invalid clear pattern")
		return result, err
	}

	c.logger.Info(ctx, "Trying to delete paths", "patterns", strings.Join(patterns, ", "))

	var matches []string
	for _, p := range include {
		found, err := glob(c.fs, p.Glob)
		if err != nil {
			return result, err
		}
		matches = append(matches, found...)
	}
	// Parents sort before their children.
	sort.Strings(matches)

	protected, err := c.protectedPaths(exclude)
	if err != nil {
		return result, err
	}

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if excluded(exclude, match) || containsAny(match, protected) {
			continue
		}

		if _, err := c.fs.Stat(match); err != nil {
			if os.IsNotExist(err) {
				// Already gone with an ancestor.
				continue
			}
			return result, c.fail(ctx, errors.NewIOError(opRemove, errors.ErrCodeStat, match, err))
		}

		if err := c.fs.RemoveAll(match); err != nil {
			return result, c.fail(ctx, errors.NewIOError(opRemove, errors.ErrCodeRemove, match, err))
		}
		result.Removed = append(result.Removed, match)
		c.logger.Success(ctx, "Files/Folders deleted", "path", match)
	}

	if len(result.Removed) == 0 {
		c.logger.Info(ctx, "Nothing to delete, proceeding")
	}

	return result, nil
}

func (c *Cleaner) fail(ctx context.Context, err *errors.PipelineError) error {
	err.WithInfo("rejected")
	c.logger.Error(ctx, err, "Removal aborted")
	return err
}

// protectedPaths expands the exclusion patterns into existing paths.
func (c *Cleaner) protectedPaths(exclude []Pattern) ([]string, error) {
	var protected []string
	for _, p := range exclude {
		found, err := glob(c.fs, p.Glob)
		if err != nil {
			return nil, err
		}
		protected = append(protected, found...)
	}
	return protected, nil
}

// containsAny reports whether dir is a proper ancestor of any of paths.
func containsAny(dir string, paths []string) bool {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
