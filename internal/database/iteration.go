// Package database holds the SQL helpers used by build scripts: sizing
// batches for paged inserts and running a statement against a configured
// database.
package database

import (
	"fmt"

	"github.com/conneroisu/assetpipe/internal/errors"
)

// MaxBatch is the largest batch IterationLimit hands out.
const MaxBatch = 1000

// IterationLimit returns the end index of the next batch. A non-zero limit
// is returned unchanged. With limit zero the batch starts at current and
// covers up to MaxBatch of the total entries.
func IterationLimit(limit, current, total int) (int, error) {
	args := []struct {
		name  string
		value int
	}{{"limit", limit}, {"current", current}, {"total", total}}
	for _, a := range args {
		if a.value < 0 {
			return 0, errors.NewValidationError("database.IterationLimit", errors.ErrCodeInvalidArgument,
				fmt.Sprintf("%s must not be negative, got %d", a.name, a.value))
		}
	}

	if limit != 0 {
		return limit, nil
	}

	step := MaxBatch
	if current > 0 {
		step = total - current
	}
	if step > MaxBatch {
		step = MaxBatch
	}
	return current + step, nil
}
