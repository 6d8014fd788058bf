//go:build property

package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/assetpipe/internal/logging"
)

// TestOrchestratorProperties checks the single-slot gate.
func TestOrchestratorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("only the first change event of a burst is accepted", prop.ForAll(
		func(burst int) bool {
			compiler := newBlockingCompiler()
			o := NewOrchestrator(Options{Entry: "/e.scss", Output: "/o.css", Debounce: time.Millisecond},
				&fakeCleaner{}, compiler, nil, logging.NewNopLogger())
			ctx := context.Background()

			accepted := 0
			for i := 0; i < burst; i++ {
				if o.HandleEvent(ctx, ChangeEvent{Type: EventChange, Path: "/a.scss"}) {
					accepted++
				}
			}
			close(compiler.release)
			o.Wait()

			return accepted == 1 &&
				o.Dropped() == int64(burst-1) &&
				compiler.calls.Load() == 1 &&
				!o.Busy()
		},
		gen.IntRange(1, 50),
	))

	properties.Property("rename events never take the slot", prop.ForAll(
		func(renames int) bool {
			compiler := newBlockingCompiler()
			close(compiler.release)
			o := NewOrchestrator(Options{Entry: "/e.scss", Output: "/o.css", Debounce: time.Millisecond},
				&fakeCleaner{}, compiler, nil, logging.NewNopLogger())

			for i := 0; i < renames; i++ {
				if o.HandleEvent(context.Background(), ChangeEvent{Type: EventRename, Path: "/a.scss"}) {
					return false
				}
			}
			return !o.Busy() && o.Dropped() == 0 && o.Handled() == 0
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
