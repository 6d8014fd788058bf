package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/metrics"
)

// DefaultDebounce is how long the slot stays taken after a task finished.
const DefaultDebounce = 500 * time.Millisecond

// PathCleaner deletes the paths matched by glob patterns.
type PathCleaner interface {
	Remove(ctx context.Context, patterns []string) (*fsutil.CleanResult, error)
}

// StylesheetCompiler compiles an SCSS entry into a CSS file.
type StylesheetCompiler interface {
	CompileStylesheet(ctx context.Context, entry, output string) error
}

// Options configures the stylesheet recompile. Paths are absolute.
type Options struct {
	Clear    []string
	Entry    string
	Output   string
	Debounce time.Duration
}

// task handles one accepted change event.
type task func(ctx context.Context, event ChangeEvent) error

// Orchestrator reacts to change events with a single slot: an event that
// arrives while the slot is taken is dropped, never queued. The slot is
// released a debounce interval after the task finished, whether it failed
// or not.
type Orchestrator struct {
	opts     Options
	cleaner  PathCleaner
	compiler StylesheetCompiler
	recorder metrics.Recorder
	logger   logging.Logger

	tasks    map[string]task
	slot     chan struct{}
	dropped  atomic.Int64
	handled  atomic.Int64
	inflight sync.WaitGroup

	mutex  sync.Mutex
	closed bool
}

// NewOrchestrator wires an Orchestrator. A nil recorder disables metrics.
func NewOrchestrator(opts Options, cleaner PathCleaner, compiler StylesheetCompiler, recorder metrics.Recorder, logger logging.Logger) *Orchestrator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	o := &Orchestrator{
		opts:     opts,
		cleaner:  cleaner,
		compiler: compiler,
		recorder: recorder,
		logger:   logger.WithComponent("watch"),
		slot:     make(chan struct{}, 1),
	}
	o.tasks = map[string]task{
		".scss": o.recompileStylesheet,
	}
	return o
}

// HandleEvent processes event when the slot is free and reports whether it
// was accepted. Rename events are ignored; busy-time events are dropped.
// Events after Close are ignored. The task runs on its own goroutine.
func (o *Orchestrator) HandleEvent(ctx context.Context, event ChangeEvent) bool {
	if event.Type != EventChange {
		return false
	}

	// inflight.Add must not race with Wait once Close was called.
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.closed {
		return false
	}

	select {
	case o.slot <- struct{}{}:
	default:
		o.dropped.Add(1)
		o.recorder.IncWatchDropped()
		o.logger.Debug(ctx, "Busy, dropping event", "path", event.Path)
		return false
	}

	o.inflight.Add(1)
	go o.run(ctx, event)
	return true
}

func (o *Orchestrator) run(ctx context.Context, event ChangeEvent) {
	defer func() {
		time.AfterFunc(o.opts.Debounce, func() {
			<-o.slot
			o.inflight.Done()
		})
	}()

	o.handled.Add(1)
	o.logger.Info(ctx, "Starting", "path", event.Path)

	t, ok := o.tasks[strings.ToLower(filepath.Ext(event.Path))]
	if !ok {
		return
	}

	if err := t(ctx, event); err != nil {
		o.recorder.IncWatchRecompile(false)
		o.logger.Error(ctx, err, "Recompile failed", "path", event.Path)
		return
	}
	o.recorder.IncWatchRecompile(true)
	o.logger.Success(ctx, "Recompile done", "path", event.Path)
}

func (o *Orchestrator) recompileStylesheet(ctx context.Context, _ ChangeEvent) error {
	o.logger.Info(ctx, "Compiling for development", "entry", o.opts.Entry)

	if len(o.opts.Clear) > 0 {
		if _, err := o.cleaner.Remove(ctx, o.opts.Clear); err != nil {
			return err
		}
	}
	return o.compiler.CompileStylesheet(ctx, o.opts.Entry, o.opts.Output)
}

// Busy reports whether the slot is taken.
func (o *Orchestrator) Busy() bool {
	return len(o.slot) > 0
}

// Dropped returns how many change events were dropped while busy.
func (o *Orchestrator) Dropped() int64 {
	return o.dropped.Load()
}

// Handled returns how many change events were accepted.
func (o *Orchestrator) Handled() int64 {
	return o.handled.Load()
}

// Close stops accepting events. Tasks already running are not interrupted.
func (o *Orchestrator) Close() {
	o.mutex.Lock()
	o.closed = true
	o.mutex.Unlock()
}

// Wait blocks until every accepted task finished and released the slot.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Run registers every folder on fw, routes its events here and blocks
// until ctx is done. In-flight work is waited for before returning.
func (o *Orchestrator) Run(ctx context.Context, fw *FileWatcher, folders []string) error {
	for _, folder := range folders {
		if err := fw.AddRecursive(folder); err != nil {
			return err
		}
		o.logger.Info(ctx, "Watching folder", "path", folder)
	}

	fw.AddHandler(func(ctx context.Context, event ChangeEvent) {
		o.HandleEvent(ctx, event)
	})
	fw.Start(ctx)

	<-ctx.Done()
	err := fw.Stop()
	o.Close()
	o.Wait()
	o.logger.Info(context.Background(), "Watcher stopped", "handled", o.Handled(), "dropped", o.Dropped())
	return err
}
