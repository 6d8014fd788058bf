// Package watcher recompiles the development stylesheet while SCSS sources
// are being edited. FileWatcher turns fsnotify notifications into change and
// rename events; Orchestrator runs at most one recompile at a time and drops
// events that arrive while it is busy.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/assetpipe/internal/logging"
)

// EventType is the kind of notification, following the two kinds a
// recursive folder watch reports.
type EventType int

const (
	// EventChange means the content of a file was written.
	EventChange EventType = iota
	// EventRename covers creation, deletion and renaming.
	EventRename
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventChange:
		return "change"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeEvent is one file system notification.
type ChangeEvent struct {
	Type EventType
	Path string
}

// FileFilter determines if a path is reported
type FileFilter func(path string) bool

// EventHandler receives every event that passed the filters.
type EventHandler func(ctx context.Context, event ChangeEvent)

// FileWatcher watches folder trees for file changes.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   logging.Logger
	filters  []FileFilter
	handlers []EventHandler
	mutex    sync.RWMutex
	done     chan struct{}
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		logger:  logger.WithComponent("watcher"),
		done:    make(chan struct{}),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds an event handler
func (fw *FileWatcher) AddHandler(handler EventHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches root and every folder below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// WatchList returns the folders currently watched.
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

// Start runs the event loop until ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.watchLoop(ctx)
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.done:
		return nil
	default:
		close(fw.done)
	}
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error, continuing")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	changeEvent, ok := classify(event)
	if !ok {
		return
	}

	// Follow folders created inside a watched tree.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Could not watch new folder", "path", event.Name)
			}
		}
	}

	fw.mutex.RLock()
	filters := fw.filters
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(changeEvent.Path) {
			return
		}
	}

	fw.logger.Debug(ctx, "File event", "type", changeEvent.Type.String(), "path", changeEvent.Path)
	for _, handler := range handlers {
		handler(ctx, changeEvent)
	}
}

// classify maps an fsnotify operation onto an event type. Attribute-only
// changes are ignored.
func classify(event fsnotify.Event) (ChangeEvent, bool) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeEvent{Type: EventRename, Path: event.Name}, true
	case event.Has(fsnotify.Write):
		return ChangeEvent{Type: EventChange, Path: event.Name}, true
	default:
		return ChangeEvent{}, false
	}
}

// NoEditorTempFilter rejects swap and backup files written by editors.
func NoEditorTempFilter(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, ".#"), strings.HasPrefix(base, "#"):
		return false
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return false
	}
	return true
}
