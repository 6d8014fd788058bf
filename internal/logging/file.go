package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	// LogFileName receives every record at or above the file level.
	LogFileName = "log.log"
	// ErrorLogFileName receives error records only.
	ErrorLogFileName = "errorlog.log"

	// DefaultMaxFileSize is the size above which a log file is rewritten.
	DefaultMaxFileSize int64 = 100 * 1000 * 1000
)

var headers = map[string]string{
	LogFileName:      "##### Log #####",
	ErrorLogFileName: "##### Error log #####",
}

// CappedFile is an append-only log file that starts over once it grows past
// maxSize. Old content is discarded, never rotated into a second file.
type CappedFile struct {
	fs      afero.Fs
	path    string
	header  string
	maxSize int64

	mutex sync.Mutex
	file  afero.File
	size  int64
	warn  sync.Once
}

// OpenCappedFile opens (or creates) path for appending.
func OpenCappedFile(fs afero.Fs, path string, maxSize int64) (*CappedFile, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	file, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &CappedFile{
		fs:      fs,
		path:    path,
		header:  headers[filepath.Base(path)],
		maxSize: maxSize,
		file:    file,
		size:    info.Size(),
	}, nil
}

// Write appends p, truncating the file first when it is over the cap.
func (c *CappedFile) Write(p []byte) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.file == nil {
		return 0, os.ErrClosed
	}

	if c.size > c.maxSize {
		if err := c.restart(); err != nil {
			c.report(err)
			return 0, err
		}
	}

	n, err := c.file.Write(p)
	c.size += int64(n)
	if err != nil {
		c.report(err)
	}
	return n, err
}

func (c *CappedFile) restart() error {
	if err := c.file.Truncate(0); err != nil {
		return err
	}
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	c.size = 0
	if c.header == "" {
		return nil
	}
	n, err := c.file.Write([]byte(c.header + "\n"))
	c.size += int64(n)
	return err
}

// report prints the first write failure to stderr; later ones stay silent.
func (c *CappedFile) report(err error) {
	c.warn.Do(func() {
		fmt.Fprintf(os.Stderr, "log file %s: %v\n", c.path, err)
	})
}

// Size returns the number of bytes currently in the file.
func (c *CappedFile) Size() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.size
}

// Close closes the underlying file
func (c *CappedFile) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

// Options configures the process logger built by Setup.
type Options struct {
	Level       LogLevel
	FileLevel   LogLevel
	Format      string
	Dir         string
	MaxFileSize int64
	Console     io.Writer
	Fs          afero.Fs
}

// Closer releases the log files opened by Setup.
type Closer struct {
	files []*CappedFile
}

// Close closes every log file.
func (c *Closer) Close() error {
	var errs []error
	for _, f := range c.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// Setup builds the process logger: console output plus log.log and
// errorlog.log in opts.Dir. An empty Dir disables file output.
func Setup(opts Options) (Logger, *Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	loggers := []Logger{NewLogger(&LoggerConfig{
		Level:  opts.Level,
		Format: opts.Format,
		Output: console,
	})}
	closer := &Closer{}

	if opts.Dir == "" {
		return NewMultiLogger(loggers...), closer, nil
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := OpenCappedFile(fs, filepath.Join(opts.Dir, LogFileName), opts.MaxFileSize)
	if err != nil {
		return nil, nil, err
	}
	errorFile, err := OpenCappedFile(fs, filepath.Join(opts.Dir, ErrorLogFileName), opts.MaxFileSize)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	closer.files = append(closer.files, logFile, errorFile)

	loggers = append(loggers,
		NewLogger(&LoggerConfig{Level: opts.FileLevel, Format: "text", Output: logFile}),
		NewLogger(&LoggerConfig{Level: LevelError, Format: "text", Output: errorFile}),
	)

	return NewMultiLogger(loggers...), closer, nil
}
