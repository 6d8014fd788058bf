package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/config"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/transform"
)

// environment bundles what every command needs: configuration, the process
// logger and the filesystem.
type environment struct {
	cfg    *config.Config
	logger logging.Logger
	fs     afero.Fs
	closer *logging.Closer
}

func newEnvironment(console io.Writer) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	fileLevel, err := logging.ParseLevel(cfg.Log.FileLevel)
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	logger, closer, err := logging.Setup(logging.Options{
		Level:       level,
		FileLevel:   fileLevel,
		Format:      cfg.Log.Format,
		Dir:         cfg.LogDir(),
		MaxFileSize: cfg.MaxLogBytes(),
		Console:     console,
		Fs:          fs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, fs: fs, closer: closer}, nil
}

func (e *environment) Close() error {
	return e.closer.Close()
}

// transformer builds the file transformer and the Dart Sass compiler behind
// it. The caller closes the compiler.
func (e *environment) transformer(releaseDB string) (*transform.Transformer, *transform.DartSass, error) {
	sass := transform.NewDartSass(e.cfg.Transform.SassBinary)
	tr, err := transform.New(e.fs, transform.Options{
		ProjectRoot: e.cfg.ProjectRoot,
		ReleaseDB:   releaseDB,
		Placeholder: e.cfg.Transform.Placeholder,
		Browsers:    e.cfg.Transform.Browsers,
	}, sass, e.logger)
	if err != nil {
		_ = sass.Close()
		return nil, nil, err
	}
	return tr, sass, nil
}
