package transform

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"

	"github.com/conneroisu/assetpipe/internal/validation"
)

// StyleCompiler compiles SCSS source to CSS.
type StyleCompiler interface {
	Compile(ctx context.Context, source, file string) (string, error)
	Close() error
}

// allowedSassBinaries lists the executables accepted as Dart Sass.
var allowedSassBinaries = map[string]bool{
	"sass":      true,
	"dart-sass": true,
}

// DartSass compiles SCSS through the Dart Sass embedded protocol. The sass
// process is started on the first Compile and reused until Close.
type DartSass struct {
	binary string

	mutex      sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass creates a compiler that runs binary ("sass" when empty).
func NewDartSass(binary string) *DartSass {
	if binary == "" {
		binary = "sass"
	}
	return &DartSass{binary: binary}
}

// Available reports whether the sass binary can be found.
func (d *DartSass) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

// Compile compiles SCSS source. Imports are resolved next to file.
// The context is only checked before the call; a running compilation is not
// interrupted.
func (d *DartSass) Compile(ctx context.Context, source, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transpiler, err := d.start()
	if err != nil {
		return "", err
	}

	args := godartsass.Args{
		Source:       source,
		OutputStyle:  godartsass.OutputStyleExpanded,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
	}
	if file != "" {
		if abs, err := filepath.Abs(file); err == nil {
			args.IncludePaths = []string{filepath.Dir(abs)}
		}
	}

	result, err := transpiler.Execute(args)
	if err != nil {
		return "", err
	}
	return result.CSS, nil
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.transpiler != nil {
		return d.transpiler, nil
	}

	if err := validation.ValidateCommand(filepath.Base(d.binary), allowedSassBinaries); err != nil {
		return nil, fmt.Errorf("sass binary validation failed: %w", err)
	}
	path, err := exec.LookPath(d.binary)
	if err != nil {
		return nil, fmt.Errorf("sass binary %q not found: %w", d.binary, err)
	}

	transpiler, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start dart sass: %w", err)
	}
	d.transpiler = transpiler
	return transpiler, nil
}

// Close stops the sass process if it was started.
func (d *DartSass) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}
