package transform

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/logging"
)

const opTransform = "transform.Transform"

// Options configures a Transformer.
type Options struct {
	ProjectRoot string
	// ReleaseDB replaces Placeholder in JavaScript sources.
	ReleaseDB   string
	Placeholder string
	Browsers    []string
}

// strategy produces the destination content for one file.
type strategy func(ctx context.Context, source string) ([]byte, error)

// Transformer writes transformed copies of source files.
type Transformer struct {
	fs       afero.Fs
	opts     Options
	dirs     *fsutil.DirMaker
	compiler StyleCompiler
	prefixer *Prefixer
	minifier *minify.M
	logger   logging.Logger

	strategies map[Kind]strategy
}

// New creates a Transformer. compiler is only used for SCSS sources.
func New(fs afero.Fs, opts Options, compiler StyleCompiler, logger logging.Logger) (*Transformer, error) {
	prefixer, err := NewPrefixer(opts.Browsers)
	if err != nil {
		return nil, errors.NewConfigError("transform.New", errors.ErrCodeConfigInvalid, "invalid browser targets").WithInfo(err.Error())
	}

	t := &Transformer{
		fs:       fs,
		opts:     opts,
		dirs:     fsutil.NewDirMaker(fs),
		compiler: compiler,
		prefixer: prefixer,
		minifier: newMinifier(),
		logger:   logger.WithComponent("transform"),
	}
	t.strategies = map[Kind]strategy{
		Passthrough: t.copyBytes,
		JSMinify:    t.minifyJS,
		ShellStrip:  t.stripShell,
		CSSMinify:   t.minifyCSS,
		SCSSCompile: t.compileSCSS,
	}
	return t, nil
}

// Transform writes the distribution copy of source below destRoot.
// Directories are recreated, files go through the strategy for their kind.
// The returned outcome is filled in on failure too.
func (t *Transformer) Transform(ctx context.Context, source, destRoot string, minify bool) (FileOutcome, error) {
	kind := Decide(source, minify)
	outcome := FileOutcome{Source: source, Kind: kind}

	dest, ok := DestinationPath(t.opts.ProjectRoot, destRoot, source, kind)
	if !ok {
		outcome.Status = StatusSkipped
		t.logger.Debug(ctx, "Nothing to mirror, skipping", "source", source)
		return outcome, nil
	}
	outcome.Destination = dest

	info, err := t.fs.Stat(source)
	if err != nil {
		return t.failed(outcome, errors.WrapIO(err, opTransform, errors.ErrCodeStat, source))
	}

	if info.IsDir() {
		if err := t.dirs.Ensure(dest, true); err != nil {
			return t.failed(outcome, err)
		}
		outcome.Kind = Passthrough
		outcome.Status = StatusCreatedDir
		return outcome, nil
	}

	if err := t.dirs.Ensure(filepath.Dir(dest), true); err != nil {
		return t.failed(outcome, err)
	}

	data, err := t.strategies[kind](ctx, source)
	if err != nil {
		return t.failed(outcome, err)
	}

	mode := info.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	if err := afero.WriteFile(t.fs, dest, data, mode); err != nil {
		return t.failed(outcome, errors.WrapIO(err, opTransform, errors.ErrCodeWrite, dest))
	}

	outcome.Status = StatusWritten
	outcome.Bytes = int64(len(data))
	t.logger.Success(ctx, "File has been copied", "destination", dest, "kind", kind.String())
	return outcome, nil
}

func (t *Transformer) failed(outcome FileOutcome, err error) (FileOutcome, error) {
	outcome.Status = StatusFailed
	outcome.Err = err
	return outcome, err
}

func (t *Transformer) readText(source string) (string, error) {
	text, err := readText(t.fs, source)
	if err != nil {
		return "", errors.WrapIO(err, opTransform, errors.ErrCodeRead, source)
	}
	return text, nil
}

func (t *Transformer) copyBytes(_ context.Context, source string) ([]byte, error) {
	data, err := afero.ReadFile(t.fs, source)
	if err != nil {
		return nil, errors.WrapIO(err, opTransform, errors.ErrCodeRead, source)
	}
	return data, nil
}

func (t *Transformer) minifyJS(ctx context.Context, source string) ([]byte, error) {
	text, err := t.readText(source)
	if err != nil {
		return nil, err
	}

	text = substitute(text, t.opts.Placeholder, t.opts.ReleaseDB)
	result := minifyJS(text, source)

	for _, w := range result.Warnings {
		t.logger.Info(ctx, "Minifier warning", "source", source, "warning", w)
	}
	for _, e := range result.Errors {
		t.logger.Error(ctx, errors.NewTransformError(opTransform, errors.ErrCodeMinify, source, nil).WithInfo(e),
			"Minifier error, writing source unminified", "source", source)
	}

	return []byte(result.Code), nil
}

func (t *Transformer) stripShell(_ context.Context, source string) ([]byte, error) {
	text, err := t.readText(source)
	if err != nil {
		return nil, err
	}
	return []byte(stripShell(text)), nil
}

func (t *Transformer) minifyCSS(_ context.Context, source string) ([]byte, error) {
	text, err := t.readText(source)
	if err != nil {
		return nil, err
	}
	out, err := t.minifier.String(cssMediaType, text)
	if err != nil {
		return nil, errors.WrapTransform(err, opTransform, errors.ErrCodeMinify, source)
	}
	return []byte(out), nil
}

func (t *Transformer) compileSCSS(ctx context.Context, source string) ([]byte, error) {
	css, err := t.Stylesheet(ctx, source)
	if err != nil {
		return nil, err
	}
	out, err := t.minifier.String(cssMediaType, css)
	if err != nil {
		return nil, errors.WrapTransform(err, opTransform, errors.ErrCodeMinify, source)
	}
	return []byte(out), nil
}

// Stylesheet compiles an SCSS file and applies vendor prefixes. The result
// is not minified.
func (t *Transformer) Stylesheet(ctx context.Context, source string) (string, error) {
	if t.compiler == nil {
		return "", errors.NewTransformError(opTransform, errors.ErrCodeCompile, source, nil).WithInfo("no style compiler configured")
	}

	text, err := t.readText(source)
	if err != nil {
		return "", err
	}

	css, err := t.compiler.Compile(ctx, text, source)
	if err != nil {
		return "", errors.WrapTransform(err, opTransform, errors.ErrCodeCompile, source)
	}

	prefixed, err := t.prefixer.Process(css, source)
	if err != nil {
		return "", errors.WrapTransform(err, opTransform, errors.ErrCodeCompile, source)
	}
	return prefixed, nil
}

// CompileStylesheet compiles entry and writes the prefixed, unminified CSS
// to output, creating its folder when needed.
func (t *Transformer) CompileStylesheet(ctx context.Context, entry, output string) error {
	css, err := t.Stylesheet(ctx, entry)
	if err != nil {
		return err
	}
	if err := t.dirs.Ensure(filepath.Dir(output), true); err != nil {
		return err
	}
	if err := afero.WriteFile(t.fs, output, []byte(css), os.FileMode(0o644)); err != nil {
		return errors.WrapIO(err, opTransform, errors.ErrCodeWrite, output)
	}
	t.logger.Success(ctx, "Stylesheet compiled", "entry", entry, "output", output)
	return nil
}
