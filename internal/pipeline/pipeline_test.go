package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/metrics"
	"github.com/conneroisu/assetpipe/internal/transform"
)

const (
	root = "/project"
	dist = "/project/dist/project_name-dist"
)

func newTransformer(t *testing.T, fs afero.Fs) *transform.Transformer {
	t.Helper()
	tr, err := transform.New(fs, transform.Options{
		ProjectRoot: root,
		ReleaseDB:   "prod",
		Placeholder: "svaurtdevaude",
		Browsers:    []string{"chrome58"},
	}, nil, logging.NewNopLogger())
	require.NoError(t, err)
	return tr
}

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
}

// failingTransformer fails for the listed sources and succeeds otherwise.
type failingTransformer struct {
	fail  map[string]bool
	calls []string
}

func (f *failingTransformer) Transform(_ context.Context, source, destRoot string, minify bool) (transform.FileOutcome, error) {
	f.calls = append(f.calls, source)
	outcome := transform.FileOutcome{Source: source, Kind: transform.Decide(source, minify)}
	if f.fail[source] {
		err := errors.NewIOError("test", errors.ErrCodeRead, source, fmt.Errorf("boom"))
		outcome.Status = transform.StatusFailed
		outcome.Err = err
		return outcome, err
	}
	outcome.Status = transform.StatusWritten
	outcome.Destination = filepath.Join(destRoot, filepath.Base(source))
	outcome.Bytes = 10
	return outcome, nil
}

func TestCopyWithoutMinifyIsByteIdentical(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/project/src/assets/js/a.js":        "var db = 'svaurtdevaude';\n",
		"/project/src/assets/css/site.css":   "body {  color: red; }\n",
		"/project/src/assets/scss/main.scss": "$c: red;\n.foo { color: $c; }\n",
		"/project/src/assets/img/logo.png":   "\x89PNG\r\n",
		"/project/src/handlebars/page.hbs":   "{{title}}",
		"/project/readme.md":                 "# readme\n",
	}
	writeFiles(t, fs, files)

	sources, err := fsutil.Expand(fs, []string{"/project/src/**/*", "/project/readme.md"})
	require.NoError(t, err)

	report := New(newTransformer(t, fs), nil, logging.NewNopLogger()).Copy(context.Background(), sources, dist, false)
	require.NoError(t, report.Err())
	assert.Zero(t, report.Count(transform.StatusFailed))

	for source, content := range files {
		dest, ok := transform.DestinationPath(root, dist, source, transform.Passthrough)
		require.True(t, ok)
		data, err := afero.ReadFile(fs, dest)
		require.NoError(t, err, dest)
		assert.Equal(t, content, string(data))
	}
	assert.Positive(t, report.Count(transform.StatusCreatedDir))
}

func TestCopyEndToEndJavaScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/project/src/assets/js/a.js": "var db='svaurtdevaude';"})

	report := New(newTransformer(t, fs), nil, logging.NewNopLogger()).
		Copy(context.Background(), []string{"/project/src/assets/js/a.js"}, dist, true)
	require.NoError(t, report.Err())
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, dist+"/assets/js/a.js", report.Outcomes[0].Destination)

	data, err := afero.ReadFile(fs, dist+"/assets/js/a.js")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "svaurtdevaude")
	assert.Regexp(t, `['"]prod['"]`, string(data))
}

func TestCopyIsolatesFailures(t *testing.T) {
	tr := &failingTransformer{fail: map[string]bool{"/p/b.js": true}}
	var seen []string

	p := New(tr, nil, logging.NewNopLogger())
	p.AddCallback(func(o transform.FileOutcome) { seen = append(seen, o.Source) })

	report := p.Copy(context.Background(), []string{"/p/a.js", "/p/b.js", "/p/c.css"}, "/out", true)

	assert.Equal(t, []string{"/p/a.js", "/p/b.js", "/p/c.css"}, tr.calls)
	assert.Equal(t, tr.calls, seen)
	assert.Equal(t, 2, report.Count(transform.StatusWritten))
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "/p/b.js", report.Failed()[0].Source)
	assert.Equal(t, int64(20), report.BytesWritten())

	require.Error(t, report.Err())
	assert.True(t, errors.IsIO(report.Err()))
}

func TestCopyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &failingTransformer{}
	report := New(tr, nil, logging.NewNopLogger()).Copy(ctx, []string{"/p/a.js", "/p/b.js"}, "/out", true)

	assert.Empty(t, tr.calls)
	assert.Equal(t, 2, report.Count(transform.StatusSkipped))
	assert.NoError(t, report.Err())
	assert.ErrorIs(t, report.Canceled, context.Canceled)
}

func TestCopyRecordsMetrics(t *testing.T) {
	recorder := metrics.NewPrometheusRecorder(nil)
	tr := &failingTransformer{fail: map[string]bool{"/p/b.js": true}}

	New(tr, recorder, logging.NewNopLogger()).Copy(context.Background(), []string{"/p/a.js", "/p/b.js"}, "/out", true)

	mfs, err := recorder.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "assetpipe_files_processed_total")
	assert.Contains(t, names, "assetpipe_bytes_written_total")
}

// stubCleaner returns a canned result.
type stubCleaner struct {
	result *fsutil.CleanResult
	err    error
	got    []string
}

func (s *stubCleaner) Remove(_ context.Context, patterns []string) (*fsutil.CleanResult, error) {
	s.got = patterns
	return s.result, s.err
}

func TestDistributorRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		dist + "/stale.js":                   "old",
		"/project/src/assets/js/app.js":      "function app(){ return 'svaurtdevaude'; }",
		"/project/src/assets/css/site.css":   "a { color : blue }",
		"/project/src/assets/scss/main.scss": ".foo{color:red}",
		"/project/package.json":              `{"name":"x"}`,
	})

	logger := logging.NewNopLogger()
	d := NewDistributor(fs, fsutil.NewCleaner(fs, logger), New(newTransformer(t, fs), nil, logger), nil, logger)

	result := d.Run(context.Background(), DistributeOptions{
		Clear:   []string{dist + "/**/*", "!" + dist},
		Sources: []string{"/project/src/assets/css/*.css", "/project/src/assets/js/**/*", "/project/package.json"},
		Output:  dist,
		Minify:  true,
	})

	assert.True(t, result.OK())
	assert.Equal(t, StateDone, result.State)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{dist + "/stale.js"}, result.Cleared)
	assert.NoError(t, result.ClearErr)
	assert.Equal(t, 3, result.Copy.Count(transform.StatusWritten))

	exists, _ := afero.Exists(fs, dist+"/stale.js")
	assert.False(t, exists)
	data, err := afero.ReadFile(fs, dist+"/assets/css/site.css")
	require.NoError(t, err)
	assert.Equal(t, "a{color:blue}", string(data))
}

func TestDistributorContinuesAfterClearFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/project/readme.md": "hi"})

	cleaner := &stubCleaner{
		result: &fsutil.CleanResult{Removed: []string{"/project/dist/a"}},
		err:    errors.NewIOError("test", errors.ErrCodeRemove, "/project/dist/b", fmt.Errorf("busy")),
	}
	logger := logging.NewNopLogger()
	d := NewDistributor(fs, cleaner, New(newTransformer(t, fs), nil, logger), nil, logger)

	result := d.Run(context.Background(), DistributeOptions{
		Clear:   []string{"/project/dist/**/*"},
		Sources: []string{"/project/readme.md"},
		Output:  dist,
	})

	assert.Equal(t, []string{"/project/dist/**/*"}, cleaner.got)
	assert.Error(t, result.ClearErr)
	assert.Equal(t, []string{"/project/dist/a"}, result.Cleared)
	assert.True(t, result.OK())
	assert.Equal(t, StateDone, result.State)
}

func TestDistributorReportsFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := logging.NewNopLogger()
	tr := &failingTransformer{fail: map[string]bool{"/project/b.txt": true}}
	writeFiles(t, fs, map[string]string{"/project/a.txt": "a", "/project/b.txt": "b"})

	d := NewDistributor(fs, &stubCleaner{result: &fsutil.CleanResult{}}, New(tr, nil, logger), nil, logger)
	result := d.Run(context.Background(), DistributeOptions{Sources: []string{"/project/*.txt"}, Output: dist})

	assert.False(t, result.OK())
	assert.Equal(t, StateDone, result.State)
	assert.Len(t, result.Copy.Failed(), 1)
}

func TestDistributorBadSourcePattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := logging.NewNopLogger()
	d := NewDistributor(fs, &stubCleaner{}, New(&failingTransformer{}, nil, logger), nil, logger)

	result := d.Run(context.Background(), DistributeOptions{Sources: []string{"/project/[x-"}, Output: dist})

	assert.False(t, result.OK())
	require.Error(t, result.Copy.Err())
	assert.True(t, errors.IsConfig(result.Copy.Err()))
}

func TestDistributorCanceledIsNotOK(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := logging.NewNopLogger()
	tr := &failingTransformer{}
	writeFiles(t, fs, map[string]string{"/project/a.txt": "a", "/project/b.txt": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDistributor(fs, &stubCleaner{result: &fsutil.CleanResult{}}, New(tr, nil, logger), nil, logger)
	result := d.Run(ctx, DistributeOptions{Sources: []string{"/project/*.txt"}, Output: dist})

	assert.False(t, result.OK())
	assert.Equal(t, StateDone, result.State)
	assert.Empty(t, tr.calls)
	assert.Empty(t, result.Copy.Failed())
	assert.Equal(t, 2, result.Copy.Count(transform.StatusSkipped))
	assert.ErrorIs(t, result.Copy.Canceled, context.Canceled)
}

func TestDistributeResultOK(t *testing.T) {
	assert.False(t, (&DistributeResult{}).OK())
	assert.True(t, (&DistributeResult{Copy: newCopyReport(0)}).OK())

	canceled := newCopyReport(0)
	canceled.Canceled = context.DeadlineExceeded
	assert.False(t, (&DistributeResult{Copy: canceled}).OK())
}
