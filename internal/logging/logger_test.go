package logging

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	testCases := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, level)

	level, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Success(ctx, "success message")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "error=boom")
}

func TestStructuredLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Output: &buf})

	logger.WithComponent("copy").With("run_id", "abc").Success(context.Background(), "file copied", "path", "/dist/a.js")

	out := buf.String()
	assert.Contains(t, out, "component=copy")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "status=success")
	assert.Contains(t, out, "path=/dist/a.js")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "json", Output: &buf})
	logger.Info(context.Background(), "hello", "n", 1)

	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestMultiLogger(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiLogger(
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &a}),
		NewLogger(&LoggerConfig{Level: LevelError, Output: &b}),
	)
	ctx := context.Background()

	multi.Info(ctx, "only first")
	multi.WithComponent("x").Error(ctx, errors.New("bad"), "both")

	assert.Contains(t, a.String(), "only first")
	assert.Contains(t, a.String(), "both")
	assert.NotContains(t, b.String(), "only first")
	assert.Contains(t, b.String(), "both")
}

func TestCappedFileRestartsWhenOverCap(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/logs/" + LogFileName
	require.NoError(t, fs.MkdirAll("/logs", 0o755))

	file, err := OpenCappedFile(fs, path, 10)
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("0123456789AB\n"))
	require.NoError(t, err)
	_, err = file.Write([]byte("next\n"))
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "##### Log #####\nnext\n", string(data))
}

func TestCappedFileAppendsUnderCap(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/logs/" + ErrorLogFileName
	require.NoError(t, afero.WriteFile(fs, path, []byte("old\n"), 0o644))

	file, err := OpenCappedFile(fs, path, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(4), file.Size())

	_, err = file.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))

	_, err = file.Write([]byte("closed"))
	assert.Error(t, err)
}

func TestSetupWritesLogFiles(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closer, err := Setup(Options{
		Level:     LevelInfo,
		FileLevel: LevelInfo,
		Dir:       dir,
		Console:   &console,
	})
	require.NoError(t, err)

	ctx := context.Background()
	logger.Info(ctx, "plain record")
	logger.Error(ctx, errors.New("kaputt"), "failed record")
	require.NoError(t, closer.Close())

	fs := afero.NewOsFs()
	logData, err := afero.ReadFile(fs, filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	errData, err := afero.ReadFile(fs, filepath.Join(dir, ErrorLogFileName))
	require.NoError(t, err)

	assert.Contains(t, console.String(), "plain record")
	assert.Contains(t, string(logData), "plain record")
	assert.Contains(t, string(logData), "failed record")
	assert.NotContains(t, string(errData), "plain record")
	assert.Contains(t, string(errData), "kaputt")
}

func TestSetupWithoutDir(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Setup(Options{Level: LevelDebug, Console: &console})
	require.NoError(t, err)
	logger.Debug(context.Background(), "debugging")
	assert.NoError(t, closer.Close())
	assert.Contains(t, console.String(), "debugging")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})

	op := StartOperation(logger, "distribute")
	d := op.End(context.Background())
	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Contains(t, buf.String(), "operation=distribute")

	op = StartOperation(logger, "watch")
	op.EndWithError(context.Background(), errors.New("nope"))
	assert.Contains(t, buf.String(), "Operation failed")
}
