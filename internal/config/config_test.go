package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:  "defaults",
			setup: func(v *viper.Viper) { v.Set("project_root", "/project") },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/project", cfg.ProjectRoot)
				assert.Equal(t, DefaultOutput, cfg.Distribute.Output)
				assert.True(t, cfg.Distribute.Minify)
				assert.Equal(t, DefaultSources, cfg.Distribute.Sources)
				assert.Equal(t, []string{DefaultOutput + "/**/*", "!" + DefaultOutput}, cfg.Distribute.Clear)
				assert.Equal(t, DefaultPlaceholder, cfg.Transform.Placeholder)
				assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
				assert.Equal(t, "error", cfg.Log.FileLevel)
				assert.Equal(t, int64(100*1000*1000), cfg.MaxLogBytes())
			},
		},
		{
			name: "custom output derives clear patterns",
			setup: func(v *viper.Viper) {
				v.Set("project_root", "/project")
				v.Set("distribute.output", "build/out")
				v.Set("distribute.minify", false)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Distribute.Minify)
				assert.Equal(t, []string{"build/out/**/*", "!build/out"}, cfg.Distribute.Clear)
				assert.Equal(t, "/project/build/out", cfg.OutputDir())
			},
		},
		{
			name: "debounce from string",
			setup: func(v *viper.Viper) {
				v.Set("project_root", "/project")
				v.Set("watch.debounce", "250ms")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
			},
		},
		{
			name: "traversal in output",
			setup: func(v *viper.Viper) {
				v.Set("distribute.output", "../elsewhere")
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func(v *viper.Viper) {
				v.Set("log.level", "loud")
			},
			expectError: true,
		},
		{
			name: "zero debounce",
			setup: func(v *viper.Viper) {
				v.Set("watch.debounce", "0s")
			},
			expectError: true,
		},
		{
			name: "empty placeholder",
			setup: func(v *viper.Viper) {
				v.Set("transform.placeholder", "")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadGlobalViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.ProjectRoot)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".assetpipe.yml")
	content := `
project_root: ` + dir + `
distribute:
  output: public
  sources:
    - src/**/*.js
watch:
  debounce: 1s
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/**/*.js"}, cfg.Distribute.Sources)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, filepath.Join(dir, "public"), cfg.OutputDir())
}

func TestPatterns(t *testing.T) {
	cfg := &Config{ProjectRoot: "/project"}

	got := cfg.Patterns([]string{"src/assets/js/**/*", "!dist/out", "/abs/file.txt", "log/"})
	assert.Equal(t, []string{
		"/project/src/assets/js/**/*",
		"!/project/dist/out",
		"/abs/file.txt",
		"/project/log",
	}, got)
}

func TestPath(t *testing.T) {
	cfg := &Config{ProjectRoot: "/project", Log: LogConfig{Dir: "./log/"}}

	assert.Equal(t, "/project", cfg.Path(""))
	assert.Equal(t, "/project/log", cfg.LogDir())
	assert.Equal(t, "/tmp/x", cfg.Path("/tmp/x/"))
}

func TestValidatePath(t *testing.T) {
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("a/../b"))
	assert.NoError(t, validatePath("dist/project_name-dist"))
	assert.NoError(t, validatePath("/srv/www/..hidden"))
}
