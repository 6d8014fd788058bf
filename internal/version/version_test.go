package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2024, parseTime("2024-03-01T10:00:00Z").Year())
	assert.Equal(t, time.March, parseTime("2024-03-01 10:00:00").Month())
}

func TestInjectedValues(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime }()

	Version = "v1.2.3"
	GitCommit = "0123456789abcdef"
	BuildTime = "2025-01-02T03:04:05Z"

	info := Get()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.True(t, info.IsRelease())
	assert.Equal(t, "v1.2.3 (0123456)", info.Short())

	detailed := info.Detailed()
	assert.Contains(t, detailed, "Version: v1.2.3")
	assert.Contains(t, detailed, "Commit: 0123456789abcdef")
	assert.Contains(t, detailed, "Built: 2025-01-02T03:04:05Z")
	assert.True(t, strings.Contains(detailed, "Platform: "))
}

func TestDevBuild(t *testing.T) {
	info := &BuildInfo{Version: "dev", GitCommit: "unknown"}
	assert.False(t, info.IsRelease())
	assert.Equal(t, "dev", info.Short())

	info = &BuildInfo{Version: "dev-abcdef1", GitCommit: "abcdef1234"}
	assert.False(t, info.IsRelease())
	assert.Equal(t, "dev-abcdef1", info.Short())
}
