package fsutil

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/errors"
)

const opExpand = "fsutil.Expand"

// Pattern is one glob pattern, optionally negated with a leading "!".
type Pattern struct {
	Glob    string
	Negated bool
}

// ParsePatterns splits raw patterns into inclusions and exclusions and
// validates their syntax.
func ParsePatterns(raw []string) (include, exclude []Pattern, err error) {
	for _, r := range raw {
		p := Pattern{Glob: r}
		if strings.HasPrefix(r, "!") {
			p = Pattern{Glob: strings.TrimPrefix(r, "!"), Negated: true}
		}
		p.Glob = cleanPattern(p.Glob)
		if p.Glob == "" || !doublestar.ValidatePattern(p.Glob) {
			return nil, nil, errors.NewConfigError(opExpand, errors.ErrCodeInvalidPattern, "malformed glob pattern").WithInfo(r)
		}
		if p.Negated {
			exclude = append(exclude, p)
		} else {
			include = append(include, p)
		}
	}
	return include, exclude, nil
}

// Excludes reports whether p matches file (both in slash form).
func (p Pattern) Excludes(file string) bool {
	ok, _ := doublestar.Match(p.Glob, filepath.ToSlash(file))
	return ok
}

// Expand expands patterns into the ordered list of existing paths they
// match. Matches of one pattern are sorted; patterns keep their order.
// Paths matched by a "!" pattern are dropped.
func Expand(fs afero.Fs, patterns []string) ([]string, error) {
	include, exclude, err := ParsePatterns(patterns)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, p := range include {
		matches, err := glob(fs, p.Glob)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !excluded(exclude, m) {
				result = append(result, m)
			}
		}
	}
	return result, nil
}

func excluded(exclude []Pattern, file string) bool {
	for _, p := range exclude {
		if p.Excludes(file) {
			return true
		}
	}
	return false
}

// glob matches one slash-separated pattern against fs.
func glob(fs afero.Fs, pattern string) ([]string, error) {
	parts := strings.Split(pattern, "/")
	i := 0
	for i < len(parts) && !hasMeta(parts[i]) {
		i++
	}

	// Literal path: match it when it exists.
	if i == len(parts) {
		name := filepath.FromSlash(pattern)
		if _, err := fs.Stat(name); err != nil {
			return nil, nil
		}
		return []string{name}, nil
	}

	base := strings.Join(parts[:i], "/")
	switch {
	case base == "" && strings.HasPrefix(pattern, "/"):
		base = "/"
	case base == "":
		base = "."
	}
	rest := strings.Join(parts[i:], "/")

	if info, err := fs.Stat(filepath.FromSlash(base)); err != nil || !info.IsDir() {
		return nil, nil
	}

	sub := afero.NewIOFS(afero.NewBasePathFs(fs, filepath.FromSlash(base)))
	matches, err := doublestar.Glob(sub, rest)
	if err != nil {
		return nil, errors.NewConfigError(opExpand, errors.ErrCodeInvalidPattern, "glob failed").WithInfo(pattern)
	}

	sort.Strings(matches)
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		result = append(result, filepath.FromSlash(path.Join(base, m)))
	}
	return result, nil
}

func hasMeta(segment string) bool {
	return strings.ContainsAny(segment, "*?[{\\")
}

func cleanPattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	return path.Clean(p)
}
