package transform

import (
	"path/filepath"
	"strings"
)

// srcDir is the source folder name dropped from destination paths.
const srcDir = "src"

// DestinationPath mirrors source under destRoot. The project root prefix is
// removed, then the first "src" segment directly below it, so
// <root>/src/assets/js/a.js lands at <destRoot>/assets/js/a.js. A source
// outside the project root keeps its full path. A file compiled from SCSS
// (kind SCSSCompile) moves next to the other stylesheets: every "scss"
// directory segment becomes "css" and the extension becomes .css. Other
// kinds keep their name. ok is false when nothing remains of the relative
// path.
func DestinationPath(projectRoot, destRoot, source string, kind Kind) (dest string, ok bool) {
	source = filepath.Clean(source)
	sep := string(filepath.Separator)

	var rel string
	if r, err := filepath.Rel(projectRoot, source); err == nil && r != ".." && !strings.HasPrefix(r, ".."+sep) {
		rel = r
		if rel == srcDir {
			rel = ""
		} else {
			rel = strings.TrimPrefix(rel, srcDir+sep)
		}
	} else {
		rel = strings.TrimPrefix(source, filepath.VolumeName(source))
		rel = strings.TrimLeft(rel, sep)
	}
	if rel == "" || rel == "." {
		return "", false
	}

	if kind == SCSSCompile {
		rel = stylesheetPath(rel)
	}

	return filepath.Join(destRoot, rel), true
}

func stylesheetPath(rel string) string {
	sep := string(filepath.Separator)
	segments := strings.Split(rel, sep)
	for i, seg := range segments[:len(segments)-1] {
		if seg == "scss" {
			segments[i] = "css"
		}
	}
	rel = strings.Join(segments, sep)
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".css"
}
