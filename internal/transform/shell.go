package transform

import "strings"

// stripShell normalizes line endings and removes comment lines and blank
// lines. A "#!" interpreter line at the top survives.
func stripShell(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	lines := strings.Split(src, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case i == 0 && strings.HasPrefix(line, "#!"):
			kept = append(kept, line)
		case strings.HasPrefix(trimmed, "#"):
			continue
		default:
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}
