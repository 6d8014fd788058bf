// Package transform turns one source file of the web project into its
// distribution counterpart. The strategy is chosen from the file extension:
// JavaScript is minified after the database placeholder is substituted,
// shell scripts lose their comments and blank lines, stylesheets are
// minified, SCSS is compiled with Dart Sass and prefixed for the configured
// browsers. Everything else is copied byte for byte.
package transform

import (
	"path/filepath"
	"strings"
)

// Kind identifies the transformation applied to a file.
type Kind int

const (
	Passthrough Kind = iota
	JSMinify
	ShellStrip
	CSSMinify
	SCSSCompile
)

// String returns the kind name used in logs, reports and metric labels.
func (k Kind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case JSMinify:
		return "js"
	case ShellStrip:
		return "shell"
	case CSSMinify:
		return "css"
	case SCSSCompile:
		return "scss"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var kindsByExt = map[string]Kind{
	".js":   JSMinify,
	".sh":   ShellStrip,
	".css":  CSSMinify,
	".scss": SCSSCompile,
}

// Decide picks the kind for path. With minify unset every file is copied
// unchanged.
func Decide(path string, minify bool) Kind {
	if !minify {
		return Passthrough
	}
	if kind, ok := kindsByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return Passthrough
}
