package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// jsResult is the outcome of one JavaScript minification.
type jsResult struct {
	Code     string
	Warnings []string
	Errors   []string
}

// substitute replaces every occurrence of placeholder with value.
func substitute(src, placeholder, value string) string {
	if placeholder == "" {
		return src
	}
	return strings.ReplaceAll(src, placeholder, value)
}

// minifyJS runs esbuild over src. When esbuild reports errors the input is
// returned unchanged so the file is still written.
func minifyJS(src, file string) jsResult {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        file,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})

	out := jsResult{
		Code:     string(result.Code),
		Warnings: messages(result.Warnings),
		Errors:   messages(result.Errors),
	}
	if len(result.Errors) > 0 {
		out.Code = src
	}
	return out
}

func messages(msgs []api.Message) []string {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		out = append(out, m.Text)
	}
	return out
}
