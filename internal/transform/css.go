package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// ParseEngines turns targets such as "chrome58" or "safari11.1" into
// esbuild engines.
func ParseEngines(browsers []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		b = strings.ToLower(strings.TrimSpace(b))
		i := strings.IndexAny(b, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("browser target %q needs a name and a version", b)
		}
		name, ok := engineNames[b[:i]]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q", b[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: b[i:]})
	}
	return engines, nil
}

// Prefixer adds the vendor prefixes the target engines need.
type Prefixer struct {
	engines []api.Engine
}

// NewPrefixer creates a Prefixer for the given browser targets.
func NewPrefixer(browsers []string) (*Prefixer, error) {
	engines, err := ParseEngines(browsers)
	if err != nil {
		return nil, err
	}
	return &Prefixer{engines: engines}, nil
}

// Process returns src with vendor prefixes applied.
func (p *Prefixer) Process(src, file string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Sourcefile: file,
		Engines:    p.engines,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("prefixing failed: %s", strings.Join(messages(result.Errors), "; "))
	}
	return string(result.Code), nil
}

// newMinifier returns a minifier that handles stylesheets.
func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return m
}
