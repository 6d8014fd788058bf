// Package params reads the build parameters passed on the command line as
// key=value tokens.
package params

import (
	"os"
	"strings"

	"github.com/conneroisu/assetpipe/internal/errors"
)

const (
	// ReleaseDBKey is the argument key carrying the database discriminator.
	ReleaseDBKey = "releaseDB"
	// ReleaseDBEnv is consulted when the argument is absent.
	ReleaseDBEnv = "RELEASE_DB"
)

// BuildParams is the immutable snapshot of build parameters for one run.
type BuildParams struct {
	// ReleaseDB names the backend database a bundle targets. It replaces the
	// placeholder token in JavaScript sources.
	ReleaseDB string
	// Extra holds every other key=value token, last one wins.
	Extra map[string]string
}

// Get returns an extra parameter by key.
func (p BuildParams) Get(key string) (string, bool) {
	v, ok := p.Extra[key]
	return v, ok
}

// Parse extracts build parameters from args. Tokens without "=" are ignored.
// The releaseDB value falls back to the RELEASE_DB environment variable and
// must end up non-empty.
func Parse(args []string) (BuildParams, error) {
	return parse(args, os.Getenv)
}

func parse(args []string, getenv func(string) string) (BuildParams, error) {
	params := BuildParams{Extra: make(map[string]string)}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		key = strings.TrimLeft(strings.TrimSpace(key), "-")
		if key == ReleaseDBKey {
			params.ReleaseDB = strings.TrimSpace(value)
			continue
		}
		params.Extra[key] = value
	}

	if params.ReleaseDB == "" {
		params.ReleaseDB = strings.TrimSpace(getenv(ReleaseDBEnv))
	}

	if params.ReleaseDB == "" {
		return BuildParams{}, errors.NewConfigError(
			"params.Parse",
			errors.ErrCodeMissingParam,
			"database release parameter was not defined",
		).WithInfo("pass " + ReleaseDBKey + "=<name> or set " + ReleaseDBEnv)
	}

	return params, nil
}
