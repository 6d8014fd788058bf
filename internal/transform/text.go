package transform

import (
	"bytes"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	xtransform "golang.org/x/text/transform"
)

// readText reads a UTF-8 file and drops a leading byte order mark.
func readText(fs afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(xtransform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
