// Package report renders the result of a distribute run as YAML for CI
// jobs and scripts.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/pipeline"
	"github.com/conneroisu/assetpipe/internal/transform"
)

// Report is the serialized form of a distribute run.
type Report struct {
	RunID      string   `yaml:"run_id"`
	State      string   `yaml:"state"`
	OK         bool     `yaml:"ok"`
	Duration   string   `yaml:"duration"`
	Cleared    []string `yaml:"cleared,omitempty"`
	ClearError string   `yaml:"clear_error,omitempty"`
	Canceled   string   `yaml:"canceled,omitempty"`
	Summary    Summary  `yaml:"summary"`
	Files      []File   `yaml:"files"`
}

// Summary counts files per status.
type Summary struct {
	Written     int   `yaml:"written"`
	CreatedDirs int   `yaml:"created_dirs"`
	Skipped     int   `yaml:"skipped"`
	Failed      int   `yaml:"failed"`
	Bytes       int64 `yaml:"bytes"`

	// FailuresByType counts failed files per error type (io, transform, ...).
	FailuresByType map[string]int `yaml:"failures_by_type,omitempty"`
}

// File is one source path and what happened to it.
type File struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination,omitempty"`
	Kind        string `yaml:"kind"`
	Status      string `yaml:"status"`
	Bytes       int64  `yaml:"bytes,omitempty"`
	Error       string `yaml:"error,omitempty"`
	ErrorType   string `yaml:"error_type,omitempty"`
	Op          string `yaml:"op,omitempty"`
	Recoverable bool   `yaml:"recoverable,omitempty"`
}

// reportedTypes are the error types counted in Summary.FailuresByType.
var reportedTypes = []errors.ErrorType{
	errors.ErrorTypeConfig,
	errors.ErrorTypeIO,
	errors.ErrorTypeTransform,
	errors.ErrorTypeNetwork,
	errors.ErrorTypeValidation,
	errors.ErrorTypeInternal,
}

// FromResult builds a Report from a finished run.
func FromResult(result *pipeline.DistributeResult) *Report {
	r := &Report{
		RunID:    result.RunID,
		State:    string(result.State),
		OK:       result.OK(),
		Duration: result.Duration.String(),
		Cleared:  result.Cleared,
		Files:    []File{},
	}
	if result.ClearErr != nil {
		r.ClearError = result.ClearErr.Error()
	}
	if result.Copy == nil {
		return r
	}

	if result.Copy.Canceled != nil {
		r.Canceled = result.Copy.Canceled.Error()
	}
	r.Summary = Summary{
		Written:     result.Copy.Count(transform.StatusWritten),
		CreatedDirs: result.Copy.Count(transform.StatusCreatedDir),
		Skipped:     result.Copy.Count(transform.StatusSkipped),
		Failed:      result.Copy.Count(transform.StatusFailed),
		Bytes:       result.Copy.BytesWritten(),
	}
	for _, t := range reportedTypes {
		if n := len(result.Copy.ErrorsOfType(t)); n > 0 {
			if r.Summary.FailuresByType == nil {
				r.Summary.FailuresByType = make(map[string]int)
			}
			r.Summary.FailuresByType[string(t)] = n
		}
	}
	for _, o := range result.Copy.Outcomes {
		f := File{
			Source:      o.Source,
			Destination: o.Destination,
			Kind:        o.Kind.String(),
			Status:      string(o.Status),
			Bytes:       o.Bytes,
		}
		if o.Err != nil {
			f.Error = o.Err.Error()
			f.ErrorType = string(errors.GetErrorType(o.Err))
			f.Op = errors.GetOp(o.Err)
			f.Recoverable = errors.IsRecoverable(o.Err)
		}
		r.Files = append(r.Files, f)
	}
	return r
}

// Marshal encodes the report as YAML with two-space indentation.
func (r *Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the report at path, creating its folder.
func (r *Report) Write(fs afero.Fs, path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapIO(err, "report.Write", errors.ErrCodeMkdir, filepath.Dir(path))
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.WrapIO(err, "report.Write", errors.ErrCodeWrite, path)
	}
	return nil
}

// Read loads a report written by Write.
func Read(fs afero.Fs, path string) (*Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.WrapIO(err, "report.Read", errors.ErrCodeRead, path)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "report.Read", errors.ErrCodeParse, "decoding report").WithPath(path)
	}
	return &r, nil
}
