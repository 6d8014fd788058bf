package transform

// Status is the result of processing one source path.
type Status string

const (
	StatusWritten    Status = "written"
	StatusCreatedDir Status = "created_dir"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// FileOutcome records what happened to one source path.
type FileOutcome struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination,omitempty"`
	Kind        Kind   `yaml:"kind"`
	Status      Status `yaml:"status"`
	Bytes       int64  `yaml:"bytes,omitempty"`
	Err         error  `yaml:"-"`
}
