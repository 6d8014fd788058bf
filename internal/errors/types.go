package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeTransform  ErrorType = "transform"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// PipelineError is a structured error carrying the call site that produced it.
type PipelineError struct {
	Type        ErrorType
	Code        string
	Op          string
	Message     string
	Info        string
	Path        string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Op != "" {
		parts = append(parts, e.Op+":")
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	if e.Info != "" {
		parts = append(parts, "("+e.Info+")")
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithInfo attaches the optional detail string.
func (e *PipelineError) WithInfo(info string) *PipelineError {
	e.Info = info

	return e
}

// WithPath attaches the file system path the error refers to.
func (e *PipelineError) WithPath(path string) *PipelineError {
	e.Path = path

	return e
}

// Error creation functions

// NewConfigError creates a configuration error. Configuration errors are fatal
// and raised before any file system work starts.
func NewConfigError(op, code, message string) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Op:          op,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error for a single path.
func NewIOError(op, code, path string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeIO,
		Code:        code,
		Op:          op,
		Message:     ioMessage(code),
		Path:        path,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewTransformError creates a minifier or compiler error for a single path.
func NewTransformError(op, code, path string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeTransform,
		Code:        code,
		Op:          op,
		Message:     "transform failed",
		Path:        path,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(op, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Op:          op,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error for malformed call arguments.
func NewValidationError(op, code, message string) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Op:          op,
		Message:     message,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(op, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

func ioMessage(code string) string {
	switch code {
	case ErrCodeMkdir:
		return "could not create directory"
	case ErrCodeRead:
		return "could not read"
	case ErrCodeWrite:
		return "could not write"
	case ErrCodeRemove:
		return "could not remove"
	case ErrCodeStat:
		return "could not stat"
	case ErrCodeNotDirectory:
		return "exists and is not a directory"
	default:
		return "i/o failure"
	}
}

// Error classification

func isType(err error, t ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == t
	}

	return false
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool { return isType(err, ErrorTypeConfig) }

// IsIO checks if an error is an I/O error.
func IsIO(err error) bool { return isType(err, ErrorTypeIO) }

// IsTransform checks if an error is a transform error.
func IsTransform(err error) bool { return isType(err, ErrorTypeTransform) }

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool { return isType(err, ErrorTypeNetwork) }

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// Common error codes.
const (
	ErrCodeMissingParam     = "ERR_MISSING_PARAM"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInvalidPattern   = "ERR_INVALID_PATTERN"
	ErrCodeInvalidArgument  = "ERR_INVALID_ARGUMENT"
	ErrCodeMkdir            = "ERR_MKDIR"
	ErrCodeRead             = "ERR_READ"
	ErrCodeWrite            = "ERR_WRITE"
	ErrCodeRemove           = "ERR_REMOVE"
	ErrCodeStat             = "ERR_STAT"
	ErrCodeNotDirectory     = "ERR_NOT_DIRECTORY"
	ErrCodeCompile          = "ERR_COMPILE"
	ErrCodeMinify           = "ERR_MINIFY"
	ErrCodeHTTPStatus       = "ERR_HTTP_STATUS"
	ErrCodeRequest          = "ERR_REQUEST"
	ErrCodeUnsupportedProto = "ERR_UNSUPPORTED_PROTOCOL"
	ErrCodeQuery            = "ERR_QUERY"
	ErrCodeParse            = "ERR_PARSE"
	ErrCodeInternal         = "ERR_INTERNAL"
)
