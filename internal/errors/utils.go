package errors

import (
	"errors"
)

// Wrap wraps an error with call site context, creating a PipelineError if the
// input is not already one.
func Wrap(err error, errType ErrorType, op, code, message string) *PipelineError {
	if err == nil {
		return nil
	}

	// Keep the path and recoverability of an inner PipelineError.
	var pe *PipelineError
	if errors.As(err, &pe) {
		return &PipelineError{
			Type:        errType,
			Code:        code,
			Op:          op,
			Message:     message,
			Path:        pe.Path,
			Cause:       pe,
			Context:     pe.Context,
			Recoverable: pe.Recoverable,
		}
	}

	return &PipelineError{
		Type:        errType,
		Code:        code,
		Op:          op,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeTransform,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, op, code, path string) *PipelineError {
	if err == nil {
		return nil
	}
	return NewIOError(op, code, path, err)
}

// WrapTransform wraps an error as a transform error
func WrapTransform(err error, op, code, path string) *PipelineError {
	if err == nil {
		return nil
	}
	return NewTransformError(op, code, path, err)
}

// GetErrorType returns the type of a PipelineError, or internal for foreign errors.
func GetErrorType(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeInternal
}

// GetOp returns the call site tag of the outermost PipelineError.
func GetOp(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Op
	}
	return ""
}
