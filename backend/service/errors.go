package service

import (
	"errors"
	"fmt"
)

var (
	// ErrBriefRequired is returned when a generation request has no brief text.
	ErrBriefRequired = errors.New("brief description is required")

	// ErrExportInputRequired is returned when an export lacks the task or the generated content.
	ErrExportInputRequired = errors.New("task request and AI generation data are required")

	// ErrUnsupportedFormat is returned for export formats with no renderer.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrArtifactNotFound is returned when a download names no stored file.
	ErrArtifactNotFound = errors.New("file not found")

	// ErrProviderStatus indicates a non-2xx answer from the text-generation provider.
	ErrProviderStatus = errors.New("provider returned an error status")

	// ErrEmptyCompletion indicates the provider answered without any choice text.
	ErrEmptyCompletion = errors.New("provider returned an empty completion")

	// ErrInvalidOutput indicates the provider text held no usable JSON object.
	ErrInvalidOutput = errors.New("invalid provider output")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " is required"
}

// Required builds the ValidationError for an absent field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// SynthesisError wraps a failure inside a document renderer.
type SynthesisError struct {
	Format string
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("failed to generate %s: %v", e.Format, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// StorageError wraps an I/O failure while persisting or reading an artifact.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
