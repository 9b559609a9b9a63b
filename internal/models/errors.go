package models

import "errors"

// Sentinel error kinds. Component errors wrap one of these with fmt.Errorf("...: %w", ...)
// so callers can classify failures with errors.Is without parsing messages.
var (
	// ErrNotFound indicates a missing file or directory.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat indicates a file extension with no registered reader.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConfiguration indicates invalid chunking or construction parameters.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrEmptyInput indicates an operation was given no documents or chunks.
	ErrEmptyInput = errors.New("empty input")

	// ErrIndexNotInitialized indicates a search against an index with no entries.
	ErrIndexNotInitialized = errors.New("index not initialized")

	// ErrProvider indicates an embedding or generation backend failure.
	ErrProvider = errors.New("provider error")
)
