package transferkit

import (
	"fmt"
	"strings"
)

// Input validation helpers shared by the codec and the orchestrators

// ValidateKey checks that a key is present and exactly KeySize bytes
func ValidateKey(key []byte) error {
	if key == nil {
		return ErrNullInput
	}
	if len(key) != KeySize {
		return ErrInvalidKeySize
	}
	return nil
}

// ValidateBuffer checks if a buffer is valid (non-nil and has expected size)
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{
			Field:   name,
			Message: "buffer cannot be nil",
			Err:     ErrNullInput,
		}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateChunkSize validates that a chunk size is within acceptable bounds
func ValidateChunkSize(size int) error {
	if size < MinChunkSize {
		return &ValidationError{
			Field:   "chunk_size",
			Value:   size,
			Message: fmt.Sprintf("chunk size %d below minimum %d", size, MinChunkSize),
		}
	}
	if size > MaxChunkSize {
		return &ValidationError{
			Field:   "chunk_size",
			Value:   size,
			Message: fmt.Sprintf("chunk size %d above maximum %d", size, MaxChunkSize),
		}
	}
	return nil
}

// ValidatePath checks that a file path is non-empty and free of parent
// directory traversal
func ValidatePath(path string) error {
	if path == "" {
		return &ValidationError{
			Field:   "path",
			Message: "file path cannot be empty",
			Err:     ErrInvalidPath,
		}
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return &ValidationError{
				Field:   "path",
				Value:   path,
				Message: "file path contains directory traversal",
				Err:     ErrInvalidPath,
			}
		}
	}
	return nil
}
