package transferkit

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Sentinel errors returned by the transfer core. Fallible operations wrap
// one of these so hosts can branch with errors.Is.
var (
	ErrNullInput         = errors.New("required input is nil")
	ErrInvalidKeySize    = errors.New("encryption key must be 32 bytes")
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed - wrong key or corrupted data")
	ErrInvalidFormat     = errors.New("invalid envelope format")
	ErrUnsupportedCipher = errors.New("unsupported cipher suite")
	ErrFileNotFound      = errors.New("file not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrIOFailed          = errors.New("i/o operation failed")
	ErrCancelled         = errors.New("transfer cancelled")
	ErrInvalidPath       = errors.New("invalid file path")
	ErrDiskFull          = errors.New("no space left on device")
)

// ValidationError represents a configuration or parameter validation error
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransferError records where a transfer step failed. Kind is one of the
// sentinel errors above and Err the underlying cause; both match errors.Is.
type TransferError struct {
	Op   string // "open", "read", "write", "send", etc.
	Path string // File path or remote name, if applicable
	Kind error  // Portable error kind
	Err  error  // Underlying error
}

func (e *TransferError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("transfer error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("transfer error: %s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// classifyPathError maps OS-level failures onto the portable error kinds.
func classifyPathError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	default:
		return ErrIOFailed
	}
}

// newIOError creates a TransferError for a failed filesystem operation.
func newIOError(op, path string, err error) error {
	return &TransferError{Op: op, Path: path, Kind: classifyPathError(err), Err: err}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransferError checks if an error is a transfer error
func IsTransferError(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}
