package transferkit

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultPBKDF2Iterations is a reasonable baseline for interactive use.
// The iteration count is caller-controlled; no minimum is enforced.
const DefaultPBKDF2Iterations = 100000

// Argon2Params contains parameters for Argon2id key derivation
type Argon2Params struct {
	Time    uint32 // Number of passes (default 3)
	Memory  uint32 // Memory in KiB (default 64*1024 for 64 MB)
	Threads uint8  // Degree of parallelism (default 4)
}

// DeriveKey derives a 256-bit master key from a password using
// PBKDF2-HMAC-SHA256. Identical inputs always produce identical output.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, &ValidationError{Field: "password", Message: "password cannot be empty"}
	}
	if len(salt) == 0 {
		return nil, &ValidationError{Field: "salt", Message: "salt cannot be empty"}
	}
	if iterations < 1 {
		return nil, &ValidationError{
			Field:   "iterations",
			Value:   iterations,
			Message: "iteration count must be at least 1",
		}
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}

// DeriveKeyArgon2 derives a 256-bit master key using Argon2id, the
// recommended KDF for new deployments.
func DeriveKeyArgon2(password, salt []byte, params Argon2Params) ([]byte, error) {
	if len(password) == 0 {
		return nil, &ValidationError{Field: "password", Message: "password cannot be empty"}
	}
	if len(salt) == 0 {
		return nil, &ValidationError{Field: "salt", Message: "salt cannot be empty"}
	}

	if params.Time == 0 {
		params.Time = 3
	}
	if params.Memory == 0 {
		params.Memory = 64 * 1024
	}
	if params.Threads == 0 {
		params.Threads = 4
	}

	return argon2.IDKey(password, salt, params.Time, params.Memory, params.Threads, KeySize), nil
}

// GenerateKey generates a fresh 256-bit file encryption key from the CSPRNG
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// GenerateSalt generates a new random salt. A size of 0 selects
// DefaultSaltSize.
func GenerateSalt(size int) ([]byte, error) {
	if size == 0 {
		size = DefaultSaltSize
	}
	if size < 0 {
		return nil, &ValidationError{Field: "salt_size", Value: size, Message: "salt size cannot be negative"}
	}

	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// WrapKey encrypts a file key under the master key so the wrapped form is
// safe to store alongside ciphertext. The result is WrappedKeySize bytes.
func WrapKey(fileKey, masterKey []byte) ([]byte, error) {
	if err := ValidateKey(fileKey); err != nil {
		return nil, err
	}
	return Encrypt(fileKey, masterKey)
}

// UnwrapKey recovers a file key wrapped by WrapKey. A wrong master key or a
// corrupted blob both surface as ErrDecryptionFailed.
func UnwrapKey(wrapped, masterKey []byte) ([]byte, error) {
	if wrapped == nil {
		return nil, ErrNullInput
	}

	fileKey, err := Decrypt(wrapped, masterKey)
	if err != nil {
		return nil, err
	}
	if len(fileKey) != KeySize {
		return nil, ErrDecryptionFailed
	}
	return fileKey, nil
}

// zeroKey wipes key material before release
func zeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
