package transferkit

import (
	"crypto/cipher"
	"fmt"
)

// Encryptor is a streaming encryption session for one file. It owns a fresh
// file key for its lifetime; Close wipes the key, so sessions must not be
// reused across files.
type Encryptor struct {
	aead   cipher.AEAD
	fek    []byte
	header []byte
	closed bool
}

// NewEncryptor starts a streaming encryption session: it generates a fresh
// file key, wraps it under the master key and prepares the envelope header.
// The master key is not retained.
func NewEncryptor(masterKey []byte) (*Encryptor, error) {
	return NewEncryptorCipher(CipherAuto, masterKey)
}

// NewEncryptorCipher is NewEncryptor with an explicit cipher suite for the
// chunk payloads. The decrypting side must be configured with the same suite.
func NewEncryptorCipher(suite CipherSuite, masterKey []byte) (*Encryptor, error) {
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}

	fek, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	wrapped, err := WrapKey(fek, masterKey)
	if err != nil {
		zeroKey(fek)
		return nil, err
	}

	aead, err := newAEAD(suite, fek)
	if err != nil {
		zeroKey(fek)
		return nil, err
	}

	return &Encryptor{
		aead:   aead,
		fek:    fek,
		header: marshalHeader(NewHeader(wrapped)),
	}, nil
}

// Header returns the envelope header bytes (fixed prefix plus wrapped file
// key) the host must emit before any chunk records.
func (e *Encryptor) Header() []byte {
	header := make([]byte, len(e.header))
	copy(header, e.header)
	return header
}

// HeaderSize returns the encoded size of the envelope header
func (e *Encryptor) HeaderSize() int {
	return len(e.header)
}

// WrappedKey returns the wrapped file key portion of the header
func (e *Encryptor) WrappedKey() []byte {
	wrapped := make([]byte, len(e.header)-HeaderFixedSize)
	copy(wrapped, e.header[HeaderFixedSize:])
	return wrapped
}

// EncryptChunk seals one plaintext chunk into a ChunkRecord. The index is
// caller-supplied and not auto-incremented, so producers may resume at any
// position, but the caller must keep indices strictly increasing on the
// wire.
func (e *Encryptor) EncryptChunk(data []byte, index uint32) ([]byte, error) {
	if e.closed {
		return nil, &ValidationError{Field: "encryptor", Message: "session is closed"}
	}
	if data == nil {
		return nil, ErrNullInput
	}
	if len(data) > MaxChunkSize {
		return nil, &ValidationError{
			Field:   "chunk",
			Value:   len(data),
			Message: fmt.Sprintf("chunk of %d bytes exceeds maximum %d", len(data), MaxChunkSize),
		}
	}

	blob, err := seal(e.aead, data, chunkAAD(index))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return encodeChunkRecord(index, blob), nil
}

// Close releases the session and wipes the file key. Safe to call more than
// once.
func (e *Encryptor) Close() error {
	if !e.closed {
		zeroKey(e.fek)
		e.closed = true
	}
	return nil
}
