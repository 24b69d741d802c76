package transferkit

import (
	"crypto/cipher"
	"fmt"
)

// Decryptor is a streaming decryption session for one file. It enforces the
// contiguous zero-based chunk sequence: a replayed, skipped or reordered
// record is rejected before any AEAD work, in addition to the per-chunk MAC
// check that already binds each record to its index.
type Decryptor struct {
	aead   cipher.AEAD
	fek    []byte
	next   uint32
	closed bool
}

// NewDecryptor starts a streaming decryption session from the envelope
// header the host received ahead of the chunk records. Header damage
// surfaces as ErrInvalidFormat, a wrong master key as ErrDecryptionFailed.
func NewDecryptor(header, masterKey []byte) (*Decryptor, error) {
	return NewDecryptorCipher(CipherAuto, header, masterKey)
}

// NewDecryptorCipher is NewDecryptor with an explicit cipher suite matching
// the one the encrypting side used.
func NewDecryptorCipher(suite CipherSuite, header, masterKey []byte) (*Decryptor, error) {
	if header == nil {
		return nil, ErrNullInput
	}
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}

	h, _, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	fek, err := UnwrapKey(h.WrappedKey, masterKey)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(suite, fek)
	if err != nil {
		zeroKey(fek)
		return nil, err
	}

	return &Decryptor{aead: aead, fek: fek}, nil
}

// DecryptChunk verifies and decrypts one ChunkRecord, returning its
// plaintext. Records must arrive in index order starting at zero.
func (d *Decryptor) DecryptChunk(record []byte) ([]byte, error) {
	if d.closed {
		return nil, &ValidationError{Field: "decryptor", Message: "session is closed"}
	}
	if record == nil {
		return nil, ErrNullInput
	}

	index, blob, err := parseChunkRecord(record)
	if err != nil {
		return nil, err
	}
	if index != d.next {
		return nil, fmt.Errorf("%w: chunk index %d out of sequence, expected %d", ErrInvalidFormat, index, d.next)
	}

	plaintext, err := open(d.aead, blob, chunkAAD(index))
	if err != nil {
		return nil, err
	}

	d.next++
	return plaintext, nil
}

// NextIndex returns the chunk index the session expects next
func (d *Decryptor) NextIndex() uint32 {
	return d.next
}

// Close releases the session and wipes the file key. Safe to call more than
// once.
func (d *Decryptor) Close() error {
	if !d.closed {
		zeroKey(d.fek)
		d.closed = true
	}
	return nil
}
