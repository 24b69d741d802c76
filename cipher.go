package transferkit

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherSuite represents the AEAD algorithm used for envelope payloads
type CipherSuite uint8

const (
	// CipherAuto automatically selects the best cipher based on hardware capabilities
	CipherAuto CipherSuite = iota
	// CipherAES256GCM uses AES-256 with Galois/Counter Mode
	CipherAES256GCM
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite
func (c CipherSuite) String() string {
	switch c {
	case CipherAuto:
		return "auto"
	case CipherAES256GCM:
		return "aes-256-gcm"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// newAEAD creates the AEAD for a cipher suite. Both suites use 12-byte
// nonces and 16-byte tags, so the wire format is identical either way; the
// suite is host configuration and is never recorded in the envelope.
func newAEAD(suite CipherSuite, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	switch suite {
	case CipherAuto, CipherAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create AES cipher: %w", err)
		}
		return cipher.NewGCM(block)
	case CipherChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, ErrUnsupportedCipher
	}
}

// randomNonce generates a fresh nonce from the CSPRNG
func randomNonce(size int) ([]byte, error) {
	nonce := make([]byte, size)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// seal encrypts plaintext under a fresh random nonce and returns
// nonce || ciphertext || tag.
func seal(aead cipher.AEAD, plaintext, aad []byte) ([]byte, error) {
	nonce, err := randomNonce(aead.NonceSize())
	if err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// open reverses seal. Tag mismatch, truncated input and a wrong key are
// indistinguishable to the caller.
func open(aead cipher.AEAD, blob, aad []byte) ([]byte, error) {
	if len(blob) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrDecryptionFailed
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Encrypt encrypts plaintext under a 256-bit key and returns
// nonce(12) || ciphertext || tag(16). Encrypting an empty plaintext is
// valid and yields a 28-byte blob.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	return EncryptSuite(CipherAuto, plaintext, key)
}

// EncryptSuite is Encrypt with an explicit cipher suite.
func EncryptSuite(suite CipherSuite, plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(suite, key)
	if err != nil {
		return nil, err
	}
	return seal(aead, plaintext, nil)
}

// Decrypt verifies and decrypts a blob produced by Encrypt. It fails with
// ErrDecryptionFailed on any tampering, truncation or key mismatch.
func Decrypt(blob, key []byte) ([]byte, error) {
	return DecryptSuite(CipherAuto, blob, key)
}

// DecryptSuite is Decrypt with an explicit cipher suite.
func DecryptSuite(suite CipherSuite, blob, key []byte) ([]byte, error) {
	aead, err := newAEAD(suite, key)
	if err != nil {
		return nil, err
	}
	return open(aead, blob, nil)
}
