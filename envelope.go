package transferkit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// MagicBytes identifies envelope-encrypted files (ASCII: "CNXE")
	MagicBytes = uint32(0x434E5845)

	// CurrentVersion is the current envelope format version
	CurrentVersion = uint8(1)

	// HeaderFixedSize is the fixed prefix of the envelope header:
	// magic(4) + version(1) + reserved(3) + wrapped-key length(4)
	HeaderFixedSize = 12

	// maxWrappedKeyLen bounds the wrapped-key length field so a corrupt
	// header cannot trigger a huge allocation
	maxWrappedKeyLen = 1024
)

// Header is the envelope header preceding ciphertext in both the
// embedded-key and the streaming encodings.
//
// Wire layout (integers little-endian):
//
//	magic(4) | version(1) | reserved(3) | keyLen(4) | wrappedKey(keyLen)
type Header struct {
	Version    uint8  // Envelope format version
	WrappedKey []byte // File key wrapped under the master key
}

// NewHeader creates a header for the given wrapped file key
func NewHeader(wrappedKey []byte) *Header {
	return &Header{
		Version:    CurrentVersion,
		WrappedKey: wrappedKey,
	}
}

// Size returns the total encoded size of the header in bytes
func (h *Header) Size() int {
	return HeaderFixedSize + len(h.WrappedKey)
}

// WriteTo writes the header to the given writer
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, MagicBytes); err != nil {
		return 0, fmt.Errorf("failed to write magic bytes: %w", err)
	}
	buf.WriteByte(h.Version)
	buf.Write([]byte{0, 0, 0}) // reserved
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(h.WrappedKey))); err != nil {
		return 0, fmt.Errorf("failed to write wrapped key length: %w", err)
	}
	buf.Write(h.WrappedKey)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads and validates the header from the given reader. Bad magic,
// an unsupported version and truncation all surface as ErrInvalidFormat.
func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	var fixed [HeaderFixedSize]byte
	n, err := io.ReadFull(r, fixed[:])
	if err != nil {
		return int64(n), fmt.Errorf("%w: truncated header", ErrInvalidFormat)
	}

	if binary.LittleEndian.Uint32(fixed[0:4]) != MagicBytes {
		return int64(n), fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}

	h.Version = fixed[4]
	if h.Version == 0 || h.Version > CurrentVersion {
		return int64(n), fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.Version)
	}

	keyLen := binary.LittleEndian.Uint32(fixed[8:12])
	if keyLen == 0 || keyLen > maxWrappedKeyLen {
		return int64(n), fmt.Errorf("%w: wrapped key length %d out of range", ErrInvalidFormat, keyLen)
	}

	h.WrappedKey = make([]byte, keyLen)
	m, err := io.ReadFull(r, h.WrappedKey)
	total := int64(n + m)
	if err != nil {
		return total, fmt.Errorf("%w: truncated wrapped key", ErrInvalidFormat)
	}

	return total, nil
}

// marshalHeader encodes a header to bytes
func marshalHeader(h *Header) []byte {
	buf := new(bytes.Buffer)
	h.WriteTo(buf) //nolint:errcheck // bytes.Buffer never fails
	return buf.Bytes()
}

// ParseHeader decodes a header from the front of b and returns it together
// with the number of bytes consumed.
func ParseHeader(b []byte) (*Header, int, error) {
	if b == nil {
		return nil, 0, ErrNullInput
	}

	h := &Header{}
	n, err := h.ReadFrom(bytes.NewReader(b))
	if err != nil {
		return nil, int(n), err
	}
	return h, int(n), nil
}

// EncryptFile seals a whole plaintext buffer under a fresh file key wrapped
// by the master key. The output layout is
//
//	header | wrappedKey | nonce(12) | ciphertext | tag(16)
//
// Intended for small files where holding the full buffer is acceptable; use
// an Encryptor for streaming.
func EncryptFile(plaintext, masterKey []byte) ([]byte, error) {
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}

	fileKey, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	defer zeroKey(fileKey)

	wrapped, err := WrapKey(fileKey, masterKey)
	if err != nil {
		return nil, err
	}

	body, err := Encrypt(plaintext, fileKey)
	if err != nil {
		return nil, err
	}

	header := marshalHeader(NewHeader(wrapped))
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out, nil
}

// DecryptFile reverses EncryptFile. Header damage surfaces as
// ErrInvalidFormat; a wrong master key or tampered body as
// ErrDecryptionFailed.
func DecryptFile(blob, masterKey []byte) ([]byte, error) {
	if blob == nil {
		return nil, ErrNullInput
	}
	if err := ValidateKey(masterKey); err != nil {
		return nil, err
	}

	h, n, err := ParseHeader(blob)
	if err != nil {
		return nil, err
	}

	fileKey, err := UnwrapKey(h.WrappedKey, masterKey)
	if err != nil {
		return nil, err
	}
	defer zeroKey(fileKey)

	return Decrypt(blob[n:], fileKey)
}
