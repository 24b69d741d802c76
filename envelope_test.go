package transferkit

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	wrapped := make([]byte, WrappedKeySize)
	_, err := rand.Read(wrapped)
	require.NoError(t, err)

	h := NewHeader(wrapped)
	assert.Equal(t, HeaderFixedSize+WrappedKeySize, h.Size())

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(h.Size()), n)

	got, consumed, err := ParseHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, h.Size(), consumed)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, wrapped, got.WrappedKey)
}

func TestHeaderWireLayout(t *testing.T) {
	wrapped := bytes.Repeat([]byte{0xAB}, WrappedKeySize)
	encoded := marshalHeader(NewHeader(wrapped))

	assert.Equal(t, MagicBytes, binary.LittleEndian.Uint32(encoded[0:4]))
	assert.Equal(t, CurrentVersion, encoded[4])
	assert.Equal(t, []byte{0, 0, 0}, encoded[5:8])
	assert.Equal(t, uint32(WrappedKeySize), binary.LittleEndian.Uint32(encoded[8:12]))
	assert.Equal(t, wrapped, encoded[12:])
}

func TestParseHeaderRejectsDamage(t *testing.T) {
	valid := marshalHeader(NewHeader(make([]byte, WrappedKeySize)))

	corrupt := func(mutate func(b []byte)) []byte {
		b := make([]byte, len(valid))
		copy(b, valid)
		mutate(b)
		return b
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"bad magic", corrupt(func(b []byte) { b[0] = 'X' })},
		{"version zero", corrupt(func(b []byte) { b[4] = 0 })},
		{"future version", corrupt(func(b []byte) { b[4] = CurrentVersion + 1 })},
		{"zero key length", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[8:12], 0) })},
		{"huge key length", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[8:12], 1<<20) })},
		{"truncated fixed part", valid[:HeaderFixedSize-1]},
		{"truncated wrapped key", valid[:len(valid)-5]},
		{"empty", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseHeader(tc.data)
			require.Error(t, err)
			if tc.data != nil {
				assert.ErrorIs(t, err, ErrInvalidFormat)
			} else {
				assert.ErrorIs(t, err, ErrNullInput)
			}
		})
	}
}

func TestEncryptFileRoundTrip(t *testing.T) {
	masterKey := testKey(t)

	for _, size := range []int{0, 1, 19, 1000, 64 * 1024} {
		plaintext := make([]byte, size)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		blob, err := EncryptFile(plaintext, masterKey)
		require.NoError(t, err)

		// header(12) + wrappedKey(60) + nonce(12) + ciphertext + tag(16)
		assert.Equal(t, 100+size, len(blob), "size %d", size)

		got, err := DecryptFile(blob, masterKey)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(plaintext, got), "size %d", size)
	}
}

func TestEncryptFileFreshKeys(t *testing.T) {
	masterKey := testKey(t)
	plaintext := []byte("identical content")

	a, err := EncryptFile(plaintext, masterKey)
	require.NoError(t, err)
	b, err := EncryptFile(plaintext, masterKey)
	require.NoError(t, err)

	// Both the wrapped key and the body must differ between calls.
	assert.False(t, bytes.Equal(a[HeaderFixedSize:], b[HeaderFixedSize:]))
}

func TestDecryptFileWrongMasterKey(t *testing.T) {
	blob, err := EncryptFile([]byte("secret"), testKey(t))
	require.NoError(t, err)

	_, err = DecryptFile(blob, testKey(t))
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptFileCorruptHeader(t *testing.T) {
	masterKey := testKey(t)
	blob, err := EncryptFile([]byte("secret"), masterKey)
	require.NoError(t, err)

	blob[0] ^= 0xFF
	_, err = DecryptFile(blob, masterKey)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecryptFileTamperedBody(t *testing.T) {
	masterKey := testKey(t)
	blob, err := EncryptFile([]byte("secret"), masterKey)
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0x01
	_, err = DecryptFile(blob, masterKey)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptFileTamperedWrappedKey(t *testing.T) {
	masterKey := testKey(t)
	blob, err := EncryptFile([]byte("secret"), masterKey)
	require.NoError(t, err)

	blob[HeaderFixedSize+4] ^= 0x01
	_, err = DecryptFile(blob, masterKey)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptFileNullInputs(t *testing.T) {
	_, err := DecryptFile(nil, testKey(t))
	assert.ErrorIs(t, err, ErrNullInput)

	_, err = EncryptFile([]byte("x"), nil)
	assert.ErrorIs(t, err, ErrNullInput)
}
