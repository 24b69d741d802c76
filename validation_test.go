package transferkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey(make([]byte, KeySize)))
	assert.ErrorIs(t, ValidateKey(nil), ErrNullInput)
	assert.ErrorIs(t, ValidateKey(make([]byte, 16)), ErrInvalidKeySize)
	assert.ErrorIs(t, ValidateKey(make([]byte, 33)), ErrInvalidKeySize)
}

func TestValidateBuffer(t *testing.T) {
	assert.NoError(t, ValidateBuffer(make([]byte, 10), "buf", 10))
	assert.NoError(t, ValidateBuffer([]byte{}, "buf", 0))

	err := ValidateBuffer(nil, "buf", 0)
	assert.ErrorIs(t, err, ErrNullInput)
	assert.True(t, IsValidationError(err))

	err = ValidateBuffer(make([]byte, 5), "buf", 10)
	assert.True(t, IsValidationError(err))
}

func TestValidateChunkSize(t *testing.T) {
	assert.NoError(t, ValidateChunkSize(MinChunkSize))
	assert.NoError(t, ValidateChunkSize(DefaultChunkSize))
	assert.NoError(t, ValidateChunkSize(MaxChunkSize))

	assert.True(t, IsValidationError(ValidateChunkSize(0)))
	assert.True(t, IsValidationError(ValidateChunkSize(MinChunkSize-1)))
	assert.True(t, IsValidationError(ValidateChunkSize(MaxChunkSize+1)))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath("/data/file.txt"))
	assert.NoError(t, ValidatePath("relative/path"))
	assert.NoError(t, ValidatePath("/with..dots/file"))

	assert.ErrorIs(t, ValidatePath(""), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("../escape"), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("/a/../b"), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("a/.."), ErrInvalidPath)
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultChunkSize, opts.ChunkSize)
	assert.NoError(t, opts.Validate())

	bad := Options{ChunkSize: 1}
	assert.Error(t, bad.Validate())

	badCipher := Options{ChunkSize: DefaultChunkSize, Cipher: CipherSuite(9)}
	assert.ErrorIs(t, badCipher.Validate(), ErrUnsupportedCipher)
}

func TestOptionsHostBuffer(t *testing.T) {
	// A supplied buffer sets the chunk size when none is given.
	opts := Options{Buffer: make([]byte, 4096)}.withDefaults()
	assert.Equal(t, 4096, opts.ChunkSize)
	assert.NoError(t, opts.Validate())

	// A buffer smaller than the requested chunk size is rejected.
	short := Options{ChunkSize: 8192, Buffer: make([]byte, 4096)}
	assert.True(t, IsValidationError(short.Validate()))

	// An oversized buffer is fine; only ChunkSize bytes are used.
	big := Options{ChunkSize: 128, Buffer: make([]byte, 1024)}
	assert.NoError(t, big.Validate())
	assert.Equal(t, 128, len(big.buffer()))
}
