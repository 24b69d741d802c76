package transferkit

import (
	"encoding/binary"
	"fmt"
)

// ChunkRecord wire layout (integers little-endian):
//
//	index(4) | size(4) | nonce(12) | mac(16) | ciphertext(size)
//
// The MAC authenticates the ciphertext and is bound to the chunk index via
// the AEAD associated data, so records cannot be reordered, replayed or
// spliced between files without detection.

const (
	// ChunkOverhead is the per-record framing cost:
	// index(4) + size(4) + nonce(12) + mac(16)
	ChunkOverhead = 8 + NonceSize + TagSize
)

// ChunkRecordSize returns the encoded record size for a plaintext chunk
func ChunkRecordSize(plaintextSize int) int {
	return ChunkOverhead + plaintextSize
}

// CalculateChunkCount calculates how many chunks are needed for a given data size
func CalculateChunkCount(dataSize int64, chunkSize int) int64 {
	if dataSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return (dataSize + int64(chunkSize) - 1) / int64(chunkSize)
}

// chunkAAD binds a record's MAC to its chunk index
func chunkAAD(index uint32) []byte {
	var aad [4]byte
	binary.LittleEndian.PutUint32(aad[:], index)
	return aad[:]
}

// encodeChunkRecord frames one sealed chunk. blob is the seal output
// (nonce || ciphertext || tag); the record stores the tag ahead of the
// ciphertext.
func encodeChunkRecord(index uint32, blob []byte) []byte {
	ctLen := len(blob) - NonceSize - TagSize

	rec := make([]byte, ChunkOverhead+ctLen)
	binary.LittleEndian.PutUint32(rec[0:4], index)
	binary.LittleEndian.PutUint32(rec[4:8], uint32(ctLen))
	copy(rec[8:8+NonceSize], blob[:NonceSize])
	copy(rec[8+NonceSize:ChunkOverhead], blob[NonceSize+ctLen:])
	copy(rec[ChunkOverhead:], blob[NonceSize:NonceSize+ctLen])
	return rec
}

// parseChunkRecord validates a record's framing and reassembles the
// nonce || ciphertext || tag blob for the AEAD open call.
func parseChunkRecord(rec []byte) (index uint32, blob []byte, err error) {
	if len(rec) < ChunkOverhead {
		return 0, nil, fmt.Errorf("%w: chunk record too short", ErrInvalidFormat)
	}

	index = binary.LittleEndian.Uint32(rec[0:4])
	size := binary.LittleEndian.Uint32(rec[4:8])
	if size > MaxChunkSize {
		return 0, nil, fmt.Errorf("%w: chunk size %d exceeds maximum", ErrInvalidFormat, size)
	}
	if len(rec) != ChunkOverhead+int(size) {
		return 0, nil, fmt.Errorf("%w: chunk record length mismatch", ErrInvalidFormat)
	}

	blob = make([]byte, NonceSize+int(size)+TagSize)
	copy(blob, rec[8:8+NonceSize])
	copy(blob[NonceSize:], rec[ChunkOverhead:])
	copy(blob[NonceSize+int(size):], rec[8+NonceSize:ChunkOverhead])
	return index, blob, nil
}
