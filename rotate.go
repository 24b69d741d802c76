package transferkit

// Master key rotation. Because file bodies are encrypted under per-file
// keys, rotating the master key only requires re-wrapping each file's key;
// the encrypted bodies are never touched or re-uploaded.

// RewrapHeader re-wraps the file key of an envelope header under a new
// master key and returns the replacement header. The encoded size is
// unchanged, so the header may be rewritten in place.
func RewrapHeader(header, oldMasterKey, newMasterKey []byte) ([]byte, error) {
	if header == nil {
		return nil, ErrNullInput
	}
	if err := ValidateKey(newMasterKey); err != nil {
		return nil, err
	}

	h, _, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}

	fileKey, err := UnwrapKey(h.WrappedKey, oldMasterKey)
	if err != nil {
		return nil, err
	}
	defer zeroKey(fileKey)

	wrapped, err := WrapKey(fileKey, newMasterKey)
	if err != nil {
		return nil, err
	}

	return marshalHeader(NewHeader(wrapped)), nil
}

// RewrapFile rotates the master key of a whole embedded-key file produced
// by EncryptFile, leaving the ciphertext body byte-identical.
func RewrapFile(blob, oldMasterKey, newMasterKey []byte) ([]byte, error) {
	if blob == nil {
		return nil, ErrNullInput
	}

	_, n, err := ParseHeader(blob)
	if err != nil {
		return nil, err
	}

	header, err := RewrapHeader(blob[:n], oldMasterKey, newMasterKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(header)+len(blob)-n)
	out = append(out, header...)
	out = append(out, blob[n:]...)
	return out, nil
}
