// Package transferkit is the core engine for streaming, envelope-encrypted
// file transfers: local copies, uploads and downloads share one chunked
// transfer loop with progress reporting and cooperative cancellation.
//
// # Overview
//
// transferkit separates transfer mechanics from transport. The package
// moves and encrypts bytes; the host application supplies the network
// (sinks and sources), threading, and retry policy. Local file access goes
// through the absfs.FileSystem abstraction, so the same engine runs over
// the OS filesystem, an in-memory filesystem, or any other AbsFs backend.
//
// # Envelope Encryption
//
// Every encrypted file gets its own random 256-bit file key. The content
// is encrypted under the file key; the file key is encrypted (wrapped)
// under the caller's master key and stored in a small envelope header in
// front of the content. Rotating the master key therefore only rewrites
// headers (see RewrapHeader and RewrapFile); the encrypted bodies are
// untouched.
//
// Two layouts share the same header:
//
//   - Embedded: header plus a single AEAD blob, produced by EncryptFile.
//     Suited to small files handled in one call.
//   - Streaming: header plus a sequence of self-contained ChunkRecords,
//     produced by an Encryptor session. Each record authenticates its own
//     chunk index, so records cannot be reordered, replayed or dropped
//     without detection.
//
// # Supported Cipher Suites
//
//   - AES-256-GCM (default)
//   - ChaCha20-Poly1305
//
// Both are AEADs with 96-bit nonces and 128-bit tags, so the wire formats
// are identical regardless of suite.
//
// # Basic Usage
//
//	// One-shot encryption of a small file.
//	blob, err := transferkit.EncryptFile(plaintext, masterKey)
//
//	// Streaming upload of a large file.
//	up, err := transferkit.NewUpload(fsys, "/data/backup.tar", masterKey, sink, transferkit.Options{
//	    Progress: func(p transferkit.Progress) {
//	        fmt.Printf("%d/%d bytes\n", p.BytesCopied, p.TotalBytes)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer up.Close()
//	sendHeader(up.Header())
//	err = up.Run()
//
// # Cancellation
//
// Long-running operations take an optional *CancelFlag in their Options. A
// flag may be shared by several operations and set from any goroutine;
// each operation observes it at its next chunk boundary and returns
// ErrCancelled.
package transferkit
