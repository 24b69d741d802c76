package transferkit

import "sync/atomic"

const (
	// KeySize is the size of all symmetric keys (256 bits)
	KeySize = 32

	// NonceSize is the AEAD nonce size in bytes
	NonceSize = 12

	// TagSize is the AEAD authentication tag size in bytes
	TagSize = 16

	// WrappedKeySize is the size of a file key after wrapping under a
	// master key: nonce + key + tag
	WrappedKeySize = NonceSize + KeySize + TagSize

	// DefaultSaltSize is the default salt size for key derivation
	DefaultSaltSize = 32

	// DefaultChunkSize is the default transfer chunk size (1 MiB)
	DefaultChunkSize = 1024 * 1024

	// MinChunkSize is the minimum allowed chunk size (64 bytes, for testing)
	MinChunkSize = 64

	// MaxChunkSize is the maximum allowed chunk size (64 MiB)
	MaxChunkSize = 64 * 1024 * 1024
)

// CancelFlag is a shared cancellation signal. One flag may be handed to any
// number of transfer contexts; orchestrators poll it before every chunk and
// never mutate it, so a single Cancel aborts a whole multi-file operation.
// A nil *CancelFlag is valid and never cancelled.
type CancelFlag struct {
	set atomic.Bool
}

// NewCancelFlag creates an unset cancellation flag
func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

// Cancel requests cooperative cancellation. Safe for concurrent use.
func (f *CancelFlag) Cancel() {
	f.set.Store(true)
}

// Reset clears the flag so the contexts sharing it can be resumed or reused
func (f *CancelFlag) Reset() {
	f.set.Store(false)
}

// Cancelled reports whether cancellation has been requested
func (f *CancelFlag) Cancelled() bool {
	if f == nil {
		return false
	}
	return f.set.Load()
}

// Progress is a snapshot of a transfer's cumulative state, delivered to the
// progress callback after every chunk.
type Progress struct {
	BytesCopied int64 // Plaintext bytes fully written so far
	TotalBytes  int64 // Declared total; 0 when unknown
	FilesDone   int   // Fully completed files
	FilesTotal  int   // Declared file count; 0 when unknown
}

// ProgressFunc receives progress snapshots. Callbacks run synchronously on
// the transfer's calling goroutine; a slow callback slows the transfer.
type ProgressFunc func(Progress)

// Options contains configuration shared by all transfer orchestrators
type Options struct {
	// ChunkSize bounds the per-context buffer; 0 selects DefaultChunkSize,
	// or the length of Buffer when one is supplied
	ChunkSize int

	// Buffer optionally supplies the chunk buffer, letting the host own
	// the allocation and reuse it across sequential operations. Must hold
	// at least ChunkSize bytes when set.
	Buffer []byte

	// Cipher suite for envelope payloads; CipherAuto selects AES-256-GCM
	Cipher CipherSuite

	// Progress, if set, is invoked after every fully written chunk
	Progress ProgressFunc

	// Cancel is an optional shared cancellation flag
	Cancel *CancelFlag
}

// withDefaults fills in zero-value fields
func (o Options) withDefaults() Options {
	if o.ChunkSize == 0 {
		if o.Buffer != nil {
			o.ChunkSize = len(o.Buffer)
		} else {
			o.ChunkSize = DefaultChunkSize
		}
	}
	return o
}

// Validate checks if the options are valid
func (o *Options) Validate() error {
	if err := ValidateChunkSize(o.ChunkSize); err != nil {
		return err
	}
	if o.Buffer != nil {
		if err := ValidateBuffer(o.Buffer, "buffer", o.ChunkSize); err != nil {
			return err
		}
	}
	if o.Cipher != CipherAuto && o.Cipher != CipherAES256GCM && o.Cipher != CipherChaCha20Poly1305 {
		return ErrUnsupportedCipher
	}
	return nil
}

// buffer returns the chunk buffer, allocating one when the host did not
// supply its own.
func (o *Options) buffer() []byte {
	if o.Buffer != nil {
		return o.Buffer[:o.ChunkSize]
	}
	return make([]byte, o.ChunkSize)
}

// report invokes the progress callback if one is configured
func (o *Options) report(p Progress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// checkCancelled surfaces a set cancellation flag as ErrCancelled
func (o *Options) checkCancelled() error {
	if o.Cancel.Cancelled() {
		return ErrCancelled
	}
	return nil
}
