package transferkit

import (
	"io"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Upload streams one local file to a host-provided sink, one chunk per
// step. With a master key the content passes through a streaming Encryptor
// and the sink receives ChunkRecords; without one it receives raw chunks.
// The sink is treated as an opaque, possibly slow, synchronous call; actual
// network I/O and retry policy belong to the host.
type Upload struct {
	id     string
	path   string
	src    absfs.File
	enc    *Encryptor
	sink   io.Writer
	buf    []byte
	index  uint32
	prog   Progress
	opts   Options
	done   bool
	closed bool
}

// NewUpload opens path on fsys and prepares a chunked push to sink. A nil
// masterKey uploads plaintext; otherwise a fresh file key is generated and
// Header must be sent to the remote side before the first chunk. Every
// successful NewUpload must be paired with Close.
func NewUpload(fsys absfs.FileSystem, path string, masterKey []byte, sink io.Writer, opts Options) (*Upload, error) {
	if fsys == nil || sink == nil {
		return nil, ErrNullInput
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	info, err := fsys.Stat(path)
	if err != nil {
		return nil, newIOError("stat", path, err)
	}

	src, err := fsys.Open(path)
	if err != nil {
		return nil, newIOError("open", path, err)
	}

	var enc *Encryptor
	if masterKey != nil {
		enc, err = NewEncryptorCipher(opts.Cipher, masterKey)
		if err != nil {
			src.Close()
			return nil, err
		}
	}

	u := &Upload{
		id:   uuid.NewString(),
		path: path,
		src:  src,
		enc:  enc,
		sink: sink,
		buf:  opts.buffer(),
		prog: Progress{TotalBytes: info.Size(), FilesTotal: 1},
		opts: opts,
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": u.id,
		"path":        path,
		"size":        info.Size(),
		"encrypted":   enc != nil,
	}).Info("upload started")

	return u, nil
}

// Header returns the envelope header the host must deliver ahead of the
// chunk data. It is nil for plaintext uploads.
func (u *Upload) Header() []byte {
	if u.enc == nil {
		return nil
	}
	return u.enc.Header()
}

// Progress returns the current progress snapshot
func (u *Upload) Progress() Progress {
	return u.prog
}

// Step pushes one chunk to the sink. It returns false once the source is
// exhausted. On error the upload stops at the last fully delivered chunk;
// resuming or discarding the partial remote artifact is host policy.
func (u *Upload) Step() (bool, error) {
	if u.closed {
		return false, &ValidationError{Field: "upload", Message: "session is closed"}
	}
	if u.done {
		return false, nil
	}
	if err := u.opts.checkCancelled(); err != nil {
		logrus.WithField("transfer_id", u.id).Warn("upload cancelled")
		return false, err
	}

	remaining := u.prog.TotalBytes - u.prog.BytesCopied
	if remaining <= 0 {
		u.finish()
		return false, nil
	}

	n := len(u.buf)
	if int64(n) > remaining {
		n = int(remaining)
	}
	if _, err := io.ReadFull(u.src, u.buf[:n]); err != nil {
		return false, newIOError("read", u.path, err)
	}

	payload := u.buf[:n]
	if u.enc != nil {
		record, err := u.enc.EncryptChunk(payload, u.index)
		if err != nil {
			return false, err
		}
		payload = record
	}

	if _, err := u.sink.Write(payload); err != nil {
		return false, &TransferError{Op: "send", Path: u.path, Kind: ErrIOFailed, Err: err}
	}

	u.index++
	u.prog.BytesCopied += int64(n)
	if u.prog.BytesCopied == u.prog.TotalBytes {
		u.prog.FilesDone = 1
		u.done = true
	}
	u.opts.report(u.prog)

	if u.done {
		logrus.WithFields(logrus.Fields{
			"transfer_id": u.id,
			"bytes":       u.prog.BytesCopied,
			"chunks":      u.index,
		}).Info("upload complete")
	}
	return !u.done, nil
}

// finish marks an upload complete without sending more data. Used for
// empty files, which carry a header but no chunk records.
func (u *Upload) finish() {
	u.done = true
	if u.prog.FilesDone == 0 {
		u.prog.FilesDone = 1
		u.opts.report(u.prog)
	}
	logrus.WithFields(logrus.Fields{
		"transfer_id": u.id,
		"bytes":       u.prog.BytesCopied,
	}).Info("upload complete")
}

// Run drives Step until the source is exhausted or an error occurs
func (u *Upload) Run() error {
	for {
		more, err := u.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Close releases the session on every code path, including errors. Safe to
// call more than once.
func (u *Upload) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.enc != nil {
		u.enc.Close()
	}
	if err := u.src.Close(); err != nil {
		return newIOError("close", u.path, err)
	}
	return nil
}
