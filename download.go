package transferkit

import (
	"os"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Download receives one file from a remote source and writes it to fsys,
// one chunk per append. The host owns the receive loop; it hands each
// incoming record or plaintext chunk to the session, which decrypts,
// writes, and reports progress. The declared total size comes from the
// remote side's metadata and bounds what the session will accept; when the
// remote does not announce a size the session runs open-ended until Finish.
type Download struct {
	id     string
	path   string
	dst    absfs.File
	dec    *Decryptor
	prog   Progress
	opts   Options
	closed bool
}

// NewDownload creates dst on fsys and prepares to receive totalBytes of
// content. A totalBytes of zero means the size is unknown; the session then
// accepts any amount of data and the host marks the end of the stream with
// Finish. For encrypted transfers Begin must be called with the envelope
// header before the first AppendChunk. Every successful NewDownload must be
// paired with Close.
func NewDownload(fsys absfs.FileSystem, path string, totalBytes int64, opts Options) (*Download, error) {
	if fsys == nil {
		return nil, ErrNullInput
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if totalBytes < 0 {
		return nil, &ValidationError{Field: "totalBytes", Value: totalBytes, Message: "must be non-negative"}
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dst, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, newIOError("create", path, err)
	}

	d := &Download{
		id:   uuid.NewString(),
		path: path,
		dst:  dst,
		prog: Progress{TotalBytes: totalBytes, FilesTotal: 1},
		opts: opts,
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": d.id,
		"path":        path,
		"size":        totalBytes,
	}).Info("download started")

	return d, nil
}

// Begin wires up decryption from the envelope header received ahead of the
// chunk data. It must be called at most once, before any chunk is appended.
func (d *Download) Begin(header, masterKey []byte) error {
	if d.closed {
		return &ValidationError{Field: "download", Message: "session is closed"}
	}
	if d.dec != nil {
		return &ValidationError{Field: "download", Message: "decryption already initialized"}
	}
	if d.prog.BytesCopied > 0 {
		return &ValidationError{Field: "download", Message: "transfer already in progress"}
	}

	dec, err := NewDecryptorCipher(d.opts.Cipher, header, masterKey)
	if err != nil {
		return err
	}
	d.dec = dec
	return nil
}

// AppendChunk verifies, decrypts and writes one ChunkRecord. Records must
// arrive in index order; Begin must have been called first.
func (d *Download) AppendChunk(record []byte) error {
	if d.closed {
		return &ValidationError{Field: "download", Message: "session is closed"}
	}
	if d.dec == nil {
		return &ValidationError{Field: "download", Message: "decryption not initialized, call Begin first"}
	}
	if err := d.opts.checkCancelled(); err != nil {
		logrus.WithField("transfer_id", d.id).Warn("download cancelled")
		return err
	}

	plaintext, err := d.dec.DecryptChunk(record)
	if err != nil {
		return err
	}
	return d.write(plaintext)
}

// AppendPlain writes one chunk of an unencrypted transfer
func (d *Download) AppendPlain(p []byte) error {
	if d.closed {
		return &ValidationError{Field: "download", Message: "session is closed"}
	}
	if p == nil {
		return ErrNullInput
	}
	if err := d.opts.checkCancelled(); err != nil {
		logrus.WithField("transfer_id", d.id).Warn("download cancelled")
		return err
	}
	return d.write(p)
}

func (d *Download) write(p []byte) error {
	known := d.prog.TotalBytes > 0
	if known && d.prog.BytesCopied+int64(len(p)) > d.prog.TotalBytes {
		return &ValidationError{
			Field:   "download",
			Value:   d.prog.BytesCopied + int64(len(p)),
			Message: "received more data than the declared total",
		}
	}

	if _, err := d.dst.Write(p); err != nil {
		return newIOError("write", d.path, err)
	}

	d.prog.BytesCopied += int64(len(p))
	if known && d.prog.BytesCopied == d.prog.TotalBytes {
		d.prog.FilesDone = 1
	}
	d.opts.report(d.prog)

	if d.prog.FilesDone == 1 {
		logrus.WithFields(logrus.Fields{
			"transfer_id": d.id,
			"bytes":       d.prog.BytesCopied,
		}).Info("download complete")
	}
	return nil
}

// Finish marks the end of the stream. It is required for unknown-size
// downloads, where only the host knows when the remote source is exhausted,
// and a verifying no-op for declared totals. Finishing a declared-size
// download short of its total is an error.
func (d *Download) Finish() error {
	if d.closed {
		return &ValidationError{Field: "download", Message: "session is closed"}
	}
	if d.prog.FilesDone == 1 {
		return nil
	}
	if d.prog.TotalBytes > 0 && d.prog.BytesCopied < d.prog.TotalBytes {
		return &ValidationError{
			Field:   "download",
			Value:   d.prog.BytesCopied,
			Message: "stream ended before the declared total",
		}
	}

	d.prog.FilesDone = 1
	d.opts.report(d.prog)

	logrus.WithFields(logrus.Fields{
		"transfer_id": d.id,
		"bytes":       d.prog.BytesCopied,
	}).Info("download complete")
	return nil
}

// Complete reports whether the download has finished: every declared byte
// received, or Finish called on an unknown-size session.
func (d *Download) Complete() bool {
	return d.prog.FilesDone == 1
}

// Progress returns the current progress snapshot
func (d *Download) Progress() Progress {
	return d.prog
}

// Close releases the session on every code path, including errors. Safe to
// call more than once. A download closed before Complete leaves a partial
// file; cleanup is host policy.
func (d *Download) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.dec != nil {
		d.dec.Close()
	}
	if err := d.dst.Close(); err != nil {
		return newIOError("close", d.path, err)
	}
	return nil
}
