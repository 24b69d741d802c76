package transferkit

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StepResult reports whether a step-driven transfer has more work to do.
type StepResult int

const (
	// StepMore means at least one file remains after this step.
	StepMore StepResult = iota
	// StepDone means every file in the batch has been transferred.
	StepDone
)

// FileSpec names one file in a batch transfer. Source and Dest are offset
// addressed so a cancelled batch can resume mid-file without rewinding.
type FileSpec struct {
	Name   string
	Size   int64
	Source io.ReaderAt
	Dest   io.WriterAt
}

// UnifiedCopy drives a batch of files through one transfer loop, one whole
// file per Step. Progress accumulates across the batch and the cancellation
// flag is polled at every chunk boundary, so a single Cancel stops the
// batch within one chunk. After a cancellation or I/O error the session
// keeps its position; clearing the cause and calling Step again resumes
// from the last completed chunk of the interrupted file.
type UnifiedCopy struct {
	id     string
	files  []FileSpec
	next   int
	off    int64
	buf    []byte
	prog   Progress
	opts   Options
	closed bool
}

// NewUnifiedCopy validates the batch and prepares a step-driven transfer
// over it. An empty batch is valid and completes on the first Step.
func NewUnifiedCopy(files []FileSpec, opts Options) (*UnifiedCopy, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var total int64
	for i, f := range files {
		if f.Source == nil || f.Dest == nil {
			return nil, &ValidationError{Field: "files", Value: i, Message: "source and dest are required"}
		}
		if f.Size < 0 {
			return nil, &ValidationError{Field: "files", Value: i, Message: "size must be non-negative"}
		}
		total += f.Size
	}

	c := &UnifiedCopy{
		id:    uuid.NewString(),
		files: files,
		buf:   opts.buffer(),
		prog:  Progress{TotalBytes: total, FilesTotal: len(files)},
		opts:  opts,
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": c.id,
		"files":       len(files),
		"size":        total,
	}).Info("batch transfer started")

	return c, nil
}

// Step transfers the current file to completion and advances to the next
// one. It returns StepDone once the whole batch is finished; calling Step
// again after that is a no-op.
func (c *UnifiedCopy) Step() (StepResult, error) {
	if c.closed {
		return StepDone, &ValidationError{Field: "transfer", Message: "session is closed"}
	}
	if c.next >= len(c.files) {
		return StepDone, nil
	}

	f := c.files[c.next]
	counted := false

	for c.off < f.Size {
		if err := c.opts.checkCancelled(); err != nil {
			logrus.WithFields(logrus.Fields{
				"transfer_id": c.id,
				"file":        f.Name,
				"offset":      c.off,
			}).Warn("batch transfer cancelled")
			return StepMore, err
		}

		want := len(c.buf)
		if int64(want) > f.Size-c.off {
			want = int(f.Size - c.off)
		}
		// ReadAt may legally return io.EOF alongside a full final read.
		n, err := f.Source.ReadAt(c.buf[:want], c.off)
		if err != nil && !(errors.Is(err, io.EOF) && n == want) {
			return StepMore, &TransferError{Op: "read", Path: f.Name, Kind: ErrIOFailed, Err: err}
		}
		if _, err := f.Dest.WriteAt(c.buf[:n], c.off); err != nil {
			return StepMore, &TransferError{Op: "write", Path: f.Name, Kind: ErrIOFailed, Err: err}
		}

		c.off += int64(n)
		c.prog.BytesCopied += int64(n)
		if c.off == f.Size {
			c.prog.FilesDone++
			counted = true
		}
		c.opts.report(c.prog)
	}

	// Empty files fall straight through the chunk loop.
	if !counted && c.off == f.Size {
		c.prog.FilesDone++
		c.opts.report(c.prog)
	}

	c.next++
	c.off = 0

	if c.next >= len(c.files) {
		logrus.WithFields(logrus.Fields{
			"transfer_id": c.id,
			"files":       c.prog.FilesDone,
			"bytes":       c.prog.BytesCopied,
		}).Info("batch transfer complete")
		return StepDone, nil
	}
	return StepMore, nil
}

// Run drives Step until the batch completes or an error occurs
func (c *UnifiedCopy) Run() error {
	for {
		res, err := c.Step()
		if err != nil {
			return err
		}
		if res == StepDone {
			return nil
		}
	}
}

// Progress returns the current progress snapshot
func (c *UnifiedCopy) Progress() Progress {
	return c.prog
}

// Close releases the session. The caller owns the per-file sources and
// destinations and closes them itself. Safe to call more than once.
func (c *UnifiedCopy) Close() error {
	c.closed = true
	return nil
}
