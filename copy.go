package transferkit

import (
	"io"
	"os"
	"path"

	"github.com/absfs/absfs"
	"github.com/sirupsen/logrus"
)

// Local copy orchestrator: duplicates files and directory trees on one
// filesystem, one chunk at a time through a single fixed-size buffer.

// CopyFile streams src to dst on fsys. The progress callback fires after
// every fully written chunk; a set cancellation flag stops the copy at the
// next chunk boundary, leaving dst truncated at the last complete chunk.
// It returns the number of bytes copied.
func CopyFile(fsys absfs.FileSystem, src, dst string, opts Options) (int64, error) {
	if fsys == nil {
		return 0, ErrNullInput
	}
	if err := ValidatePath(src); err != nil {
		return 0, err
	}
	if err := ValidatePath(dst); err != nil {
		return 0, err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	info, err := fsys.Stat(src)
	if err != nil {
		return 0, newIOError("stat", src, err)
	}

	prog := Progress{TotalBytes: info.Size(), FilesTotal: 1}
	buf := opts.buffer()

	logrus.WithFields(logrus.Fields{
		"src":  src,
		"dst":  dst,
		"size": info.Size(),
	}).Debug("starting local copy")

	if err := copyFileInto(fsys, src, dst, buf, &opts, &prog); err != nil {
		return prog.BytesCopied, err
	}
	return prog.BytesCopied, nil
}

// copyFileInto copies one file, updating the shared progress snapshot. The
// buffer is caller-owned so tree copies reuse one allocation.
func copyFileInto(fsys absfs.FileSystem, src, dst string, buf []byte, opts *Options, prog *Progress) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return newIOError("stat", src, err)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return newIOError("open", src, err)
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return newIOError("create", dst, err)
	}

	remaining := info.Size()
	for remaining > 0 {
		if err := opts.checkCancelled(); err != nil {
			out.Close()
			logrus.WithField("src", src).Warn("local copy cancelled")
			return err
		}

		n := len(buf)
		if int64(n) > remaining {
			n = int(remaining)
		}
		if _, err := io.ReadFull(in, buf[:n]); err != nil {
			out.Close()
			return newIOError("read", src, err)
		}
		if _, err := out.Write(buf[:n]); err != nil {
			out.Close()
			return newIOError("write", dst, err)
		}

		remaining -= int64(n)
		prog.BytesCopied += int64(n)
		if remaining == 0 {
			prog.FilesDone++
		}
		opts.report(*prog)
	}

	// An empty file produces no chunk loop iterations but still completes.
	if info.Size() == 0 {
		prog.FilesDone++
		opts.report(*prog)
	}

	if err := out.Close(); err != nil {
		return newIOError("close", dst, err)
	}
	return nil
}

// CopyTree recursively copies the directory tree rooted at src to dst. One
// shared buffer and one cancellation flag cover the whole tree, so a single
// Cancel stops every remaining file.
func CopyTree(fsys absfs.FileSystem, src, dst string, opts Options) error {
	if fsys == nil {
		return ErrNullInput
	}
	if err := ValidatePath(src); err != nil {
		return err
	}
	if err := ValidatePath(dst); err != nil {
		return err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	// Pre-scan so progress reports a meaningful denominator.
	var total int64
	var files int
	if err := walkTree(fsys, src, func(name string, info os.FileInfo) {
		if !info.IsDir() {
			files++
			total += info.Size()
		}
	}); err != nil {
		return err
	}

	prog := Progress{TotalBytes: total, FilesTotal: files}
	buf := opts.buffer()

	logrus.WithFields(logrus.Fields{
		"src":   src,
		"dst":   dst,
		"files": files,
		"size":  total,
	}).Info("starting tree copy")

	return copyTreeInto(fsys, src, dst, buf, &opts, &prog)
}

func copyTreeInto(fsys absfs.FileSystem, src, dst string, buf []byte, opts *Options, prog *Progress) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return newIOError("stat", src, err)
	}

	if !info.IsDir() {
		return copyFileInto(fsys, src, dst, buf, opts, prog)
	}

	if err := fsys.MkdirAll(dst, 0755); err != nil {
		return newIOError("mkdir", dst, err)
	}

	dir, err := fsys.Open(src)
	if err != nil {
		return newIOError("open", src, err)
	}
	entries, err := dir.Readdir(-1)
	dir.Close()
	if err != nil {
		return newIOError("readdir", src, err)
	}

	for _, entry := range entries {
		if err := copyTreeInto(fsys, path.Join(src, entry.Name()), path.Join(dst, entry.Name()), buf, opts, prog); err != nil {
			return err
		}
	}
	return nil
}

// walkTree visits every entry under root, directories before their contents
func walkTree(fsys absfs.FileSystem, root string, visit func(name string, info os.FileInfo)) error {
	info, err := fsys.Stat(root)
	if err != nil {
		return newIOError("stat", root, err)
	}
	visit(root, info)

	if !info.IsDir() {
		return nil
	}

	dir, err := fsys.Open(root)
	if err != nil {
		return newIOError("open", root, err)
	}
	entries, err := dir.Readdir(-1)
	dir.Close()
	if err != nil {
		return newIOError("readdir", root, err)
	}

	for _, entry := range entries {
		if err := walkTree(fsys, path.Join(root, entry.Name()), visit); err != nil {
			return err
		}
	}
	return nil
}
