package transferkit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink captures each Write as one delivered message, the way a
// framed transport would.
type recordSink struct {
	records [][]byte
}

func (s *recordSink) Write(p []byte) (int, error) {
	rec := make([]byte, len(p))
	copy(rec, p)
	s.records = append(s.records, rec)
	return len(p), nil
}

func (s *recordSink) joined() []byte {
	var out []byte
	for _, rec := range s.records {
		out = append(out, rec...)
	}
	return out
}

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestUploadEncrypted(t *testing.T) {
	fsys := newTestFS(t)
	masterKey := testKey(t)
	data := randomData(t, 1000)
	writeFSFile(t, fsys, "/src.dat", data)

	sink := &recordSink{}
	var reports []Progress
	up, err := NewUpload(fsys, "/src.dat", masterKey, sink, Options{
		ChunkSize: 256,
		Progress:  func(p Progress) { reports = append(reports, p) },
	})
	require.NoError(t, err)
	defer up.Close()

	header := up.Header()
	require.NotNil(t, header)

	require.NoError(t, up.Run())
	require.Len(t, sink.records, 4)
	require.Len(t, reports, 4)
	assert.Equal(t, 1, reports[3].FilesDone)
	assert.Equal(t, int64(1000), reports[3].BytesCopied)

	// The receiving side reassembles the original from the records.
	dec, err := NewDecryptor(header, masterKey)
	require.NoError(t, err)
	defer dec.Close()

	var got []byte
	for _, rec := range sink.records {
		chunk, err := dec.DecryptChunk(rec)
		require.NoError(t, err)
		got = append(got, chunk...)
	}
	assert.True(t, bytes.Equal(data, got))
}

func TestUploadPlaintext(t *testing.T) {
	fsys := newTestFS(t)
	data := randomData(t, 700)
	writeFSFile(t, fsys, "/src.dat", data)

	sink := &recordSink{}
	up, err := NewUpload(fsys, "/src.dat", nil, sink, Options{ChunkSize: 256})
	require.NoError(t, err)
	defer up.Close()

	assert.Nil(t, up.Header())
	require.NoError(t, up.Run())
	assert.True(t, bytes.Equal(data, sink.joined()))
	assert.Equal(t, 1, up.Progress().FilesDone)
}

func TestUploadEmptyFile(t *testing.T) {
	fsys := newTestFS(t)
	writeFSFile(t, fsys, "/empty", nil)

	sink := &recordSink{}
	var reports []Progress
	up, err := NewUpload(fsys, "/empty", testKey(t), sink, Options{
		Progress: func(p Progress) { reports = append(reports, p) },
	})
	require.NoError(t, err)
	defer up.Close()

	require.NotNil(t, up.Header())
	require.NoError(t, up.Run())

	assert.Empty(t, sink.records)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].FilesDone)
}

func TestUploadStepwise(t *testing.T) {
	fsys := newTestFS(t)
	writeFSFile(t, fsys, "/src.dat", randomData(t, 300))

	sink := &recordSink{}
	up, err := NewUpload(fsys, "/src.dat", nil, sink, Options{ChunkSize: 128})
	require.NoError(t, err)
	defer up.Close()

	more, err := up.Step()
	require.NoError(t, err)
	assert.True(t, more)
	more, err = up.Step()
	require.NoError(t, err)
	assert.True(t, more)
	more, err = up.Step()
	require.NoError(t, err)
	assert.False(t, more)

	// Further steps are no-ops.
	more, err = up.Step()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Len(t, sink.records, 3)
}

func TestUploadCancelled(t *testing.T) {
	fsys := newTestFS(t)
	writeFSFile(t, fsys, "/src.dat", randomData(t, 1000))

	flag := NewCancelFlag()
	sink := &recordSink{}
	up, err := NewUpload(fsys, "/src.dat", testKey(t), sink, Options{
		ChunkSize: 256,
		Cancel:    flag,
	})
	require.NoError(t, err)
	defer up.Close()

	_, err = up.Step()
	require.NoError(t, err)

	flag.Cancel()
	_, err = up.Step()
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Len(t, sink.records, 1)
	assert.Equal(t, int64(256), up.Progress().BytesCopied)

	// The session keeps its position; clearing the flag resumes.
	flag.Reset()
	require.NoError(t, up.Run())
	assert.Len(t, sink.records, 4)
	assert.Equal(t, int64(1000), up.Progress().BytesCopied)
}

func TestUploadSinkFailure(t *testing.T) {
	fsys := newTestFS(t)
	writeFSFile(t, fsys, "/src.dat", randomData(t, 100))

	up, err := NewUpload(fsys, "/src.dat", nil, failingSink{}, Options{})
	require.NoError(t, err)
	defer up.Close()

	err = up.Run()
	assert.ErrorIs(t, err, ErrIOFailed)
	assert.True(t, IsTransferError(err))
	assert.Equal(t, int64(0), up.Progress().BytesCopied)
}

func TestUploadValidation(t *testing.T) {
	fsys := newTestFS(t)

	_, err := NewUpload(nil, "/x", nil, &recordSink{}, Options{})
	assert.ErrorIs(t, err, ErrNullInput)

	_, err = NewUpload(fsys, "/x", nil, nil, Options{})
	assert.ErrorIs(t, err, ErrNullInput)

	_, err = NewUpload(fsys, "/missing", nil, &recordSink{}, Options{})
	assert.ErrorIs(t, err, ErrFileNotFound)

	writeFSFile(t, fsys, "/src.dat", []byte("x"))
	_, err = NewUpload(fsys, "/src.dat", make([]byte, 16), &recordSink{}, Options{})
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestUploadClosed(t *testing.T) {
	fsys := newTestFS(t)
	writeFSFile(t, fsys, "/src.dat", []byte("content"))

	up, err := NewUpload(fsys, "/src.dat", nil, &recordSink{}, Options{})
	require.NoError(t, err)
	require.NoError(t, up.Close())
	require.NoError(t, up.Close())

	_, err = up.Step()
	assert.True(t, IsValidationError(err))
}
