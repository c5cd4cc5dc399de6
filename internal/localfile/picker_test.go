package localfile

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapexec/internal/testutil"
)

func TestAttachAndOpen(t *testing.T) {
	path := testutil.TempFile(t, "input.csv", []byte("a,b\n1,2\n"))
	p := New(nil, nil)
	assert.Equal(t, 0, p.Count())

	require.NoError(t, p.Attach(path))
	assert.Equal(t, 1, p.Count())
	f, ok := p.Active()
	require.True(t, ok)
	assert.Equal(t, "input.csv", f.Name)
	assert.Equal(t, int64(8), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))

	p.Clear()
	assert.Equal(t, 0, p.Count())
	_, ok = p.Active()
	assert.False(t, ok)
}

func TestAttachReplaces(t *testing.T) {
	p := New(nil, nil)
	require.NoError(t, p.Attach(testutil.TempFile(t, "one.txt", []byte("1"))))
	require.NoError(t, p.Attach(testutil.TempFile(t, "two.txt", []byte("22"))))
	assert.Equal(t, 1, p.Count())
	f, _ := p.Active()
	assert.Equal(t, "two.txt", f.Name)
}

func TestAttachRejectsMissingAndDirs(t *testing.T) {
	p := New(nil, nil)
	assert.Error(t, p.Attach("/definitely/not/here.txt"))
	assert.Error(t, p.Attach(t.TempDir()))
	assert.Equal(t, 0, p.Count())
}

func TestBrowseCallback(t *testing.T) {
	calls := 0
	p := New(nil, func() { calls++ })
	p.Browse()
	assert.Equal(t, 1, calls)
	New(nil, nil).Browse()
}

func TestActiveReportsCurrentSize(t *testing.T) {
	path := testutil.TempFile(t, "grow.bin", []byte("x"))
	p := New(nil, nil)
	require.NoError(t, p.Attach(path))
	require.NoError(t, os.WriteFile(path, testutil.Bytes(10*1024*1024), 0o644))

	f, ok := p.Active()
	require.True(t, ok)
	assert.Equal(t, int64(10*1024*1024), f.Size)
}

func TestOpenRejectsFileChangedAfterActive(t *testing.T) {
	path := testutil.TempFile(t, "grow.bin", []byte("x"))
	p := New(nil, nil)
	require.NoError(t, p.Attach(path))
	f, _ := p.Active()
	require.Equal(t, int64(1), f.Size)

	require.NoError(t, os.WriteFile(path, testutil.Bytes(4096), 0o644))
	_, err := f.Open()
	assert.ErrorIs(t, err, ErrChanged)
}

func TestActiveAfterFileRemoved(t *testing.T) {
	path := testutil.TempFile(t, "gone.txt", []byte("x"))
	p := New(nil, nil)
	require.NoError(t, p.Attach(path))
	require.NoError(t, os.Remove(path))

	f, ok := p.Active()
	require.True(t, ok)
	_, err := f.Open()
	assert.Error(t, err)
}
