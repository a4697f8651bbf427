package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/log"
)

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	up, err := NewUploads(dir, log.NewNop())
	require.NoError(t, err)

	dest, err := up.SaveUpload("notes.md", []byte("# hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.md"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(data))
}

func TestSaveUploadStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	up, err := NewUploads(dir, log.NewNop())
	require.NoError(t, err)

	dest, err := up.SaveUpload("../../escape/evil.txt", []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.txt"), dest)
}

func TestSaveUploadRejectsInvalid(t *testing.T) {
	up, err := NewUploads(t.TempDir(), log.NewNop())
	require.NoError(t, err)

	_, err = up.SaveUpload("tool.exe", []byte("x"))
	assert.ErrorIs(t, err, filter.ErrUploadExtension)

	_, err = up.SaveUpload("a.txt", []byte{'M', 'Z', 0})
	assert.ErrorIs(t, err, filter.ErrUploadBinary)

	_, err = up.SaveUpload("a.txt", nil)
	assert.ErrorIs(t, err, filter.ErrUploadEmptyBody)
}

func TestSaveUploadOverwrites(t *testing.T) {
	up, err := NewUploads(t.TempDir(), log.NewNop())
	require.NoError(t, err)

	_, err = up.SaveUpload("doc.txt", []byte("v1"))
	require.NoError(t, err)
	dest, err := up.SaveUpload("doc.txt", []byte("v2"))
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
