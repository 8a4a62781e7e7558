package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mojibake renders a UTF-8 name the way a latin-1 transport misreads it:
// every byte becomes its own rune.
func mojibake(name string) string {
	runes := make([]rune, 0, len(name))
	for _, b := range []byte(name) {
		runes = append(runes, rune(b))
	}
	return string(runes)
}

func TestDecodeFileName_RepairsLatin1Mojibake(t *testing.T) {
	original := "数学ノート.pdf"
	assert.Equal(t, original, DecodeFileName(mojibake(original)))
}

func TestDecodeFileName_KeepsPlainASCII(t *testing.T) {
	assert.Equal(t, "notes.pdf", DecodeFileName("notes.pdf"))
}

func TestDecodeFileName_KeepsAlreadyDecodedUTF8(t *testing.T) {
	assert.Equal(t, "数学.pdf", DecodeFileName("数学.pdf"))
}

func TestAllowedFileType(t *testing.T) {
	assert.True(t, AllowedFileType("application/pdf"))
	assert.True(t, AllowedFileType("APPLICATION/PDF"))
	assert.True(t, AllowedFileType("text/plain; charset=utf-8"))
	assert.True(t, AllowedFileType("image/png"))
	assert.False(t, AllowedFileType("application/octet-stream"))
	assert.False(t, AllowedFileType("application/x-msdownload"))
	assert.False(t, AllowedFileType(""))
}

func TestStoredFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000).UTC()

	assert.Equal(t, "1700000000000_notes.pdf", StoredFileName("notes.pdf", now))
	assert.Equal(t, "1700000000000_file.pdf", StoredFileName(".pdf", now))
	// Only the base name survives.
	assert.Equal(t, "1700000000000_b.pdf", StoredFileName("a/b.pdf", now))
}

func TestSaveUpload_WritesAndReportsSize(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello upload")

	size, err := SaveUpload(dir, "x.txt", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)

	written, err := os.ReadFile(filepath.Join(dir, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestResolveStoredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))

	path, err := ResolveStoredFile(dir, "/uploads/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), path)

	// Traversal segments collapse to the base name.
	path, err = ResolveStoredFile(dir, "../../a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), path)

	_, err = ResolveStoredFile(dir, "missing.pdf")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 404, svcErr.Status)
}

func TestRemoveStoredFile_MissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, RemoveStoredFile(dir, "/uploads/never-existed.pdf"))
}

func TestDeriveTags(t *testing.T) {
	assert.Equal(t, []string{"数学"}, DeriveTags("数学"))
	assert.Empty(t, DeriveTags("  "))
}
