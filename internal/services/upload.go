package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxUploadBytes caps a single upload at 50 MiB; checked before anything
// is written to disk.
const MaxUploadBytes int64 = 50 << 20

// GuestUploader is the placeholder name the client sends when nobody is
// logged in; uploads under it are rejected.
const GuestUploader = "ゲスト"

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"text/plain":      true,
}

// AllowedFileType reports whether the MIME type is on the upload
// allow-list. Parameters like "; charset=utf-8" are ignored.
func AllowedFileType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	return allowedFileTypes[mediaType]
}

// DecodeFileName corrects file names whose UTF-8 bytes were misread as
// latin-1 by the upload transport. Japanese names arrive as runes in the
// 0x80-0xFF range; reassembling those bytes yields the original UTF-8.
func DecodeFileName(name string) string {
	buf := make([]byte, 0, len(name))
	for _, r := range name {
		if r > 0xFF {
			return name
		}
		buf = append(buf, byte(r))
	}
	if len(buf) != len(name) && utf8.Valid(buf) {
		return string(buf)
	}
	return name
}

// StoredFileName builds "{timestamp}_{base}{ext}" so stored files cannot
// collide while staying recognizable.
func StoredFileName(original string, now time.Time) string {
	base := filepath.Base(DecodeFileName(original))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.TrimSpace(stem) == "" {
		stem = "file"
	}
	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), stem, ext)
}

// SaveUpload streams the upload into the uploads directory and returns the
// number of bytes written. On any error the partial file is removed.
func SaveUpload(dir, storedName string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	target := filepath.Join(dir, storedName)
	file, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(file, src)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return 0, err
	}
	return size, nil
}

// ResolveStoredFile maps a stored reference like "/uploads/xxx.pdf" (or a
// bare file name) onto the uploads directory. Only the base name is used,
// so references cannot escape the directory.
func ResolveStoredFile(dir, ref string) (string, error) {
	name := filepath.Base(strings.TrimSpace(ref))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrBadRequest("filePathが必要です")
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound("ファイルが存在しません")
	}
	return path, nil
}

// RemoveStoredFile deletes the binary behind a material record.
// Best-effort: a missing file is not an error.
func RemoveStoredFile(dir, ref string) error {
	name := filepath.Base(strings.TrimSpace(ref))
	if name == "" || name == "." {
		return nil
	}
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeriveTags seeds a material's tag list from its subject.
func DeriveTags(subject string) []string {
	value := strings.TrimSpace(subject)
	if value == "" {
		return []string{}
	}
	return []string{value}
}
