package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	CategoryProfilePhotos   = "profile_photos"
	CategoryPostAttachments = "post_attachments"
	CategoryFileSubmissions = "file_submissions"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrInvalidCategory = errors.New("unknown upload category")
	ErrInvalidPath     = errors.New("invalid upload path")
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileStore saves uploads and returns a path relative to the uploads root
type FileStore interface {
	Save(ctx context.Context, category, originalName string, src io.Reader) (string, error)
	Remove(ctx context.Context, relPath string) error
}

// LocalStore keeps uploads on the local filesystem under Dir
type LocalStore struct {
	Dir     string
	MaxSize int64
	now     func() time.Time
}

func NewLocalStore(dir string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &LocalStore{Dir: dir, MaxSize: maxSize, now: time.Now}, nil
}

// Save writes src to <category>/<unixnano>_<sanitized name>. A partial file is removed on error.
func (s *LocalStore) Save(ctx context.Context, category, originalName string, src io.Reader) (string, error) {
	if !validCategory(category) {
		return "", ErrInvalidCategory
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.Dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", s.now().UnixNano(), SanitizeFilename(originalName))
	full := filepath.Join(dir, name)

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}

	reader := src
	if s.MaxSize > 0 {
		// one extra byte tells an exact fit from an overflow
		reader = io.LimitReader(src, s.MaxSize+1)
	}
	written, err := io.Copy(dst, reader)
	closeErr := dst.Close()

	switch {
	case err != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write upload: %w", err)
	case closeErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write upload: %w", closeErr)
	case s.MaxSize > 0 && written > s.MaxSize:
		_ = os.Remove(full)
		return "", ErrFileTooLarge
	}

	return path.Join(category, name), nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *LocalStore) Remove(_ context.Context, relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// resolve maps a stored relative path back under Dir, refusing escapes
func (s *LocalStore) resolve(relPath string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(relPath))
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// SanitizeFilename keeps the base name and replaces anything outside [a-zA-Z0-9._-]
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	if len(name) > 100 {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:100-len(ext)] + ext
	}
	return name
}

func validCategory(category string) bool {
	switch category {
	case CategoryProfilePhotos, CategoryPostAttachments, CategoryFileSubmissions:
		return true
	}
	return false
}
