package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// MaxDocumentSize is the upload limit for a single document.
const MaxDocumentSize = 10 << 20

var allowedDocumentExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// DocumentStore keeps document blobs. Save returns the reference persisted in
// documents.file_path; Delete accepts that same reference.
type DocumentStore interface {
	Name() string
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ValidateDocument checks the upload limits.
func ValidateDocument(filename string, size int64) error {
	if size > MaxDocumentSize {
		return fmt.Errorf("%w: file too large: %d bytes (max %d bytes)", ErrInvalidInput, size, MaxDocumentSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocumentExts[ext] {
		return fmt.Errorf("%w: file type %q not allowed, use pdf, doc, docx, jpg, jpeg or png", ErrInvalidInput, ext)
	}
	return nil
}

// NewDocumentKey returns a unique blob key that keeps the original extension.
func NewDocumentKey(filename string) string {
	return "document-" + ulid.Make().String() + strings.ToLower(filepath.Ext(filename))
}

// LocalStore writes documents under a directory that the HTTP server also
// serves at urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	name := path.Base(key)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create document file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write document file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + name, nil
}

// Delete ignores blobs that are already gone.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" {
		return fmt.Errorf("%w: bad document reference %q", ErrInvalidInput, ref)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
