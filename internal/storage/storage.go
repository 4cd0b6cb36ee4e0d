package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("invalid file type, allowed: .jpg, .jpeg, .png, .heic")

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
}

// FileStore writes uploads below a root directory and hands out paths
// relative to it. URLs are built by prefixing the relative path.
type FileStore struct {
	root      string
	urlPrefix string
}

func NewFileStore(root, urlPrefix string) *FileStore {
	return &FileStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *FileStore) Root() string {
	return s.root
}

// ImageExt returns the lowercased extension of filename if it is allowed.
func ImageExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// AnalysisImageName is the relative path for a user's analysis upload.
func AnalysisImageName(userID uint, ext string) string {
	return path.Join("analyses", fmt.Sprintf("user_%d_analysis_%s%s", userID, uuid.NewString()[:8], ext))
}

// AvatarName is the relative path for a user's avatar upload.
func AvatarName(userID uint, ext string) string {
	return path.Join("avatars", fmt.Sprintf("user_%d_%s%s", userID, uuid.NewString()[:8], ext))
}

// AfterImageName is the relative path for a decoded ML "after" image.
func AfterImageName(ext string) string {
	return path.Join("after", uuid.NewString()+"."+strings.TrimPrefix(ext, "."))
}

// Save writes r to rel under the root, creating directories as needed.
func (s *FileStore) Save(rel string, r io.Reader) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

func (s *FileStore) SaveBytes(rel string, data []byte) error {
	return s.Save(rel, bytes.NewReader(data))
}

// Remove deletes rel; a missing file is not an error.
func (s *FileStore) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL for a stored relative path.
func (s *FileStore) URL(rel string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

func (s *FileStore) resolve(rel string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(rel))
	if clean == string(filepath.Separator) {
		return "", errors.New("empty upload path")
	}
	return filepath.Join(s.root, clean), nil
}
