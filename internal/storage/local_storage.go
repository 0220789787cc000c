package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid path")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// storedExtensions are the extensions SaveFile can give a stored file.
var storedExtensions = map[string]bool{
	"":      true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type LocalStorage struct {
	basePath string
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// SaveFile writes r under a fresh uuid name and returns that name. The
// extension follows the content type, then the original filename, and is
// dropped when it is not an image extension.
func (ls *LocalStorage) SaveFile(r io.Reader, info FileInfo) (string, error) {
	ext, ok := extensions[info.ContentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(info.Filename))
		if !storedExtensions[ext] {
			ext = ""
		}
	}

	filename := uuid.New().String() + ext
	fullPath := filepath.Join(ls.basePath, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

func (ls *LocalStorage) OpenFile(name string) (io.ReadSeekCloser, error) {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (ls *LocalStorage) DeleteFile(name string) error {
	fullPath, err := ls.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Purge removes uploads left in the storage directory by a previous run
// that did not shut down cleanly. Only names SaveFile could have produced
// are touched. It returns how many were removed.
func (ls *LocalStorage) Purge() (int, error) {
	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read storage directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isStoredName(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(ls.basePath, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to delete file: %w", err)
		}
		removed++
	}
	return removed, nil
}

func isStoredName(name string) bool {
	ext := filepath.Ext(name)
	if !storedExtensions[ext] {
		return false
	}
	base := strings.TrimSuffix(name, ext)
	id, err := uuid.Parse(base)
	return err == nil && id.String() == base
}

func (ls *LocalStorage) resolve(name string) (string, error) {
	cleanPath := filepath.Clean(name)
	if strings.Contains(cleanPath, "..") || filepath.IsAbs(cleanPath) || strings.ContainsRune(cleanPath, filepath.Separator) {
		return "", ErrInvalidPath
	}
	return filepath.Join(ls.basePath, cleanPath), nil
}
