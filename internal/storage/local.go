package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// LocalStorage implements ObjectStorage on the local filesystem. It is
// the default backend for development and tests.
type LocalStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewLocalStorage creates a filesystem store rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, colerr.NewStorageError(colerr.CodeUploadFailed,
			"creating storage root", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Put writes data at objectPath, creating parent directories as needed.
func (l *LocalStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	dest := l.fullPath(objectPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return colerr.NewStorageError(colerr.CodeUploadFailed,
			"creating parent directory for "+objectPath, err)
	}
	// Write to a temp file first so readers never observe a partial
	// object.
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return colerr.NewStorageError(colerr.CodeUploadFailed,
			"writing "+objectPath, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return colerr.NewStorageError(colerr.CodeUploadFailed,
			"committing "+objectPath, err)
	}
	return nil
}

// Get reads the object at objectPath.
func (l *LocalStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := os.ReadFile(l.fullPath(objectPath))
	if os.IsNotExist(err) {
		return nil, colerr.NewStorageError(colerr.CodeObjectNotFound,
			"object "+objectPath+" does not exist", err)
	}
	if err != nil {
		return nil, colerr.NewStorageError(colerr.CodeDownloadFailed,
			"reading "+objectPath, err)
	}
	return data, nil
}

// Delete removes the object at objectPath.
func (l *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err := os.Remove(l.fullPath(objectPath))
	if os.IsNotExist(err) {
		return colerr.NewStorageError(colerr.CodeObjectNotFound,
			"object "+objectPath+" does not exist", err)
	}
	if err != nil {
		return colerr.NewStorageError(colerr.CodeUploadFailed,
			"deleting "+objectPath, err)
	}
	return nil
}

// Exists reports whether an object is present at objectPath.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, err := os.Stat(l.fullPath(objectPath))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, colerr.NewStorageError(colerr.CodeDownloadFailed,
			"checking "+objectPath, err)
	}
	return true, nil
}

// List returns all object paths under the given prefix, sorted.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []string
	err := filepath.Walk(l.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || strings.HasSuffix(path, ".tmp") {
			return err
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, colerr.NewStorageError(colerr.CodeDownloadFailed,
			"listing "+prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}
