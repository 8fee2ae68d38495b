package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// LocalStore keeps files under a root directory of an afero filesystem.
type LocalStore struct {
	fs   afero.Fs
	root string
}

func NewLocalStore(fs afero.Fs, root string) (*LocalStore, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{fs: fs, root: root}, nil
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Save copies r to a new file and reports the bytes written. A partial file
// is removed on error.
func (l *LocalStore) Save(_ context.Context, originalName string, r io.Reader) (Object, error) {
	key := objectKey(originalName)
	p := l.path(key)
	if err := l.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, err
	}

	f, err := l.fs.Create(p)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = l.fs.Remove(p)
		return Object{}, fmt.Errorf("failed to write file: %w", err)
	}

	logrus.Infof("File %s stored locally (%d bytes)", key, n)
	return Object{Key: key, Size: n, ContentType: contentType(key)}, nil
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := l.fs.Open(l.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete ignores files that are already gone.
func (l *LocalStore) Delete(_ context.Context, key string) error {
	err := l.fs.Remove(l.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
