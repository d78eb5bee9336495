package proof

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps objects on the local filesystem and serves them under URLPrefix.
type FileStore struct {
	BaseDir   string
	URLPrefix string
	// PublicBaseURL, when set, makes resolved URLs absolute.
	PublicBaseURL string
}

// NewFileStore creates a filesystem archive rooted at baseDir.
func NewFileStore(baseDir, urlPrefix, publicBaseURL string) *FileStore {
	if strings.TrimSpace(urlPrefix) == "" {
		urlPrefix = "/uploads"
	}
	return &FileStore{
		BaseDir:       baseDir,
		URLPrefix:     "/" + strings.Trim(urlPrefix, "/"),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

func (l *FileStore) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", err
	}

	// A failed copy never leaves a partial object under key.
	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return key, nil
}

func (l *FileStore) ResolveURL(_ context.Context, key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(l.BaseDir, filepath.FromSlash(key))); err != nil {
		return "", fmt.Errorf("resolve %s: %w", key, err)
	}
	return joinURL(l.PublicBaseURL+l.URLPrefix, key), nil
}

func (l *FileStore) List(ctx context.Context, prefix string) ([]Object, error) {
	root := l.BaseDir
	prefix = strings.Trim(prefix, "/")
	var objects []Object
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix+"/") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: key, Size: info.Size(), ModifiedAt: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return objects, nil
}

func (l *FileStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.BaseDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *FileStore) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
