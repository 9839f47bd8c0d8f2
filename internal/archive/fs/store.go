// Package fs archives documents as files below a root directory.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/qmva/internal/archive"
)

// Store implements archive.Store on the local filesystem. Keys map to
// relative paths under root. Content type is not persisted; every object
// reports archive.ContentTypePDF.
type Store struct {
	root string
}

var _ archive.Store = (*Store)(nil)

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive root: %w", err)
	}
	return &Store{root: root}, nil
}

// Driver reports archive.DriverFilesystem.
func (s *Store) Driver() archive.Driver { return archive.DriverFilesystem }

// sanitizeKey keeps keys inside root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Put streams r into a temp file next to the target and renames it into
// place. The ETag is the hex SHA-256 of the content.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (archive.Info, error) {
	if err := ctx.Err(); err != nil {
		return archive.Info{}, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return archive.Info{}, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return archive.Info{}, err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return archive.Info{}, err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return archive.Info{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return archive.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return archive.Info{}, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return archive.Info{}, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return archive.Info{}, err
	}
	return archive.Info{
		Key:          key,
		Size:         size,
		ContentType:  archive.ContentTypePDF,
		ETag:         hex.EncodeToString(h.Sum(nil)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

// Get opens the stored file. The caller closes the reader.
func (s *Store) Get(ctx context.Context, key string) (archive.Info, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return archive.Info{}, nil, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return archive.Info{}, nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return archive.Info{}, nil, fmt.Errorf("%s: %w", key, archive.ErrNotFound)
	}
	if err != nil {
		return archive.Info{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return archive.Info{}, nil, err
	}
	return infoFor(key, st), f, nil
}

// List walks root and returns every object sorted by key. Temp files from
// interrupted writes are skipped.
func (s *Store) List(ctx context.Context) ([]archive.Info, error) {
	var infos []archive.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, infoFor(filepath.ToSlash(rel), st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func infoFor(key string, st os.FileInfo) archive.Info {
	return archive.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  archive.ContentTypePDF,
		LastModified: st.ModTime().UTC(),
	}
}
