package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qmva/internal/archive"
)

func TestStore_PutGet(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Put(ctx, "VA003.pdf", strings.NewReader("first"), archive.ContentTypePDF)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("first"))
	assert.Equal(t, hex.EncodeToString(sum[:]), info.ETag)
	assert.Equal(t, int64(5), info.Size)

	_, err = s.Put(ctx, "VA003.pdf", strings.NewReader("second"), archive.ContentTypePDF)
	require.NoError(t, err, "put overwrites")

	got, rc, err := s.Get(ctx, "VA003.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, int64(6), got.Size)
	assert.Equal(t, archive.ContentTypePDF, got.ContentType)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_GetMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, _, err = s.Get(context.Background(), "VA404.pdf")
	assert.True(t, errors.Is(err, archive.ErrNotFound))
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "   ", "../x.pdf", "/etc/passwd", "a/../../b"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), "")
		assert.Error(t, err, "key %q", key)
	}
}

func TestStore_List(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"VA010.pdf", "VA002.pdf", "sub/VA001.pdf"} {
		_, err := s.Put(ctx, key, strings.NewReader(key), "")
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tmp-123"), []byte("partial"), 0o644))

	list, err := s.List(ctx)
	require.NoError(t, err)
	keys := make([]string, 0, len(list))
	for _, info := range list {
		keys = append(keys, info.Key)
	}
	assert.Equal(t, []string{"VA002.pdf", "VA010.pdf", "sub/VA001.pdf"}, keys)
}

func TestNew_EmptyRoot(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestStore_CanceledContext(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "VA001.pdf", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}
