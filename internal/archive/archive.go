// Package archive keeps copies of rendered procedure documents. The fs and
// s3 subpackages provide the drivers.
package archive

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Driver names a storage implementation.
type Driver string

// Known drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// ContentTypePDF is the content type every archived document carries.
const ContentTypePDF = "application/pdf"

// ErrNotFound is returned by Get when the key holds no document.
var ErrNotFound = errors.New("archived document not found")

// Info describes one archived object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the archive surface used by the service layer. Put overwrites an
// existing key; a rendered document is always the latest revision.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	List(ctx context.Context) ([]Info, error)
}

// DocumentKey returns the archive key for a procedure document.
func DocumentKey(id string) string {
	return types.NormalizeID(id) + ".pdf"
}
