package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/qmva/internal/archive"
	archivefs "github.com/mesh-intelligence/qmva/internal/archive/fs"
	archives3 "github.com/mesh-intelligence/qmva/internal/archive/s3"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// DefaultArchiveDir is the fs archive directory below the data directory.
const DefaultArchiveDir = "dokumente"

// OpenArchive builds the archive selected by cfg.Archive. It returns nil
// when archiving is disabled.
func OpenArchive(ctx context.Context, cfg types.Config) (archive.Store, error) {
	switch cfg.Archive.Driver {
	case "", types.ArchiveNone:
		return nil, nil
	case types.ArchiveFS:
		dir := cfg.Archive.Dir
		if dir == "" {
			dir = filepath.Join(cfg.DataDir, DefaultArchiveDir)
		}
		st, err := archivefs.New(dir)
		if err != nil {
			return nil, err
		}
		return st, nil
	case types.ArchiveS3:
		st, err := archives3.New(ctx, archives3.Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Region:    cfg.Archive.S3.Region,
			Endpoint:  cfg.Archive.S3.Endpoint,
			PathStyle: cfg.Archive.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrArchiveUnknown, cfg.Archive.Driver)
	}
}
