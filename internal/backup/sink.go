package backup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rota-go/internal/config"
)

// ErrSnapshotNotFound is returned by Sink.Get for an unknown snapshot name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Sink stores sealed snapshots by name.
type Sink interface {
	// Put stores the content of r under name, replacing any previous object.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get writes the named snapshot to w.
	Get(ctx context.Context, name string, w io.Writer) error

	// List returns the stored snapshot names in ascending order.
	List(ctx context.Context) ([]string, error)
}

// NewSinkFromConfig creates a Sink based on the backup config type.
func NewSinkFromConfig(ctx context.Context, cfg config.BackupConfig) (Sink, error) {
	switch cfg.Type {
	case "filesystem", "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir required for filesystem backups")
		}
		return NewDirSink(cfg.Dir)
	case "s3":
		return NewS3Sink(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backup type: %q", cfg.Type)
	}
}
