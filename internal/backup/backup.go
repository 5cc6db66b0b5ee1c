package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SnapshotSuffix marks sealed snapshot objects.
const SnapshotSuffix = ".db.age"

// Snapshotter writes a consistent copy of a live database to a new file.
type Snapshotter interface {
	SnapshotTo(ctx context.Context, path string) error
}

// SnapshotName names a tenant snapshot taken at t, so that names sort by time.
func SnapshotName(tenantID string, t time.Time) string {
	return tenantID + "-" + t.UTC().Format("20060102T150405Z") + SnapshotSuffix
}

// Run takes a snapshot of db, seals it with the keyring and stores it in sink.
// It returns the stored snapshot name.
func Run(ctx context.Context, db Snapshotter, keys *Keyring, sink Sink, tenantID string, now time.Time) (string, error) {
	tmpDir, err := os.MkdirTemp("", "rota-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "snapshot.db")
	if err := db.SnapshotTo(ctx, plainPath); err != nil {
		return "", err
	}

	plain, err := os.Open(plainPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer plain.Close()

	sealedPath := filepath.Join(tmpDir, "snapshot.db.age")
	sealed, err := os.Create(sealedPath)
	if err != nil {
		return "", fmt.Errorf("creating sealed snapshot: %w", err)
	}
	defer sealed.Close()

	if err := keys.Seal(plain, sealed); err != nil {
		return "", fmt.Errorf("sealing snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding sealed snapshot: %w", err)
	}

	name := SnapshotName(tenantID, now)
	if err := sink.Put(ctx, name, sealed); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}
	return name, nil
}

// Latest returns the newest snapshot name for tenantID, or ErrSnapshotNotFound.
func Latest(ctx context.Context, sink Sink, tenantID string) (string, error) {
	names, err := sink.List(ctx)
	if err != nil {
		return "", err
	}
	latest := ""
	for _, n := range names {
		if strings.HasPrefix(n, tenantID+"-") && strings.HasSuffix(n, SnapshotSuffix) && n > latest {
			latest = n
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no snapshots for tenant %s: %w", tenantID, ErrSnapshotNotFound)
	}
	return latest, nil
}

// Restore fetches the named snapshot, decrypts it and writes the database to
// destPath. An existing file at destPath is never overwritten.
func Restore(ctx context.Context, sink Sink, u *Unsealer, name, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing database at %s", destPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", destPath, err)
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	sealed, err := os.CreateTemp(dir, ".restore-*.age")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := sink.Get(ctx, name, sealed); err != nil {
		return err
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}

	plain, err := os.CreateTemp(dir, ".restore-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	plainPath := plain.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(plainPath)
		}
	}()

	if err := u.Unseal(sealed, plain); err != nil {
		plain.Close()
		return fmt.Errorf("unsealing snapshot: %w", err)
	}
	if err := plain.Close(); err != nil {
		return fmt.Errorf("closing restored database: %w", err)
	}
	if err := os.Rename(plainPath, destPath); err != nil {
		return fmt.Errorf("moving restored database into place: %w", err)
	}

	success = true
	return nil
}
