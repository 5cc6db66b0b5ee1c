package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rota-go/internal/config"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	dir := t.TempDir()
	k := NewKeyring(filepath.Join(dir, "keys", "rota.pub"), filepath.Join(dir, "keys", "rota.key"))
	if err := k.Generate("correct horse"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return k
}

func TestKeyring(t *testing.T) {
	k := newTestKeyring(t)

	t.Run("seal and unseal", func(t *testing.T) {
		var sealed bytes.Buffer
		if err := k.Seal(bytes.NewReader([]byte("rota data")), &sealed); err != nil {
			t.Fatalf("Seal() error = %v", err)
		}
		if bytes.Contains(sealed.Bytes(), []byte("rota data")) {
			t.Error("sealed output contains plaintext")
		}

		u, err := k.Unlock("correct horse")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		var plain bytes.Buffer
		if err := u.Unseal(&sealed, &plain); err != nil {
			t.Fatalf("Unseal() error = %v", err)
		}
		if plain.String() != "rota data" {
			t.Errorf("Unseal() = %q, want %q", plain.String(), "rota data")
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		if _, err := k.Unlock("battery staple"); err == nil {
			t.Error("Unlock() expected error for wrong passphrase")
		}
	})

	t.Run("refuses to replace keys", func(t *testing.T) {
		if !k.Exists() {
			t.Fatal("Exists() = false, want true")
		}
		if err := k.Generate("other"); err == nil {
			t.Error("Generate() expected error when keys exist")
		}
	})

	t.Run("private key is not readable by others", func(t *testing.T) {
		info, err := os.Stat(k.privateKeyPath)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("private key mode = %o, want 600", perm)
		}
	})
}

func TestDirSink(t *testing.T) {
	ctx := context.Background()

	t.Run("put, get and list", func(t *testing.T) {
		sink, err := NewDirSink(filepath.Join(t.TempDir(), "backups"))
		if err != nil {
			t.Fatalf("NewDirSink() error = %v", err)
		}

		for _, name := range []string{"b.db.age", "a.db.age"} {
			if err := sink.Put(ctx, name, bytes.NewReader([]byte(name))); err != nil {
				t.Fatalf("Put(%s) error = %v", name, err)
			}
		}

		var buf bytes.Buffer
		if err := sink.Get(ctx, "a.db.age", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "a.db.age" {
			t.Errorf("Get() = %q, want %q", buf.String(), "a.db.age")
		}

		names, err := sink.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(names) != 2 || names[0] != "a.db.age" || names[1] != "b.db.age" {
			t.Errorf("List() = %v, want [a.db.age b.db.age]", names)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		sink, err := NewDirSink(t.TempDir())
		if err != nil {
			t.Fatalf("NewDirSink() error = %v", err)
		}
		if err := sink.Get(ctx, "missing.db.age", &bytes.Buffer{}); !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("Get() error = %v, want ErrSnapshotNotFound", err)
		}
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		sink, err := NewDirSink(t.TempDir())
		if err != nil {
			t.Fatalf("NewDirSink() error = %v", err)
		}
		if err := sink.Put(ctx, "../escape", bytes.NewReader(nil)); err == nil {
			t.Error("Put() expected error for path traversal")
		}
	})
}

func TestNewSinkFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("filesystem", func(t *testing.T) {
		sink, err := NewSinkFromConfig(ctx, config.BackupConfig{Type: "filesystem", Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("NewSinkFromConfig() error = %v", err)
		}
		if _, ok := sink.(*DirSink); !ok {
			t.Errorf("NewSinkFromConfig() = %T, want *DirSink", sink)
		}
	})

	t.Run("filesystem without dir", func(t *testing.T) {
		if _, err := NewSinkFromConfig(ctx, config.BackupConfig{Type: "filesystem"}); err == nil {
			t.Error("NewSinkFromConfig() expected error for missing dir")
		}
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		if _, err := NewSinkFromConfig(ctx, config.BackupConfig{Type: "s3"}); err == nil {
			t.Error("NewSinkFromConfig() expected error for missing bucket")
		}
	})

	t.Run("s3 with static credentials", func(t *testing.T) {
		sink, err := NewSinkFromConfig(ctx, config.BackupConfig{
			Type:              "s3",
			S3Bucket:          "rota-backups",
			S3Prefix:          "acme/",
			S3Region:          "us-east-1",
			S3Endpoint:        "http://localhost:9000",
			S3AccessKeyID:     "key",
			S3SecretAccessKey: "secret",
		})
		if err != nil {
			t.Fatalf("NewSinkFromConfig() error = %v", err)
		}
		s3Sink, ok := sink.(*S3Sink)
		if !ok {
			t.Fatalf("NewSinkFromConfig() = %T, want *S3Sink", sink)
		}
		if got := s3Sink.key("x.db.age"); got != "acme/x.db.age" {
			t.Errorf("key() = %q, want %q", got, "acme/x.db.age")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewSinkFromConfig(ctx, config.BackupConfig{Type: "tape"}); err == nil {
			t.Error("NewSinkFromConfig() expected error for unknown type")
		}
	})
}

// fileSnapshotter copies fixed bytes as the "database".
type fileSnapshotter struct {
	data []byte
}

func (f fileSnapshotter) SnapshotTo(_ context.Context, path string) error {
	return os.WriteFile(path, f.data, 0600)
}

func TestRunAndRestore(t *testing.T) {
	ctx := context.Background()
	k := newTestKeyring(t)
	sink, err := NewDirSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirSink() error = %v", err)
	}
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	for i, data := range []string{"first", "second"} {
		if _, err := Run(ctx, fileSnapshotter{data: []byte(data)}, k, sink, "acme", now.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	name, err := Latest(ctx, sink, "acme")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if want := "acme-20240115T100000Z.db.age"; name != want {
		t.Errorf("Latest() = %q, want %q", name, want)
	}

	u, err := k.Unlock("correct horse")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "db", "acme.db")
	if err := Restore(ctx, sink, u, name, dest); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("restored = %q, want %q", got, "second")
	}

	if err := Restore(ctx, sink, u, name, dest); err == nil {
		t.Error("Restore() expected error for existing destination")
	}

	if _, err := Latest(ctx, sink, "other"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Latest() error = %v, want ErrSnapshotNotFound", err)
	}
}
