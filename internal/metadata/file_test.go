package metadata_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"buildflow/internal/buildflow"
	"buildflow/internal/metadata"
)

func TestFileStore(t *testing.T) {
	t.Run("missing file means no record", func(t *testing.T) {
		store := metadata.NewFileStore(filepath.Join(t.TempDir(), "lastBackup.json"))

		m, err := store.Get()
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if m != nil {
			t.Errorf("Get() = %+v, want nil", m)
		}
	})

	t.Run("round-trips the record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lastBackup.json")
		store := metadata.NewFileStore(path)

		want := &buildflow.BackupMetadata{
			Location:  "backups/backup-2024-01-15.json",
			Date:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			ItemCount: 7,
		}
		if err := store.Set(want); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := store.Get()
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Location != want.Location || got.ItemCount != want.ItemCount {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
		if !got.Date.Equal(want.Date) {
			t.Errorf("date = %v, want %v", got.Date, want.Date)
		}
	})

	t.Run("set overwrites the previous record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lastBackup.json")
		store := metadata.NewFileStore(path)

		first := &buildflow.BackupMetadata{Location: "backups/a.json", Date: time.Now().UTC(), ItemCount: 1}
		second := &buildflow.BackupMetadata{Location: "backups/b.json", Date: time.Now().UTC(), ItemCount: 2}
		if err := store.Set(first); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set(second); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := store.Get()
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Location != "backups/b.json" {
			t.Errorf("location = %q, want %q", got.Location, "backups/b.json")
		}
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lastBackup.json")
		if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
			t.Fatalf("writing corrupt file: %v", err)
		}

		store := metadata.NewFileStore(path)
		if _, err := store.Get(); err == nil {
			t.Error("Get() expected error for corrupt record")
		}
	})

	t.Run("set creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "lastBackup.json")
		store := metadata.NewFileStore(path)

		m := &buildflow.BackupMetadata{Location: "backups/a.json", Date: time.Now().UTC(), ItemCount: 1}
		if err := store.Set(m); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("record file missing: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		store := metadata.NewMemoryStore()
		m, err := store.Get()
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if m != nil {
			t.Errorf("Get() = %+v, want nil", m)
		}
	})

	t.Run("returns copies, not shared pointers", func(t *testing.T) {
		store := metadata.NewMemoryStore()
		m := &buildflow.BackupMetadata{Location: "backups/a.json", ItemCount: 1}
		if err := store.Set(m); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, _ := store.Get()
		got.Location = "mutated"

		again, _ := store.Get()
		if again.Location != "backups/a.json" {
			t.Errorf("location = %q, want %q", again.Location, "backups/a.json")
		}
	})
}
