package transport_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"buildflow/internal/buildflow"
	"buildflow/internal/transport"
)

func TestFilesystemTransport(t *testing.T) {
	t.Run("uploads land under the root as files", func(t *testing.T) {
		root := t.TempDir()
		tr, err := transport.NewFilesystemTransport(root)
		if err != nil {
			t.Fatalf("NewFilesystemTransport() error = %v", err)
		}

		target, err := tr.RequestUploadTarget(context.Background(), "backup-2024-01-15.json", "application/json", "backups")
		if err != nil {
			t.Fatalf("RequestUploadTarget() error = %v", err)
		}
		if target.PublicRef != "backups/backup-2024-01-15.json" {
			t.Errorf("public ref = %q, want %q", target.PublicRef, "backups/backup-2024-01-15.json")
		}

		data := []byte(`{"version": "1.0.0"}`)
		if err := tr.PutBytes(context.Background(), target.UploadDestination, data, "application/json"); err != nil {
			t.Fatalf("PutBytes() error = %v", err)
		}

		onDisk, err := os.ReadFile(filepath.Join(root, "backups", "backup-2024-01-15.json"))
		if err != nil {
			t.Fatalf("reading uploaded file: %v", err)
		}
		if string(onDisk) != string(data) {
			t.Errorf("file content = %s, want %s", onDisk, data)
		}
	})

	t.Run("downloads round-trip through the public ref", func(t *testing.T) {
		tr, err := transport.NewFilesystemTransport(t.TempDir())
		if err != nil {
			t.Fatalf("NewFilesystemTransport() error = %v", err)
		}

		target, err := tr.RequestUploadTarget(context.Background(), "b.json", "application/json", "backups")
		if err != nil {
			t.Fatalf("RequestUploadTarget() error = %v", err)
		}
		if err := tr.PutBytes(context.Background(), target.UploadDestination, []byte("payload"), "application/json"); err != nil {
			t.Fatalf("PutBytes() error = %v", err)
		}

		ref, err := tr.RequestDownloadTarget(context.Background(), target.PublicRef)
		if err != nil {
			t.Fatalf("RequestDownloadTarget() error = %v", err)
		}
		data, err := tr.GetBytes(context.Background(), ref)
		if err != nil {
			t.Fatalf("GetBytes() error = %v", err)
		}
		if string(data) != "payload" {
			t.Errorf("GetBytes() = %s, want payload", data)
		}
	})

	t.Run("missing object wraps the transport sentinel", func(t *testing.T) {
		tr, err := transport.NewFilesystemTransport(t.TempDir())
		if err != nil {
			t.Fatalf("NewFilesystemTransport() error = %v", err)
		}

		ref, err := tr.RequestDownloadTarget(context.Background(), "backups/nope.json")
		if err != nil {
			t.Fatalf("RequestDownloadTarget() error = %v", err)
		}
		_, err = tr.GetBytes(context.Background(), ref)
		if !errors.Is(err, buildflow.ErrTransportFailure) {
			t.Errorf("GetBytes() error = %v, want ErrTransportFailure", err)
		}
	})

	t.Run("validate setup checks the root", func(t *testing.T) {
		root := t.TempDir()
		tr, err := transport.NewFilesystemTransport(root)
		if err != nil {
			t.Fatalf("NewFilesystemTransport() error = %v", err)
		}
		if err := tr.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}

		os.RemoveAll(root)
		if err := tr.ValidateSetup(context.Background()); !errors.Is(err, buildflow.ErrTransportFailure) {
			t.Errorf("ValidateSetup() after root removal error = %v, want ErrTransportFailure", err)
		}
	})
}

func TestMemoryTransport(t *testing.T) {
	t.Run("stores and returns objects by key", func(t *testing.T) {
		tr := transport.NewMemoryTransport()

		target, err := tr.RequestUploadTarget(context.Background(), "b.json", "application/json", "backups")
		if err != nil {
			t.Fatalf("RequestUploadTarget() error = %v", err)
		}
		if err := tr.PutBytes(context.Background(), target.UploadDestination, []byte("x"), "application/json"); err != nil {
			t.Fatalf("PutBytes() error = %v", err)
		}

		ref, err := tr.RequestDownloadTarget(context.Background(), target.PublicRef)
		if err != nil {
			t.Fatalf("RequestDownloadTarget() error = %v", err)
		}
		data, err := tr.GetBytes(context.Background(), ref)
		if err != nil {
			t.Fatalf("GetBytes() error = %v", err)
		}
		if string(data) != "x" {
			t.Errorf("GetBytes() = %s, want x", data)
		}
		if tr.Len() != 1 {
			t.Errorf("Len() = %d, want 1", tr.Len())
		}
	})

	t.Run("stored bytes are isolated from caller mutation", func(t *testing.T) {
		tr := transport.NewMemoryTransport()

		data := []byte("original")
		if err := tr.PutBytes(context.Background(), "k", data, ""); err != nil {
			t.Fatalf("PutBytes() error = %v", err)
		}
		data[0] = 'X'

		got, _ := tr.Object("k")
		if string(got) != "original" {
			t.Errorf("Object() = %s, want original", got)
		}
	})
}
