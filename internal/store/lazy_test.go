package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"buildflow/internal/buildflow"
	"buildflow/internal/store"
)

func TestLazy(t *testing.T) {
	t.Run("opens on first use and only once", func(t *testing.T) {
		var opens atomic.Int32
		lazy := store.NewLazy(func() (buildflow.Store, error) {
			opens.Add(1)
			return store.NewSQLiteStore(":memory:")
		})
		defer lazy.Close()

		if opens.Load() != 0 {
			t.Fatalf("opens before first use = %d, want 0", opens.Load())
		}

		if err := lazy.Put(context.Background(), buildflow.CollectionContacts, "c-1", "Dana", []byte(`{}`)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, err := lazy.Get(context.Background(), buildflow.CollectionContacts, "c-1"); err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		if opens.Load() != 1 {
			t.Errorf("opens = %d, want 1", opens.Load())
		}
	})

	t.Run("concurrent first calls share one open", func(t *testing.T) {
		var opens atomic.Int32
		lazy := store.NewLazy(func() (buildflow.Store, error) {
			opens.Add(1)
			return store.NewSQLiteStore(":memory:")
		})
		defer lazy.Close()

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := lazy.GetAll(context.Background(), buildflow.CollectionContacts)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("GetAll() error = %v", err)
			}
		}
		if opens.Load() != 1 {
			t.Errorf("opens = %d, want 1", opens.Load())
		}
	})

	t.Run("close before first use never opens", func(t *testing.T) {
		var opens atomic.Int32
		lazy := store.NewLazy(func() (buildflow.Store, error) {
			opens.Add(1)
			return store.NewSQLiteStore(":memory:")
		})

		if err := lazy.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if opens.Load() != 0 {
			t.Errorf("opens after close = %d, want 0", opens.Load())
		}

		if err := lazy.Put(context.Background(), buildflow.CollectionContacts, "c-1", "x", []byte(`{}`)); !errors.Is(err, buildflow.ErrStoreUnavailable) {
			t.Errorf("Put() after close error = %v, want ErrStoreUnavailable", err)
		}
		if opens.Load() != 0 {
			t.Errorf("opens after use-after-close = %d, want 0", opens.Load())
		}
	})

	t.Run("open failure surfaces on every call", func(t *testing.T) {
		openErr := errors.New("disk gone")
		lazy := store.NewLazy(func() (buildflow.Store, error) {
			return nil, openErr
		})

		if err := lazy.Put(context.Background(), buildflow.CollectionContacts, "c-1", "x", []byte(`{}`)); !errors.Is(err, openErr) {
			t.Errorf("Put() error = %v, want open error", err)
		}
		if _, err := lazy.Get(context.Background(), buildflow.CollectionContacts, "c-1"); !errors.Is(err, openErr) {
			t.Errorf("Get() error = %v, want open error", err)
		}
		if err := lazy.Close(); err != nil {
			t.Errorf("Close() error = %v, want nil when open failed", err)
		}
	})
}
