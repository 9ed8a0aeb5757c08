package store

import (
	"context"
	"fmt"
	"sync"

	"buildflow/internal/buildflow"
)

// Lazy defers opening the underlying store until first use and guarantees
// the open (and its schema migration) runs exactly once, even when the app
// start and a backup check race to the first call. Concurrent callers block
// on the same initialization and share the resulting handle.
type Lazy struct {
	open func() (buildflow.Store, error)

	mu       sync.Mutex
	resolved bool
	st       buildflow.Store
	err      error
}

// NewLazy wraps an open function in a memoizing store.
func NewLazy(open func() (buildflow.Store, error)) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) resolve() (buildflow.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.resolved {
		l.st, l.err = l.open()
		l.resolved = true
	}
	return l.st, l.err
}

func (l *Lazy) Put(ctx context.Context, c buildflow.Collection, id, indexValue string, record []byte) error {
	st, err := l.resolve()
	if err != nil {
		return err
	}
	return st.Put(ctx, c, id, indexValue, record)
}

func (l *Lazy) Get(ctx context.Context, c buildflow.Collection, id string) ([]byte, error) {
	st, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return st.Get(ctx, c, id)
}

func (l *Lazy) GetByIndex(ctx context.Context, c buildflow.Collection, index, value string) ([][]byte, error) {
	st, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return st.GetByIndex(ctx, c, index, value)
}

func (l *Lazy) GetAll(ctx context.Context, c buildflow.Collection) ([][]byte, error) {
	st, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return st.GetAll(ctx, c)
}

func (l *Lazy) Delete(ctx context.Context, c buildflow.Collection, id string) error {
	st, err := l.resolve()
	if err != nil {
		return err
	}
	return st.Delete(ctx, c, id)
}

// Close closes the underlying store if it was ever opened. Closing a
// never-used store does not open it, and a later first use cannot open
// after close.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.resolved {
		l.resolved = true
		l.err = fmt.Errorf("%w: store closed", buildflow.ErrStoreUnavailable)
		return nil
	}
	if l.err != nil {
		return nil
	}
	return l.st.Close()
}

// Compile-time check that Lazy implements the Store interface
var _ buildflow.Store = (*Lazy)(nil)
