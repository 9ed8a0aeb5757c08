package buildflow

import (
	"context"
	"fmt"
	"sync"
)

// RestoreState tracks where a restore run is in its lifecycle.
type RestoreState int

const (
	RestoreIdle RestoreState = iota
	RestoreValidating
	RestoreWriting
	RestoreDone
	RestoreFailed
)

func (s RestoreState) String() string {
	switch s {
	case RestoreIdle:
		return "idle"
	case RestoreValidating:
		return "validating"
	case RestoreWriting:
		return "writing"
	case RestoreDone:
		return "done"
	case RestoreFailed:
		return "failed"
	}
	return "unknown"
}

// RestoreProgress is a point-in-time view of a restore run.
type RestoreProgress struct {
	State   RestoreState
	Written int
	Total   int
}

// RestoreEngine replays a validated snapshot into the local store via the
// entity repositories. Restore is additive and overwriting: every snapshot
// record is upserted by id, and records present in the store but absent from
// the snapshot are left untouched. There is no rollback: a failed restore
// may be partially applied, and re-running it is safe because every write is
// an idempotent upsert.
type RestoreEngine struct {
	visits   *VisitRepository
	contacts *ContactRepository
	notes    *NoteRepository
	logger   Logger

	mu       sync.Mutex
	progress RestoreProgress
}

func NewRestoreEngine(visits *VisitRepository, contacts *ContactRepository, notes *NoteRepository, logger Logger) *RestoreEngine {
	return &RestoreEngine{visits: visits, contacts: contacts, notes: notes, logger: logger}
}

// Progress returns the current restore progress.
func (e *RestoreEngine) Progress() RestoreProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

func (e *RestoreEngine) setState(s RestoreState) {
	e.mu.Lock()
	e.progress.State = s
	e.mu.Unlock()
}

func (e *RestoreEngine) advance() {
	e.mu.Lock()
	e.progress.Written++
	e.mu.Unlock()
}

// Restore writes every record of the snapshot into the store.
func (e *RestoreEngine) Restore(ctx context.Context, snap *Snapshot) error {
	e.setState(RestoreValidating)

	if snap == nil {
		e.setState(RestoreFailed)
		return fmt.Errorf("%w: no snapshot", ErrInvalidSnapshot)
	}
	if !SupportedSnapshotVersion(snap.Version) {
		e.setState(RestoreFailed)
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, snap.Version)
	}

	e.mu.Lock()
	e.progress = RestoreProgress{State: RestoreWriting, Total: snap.ItemCount()}
	e.mu.Unlock()

	for i := range snap.SiteVisits {
		visit := snap.SiteVisits[i]
		if err := e.visits.Save(ctx, &visit); err != nil {
			e.setState(RestoreFailed)
			return fmt.Errorf("restoring visit %s: %w", visit.ID, err)
		}
		e.advance()
	}
	for i := range snap.Contacts {
		contact := snap.Contacts[i]
		if err := e.contacts.Save(ctx, &contact); err != nil {
			e.setState(RestoreFailed)
			return fmt.Errorf("restoring contact %s: %w", contact.ID, err)
		}
		e.advance()
	}
	for i := range snap.NotepadNotes {
		note := snap.NotepadNotes[i]
		if err := e.notes.Save(ctx, &note); err != nil {
			e.setState(RestoreFailed)
			return fmt.Errorf("restoring note %s: %w", note.ID, err)
		}
		e.advance()
	}

	e.setState(RestoreDone)
	e.logger.Info("restore complete", "items", snap.ItemCount())
	return nil
}
