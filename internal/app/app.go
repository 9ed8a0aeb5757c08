package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"buildflow/internal/buildflow"
	"buildflow/internal/config"
	"buildflow/internal/fs"
	"buildflow/internal/metadata"
	"buildflow/internal/store"
	"buildflow/internal/transport"
)

// App is the application layer between the CLI and the domain services. It
// constructs all dependencies from config, exposes high-level operations
// that accept raw string inputs, and owns the store lifecycle via Close.
type App struct {
	cfg      *config.Config
	store    buildflow.Store
	visits   *buildflow.VisitRepository
	contacts *buildflow.ContactRepository
	notes    *buildflow.NoteRepository
	backup   *buildflow.BackupService
	clock    buildflow.Clock
	logFile  *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "SaveVisit", "BackupNow").
// The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	tr, err := transport.NewTransportFromConfig(ctx, cfg.Transport)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	clock := buildflow.RealClock{}
	idgen := buildflow.UUIDGenerator{}

	visits := buildflow.NewVisitRepository(st, clock, idgen)
	contacts := buildflow.NewContactRepository(st, idgen)
	notes := buildflow.NewNoteRepository(st)

	codec := buildflow.NewCodec(visits, contacts, notes, clock)
	restorer := buildflow.NewRestoreEngine(visits, contacts, notes, log)
	sink := fs.NewOSFileSink(cfg.Export.DownloadDir)
	meta := metadata.NewFileStore(filepath.Join(cfg.BaseDir, "lastBackup.json"))

	backup := buildflow.NewBackupService(codec, restorer, tr, sink, meta, log, clock)
	if cfg.Backup.StalenessHours > 0 {
		backup.SetStaleness(time.Duration(cfg.Backup.StalenessHours) * time.Hour)
	}

	log.Debug("app initialized", "operation", operation)

	return &App{
		cfg:      cfg,
		store:    st,
		visits:   visits,
		contacts: contacts,
		notes:    notes,
		backup:   backup,
		clock:    clock,
		logFile:  logFile,
	}, nil
}

// SaveVisitParams carries the CLI inputs for saving a day's visit.
type SaveVisitParams struct {
	Date              string
	Notes             string
	ContactID         string // embeds a snapshot of this contact, if set
	EstimatedCost     *float64
	EstimatedDuration *float64
}

// SaveVisit creates or updates the visit for a date. An existing visit for
// the date keeps its id and photos.
func (a *App) SaveVisit(ctx context.Context, p SaveVisitParams) (*buildflow.SiteVisit, error) {
	params := buildflow.SaveVisitParams{
		Date:              p.Date,
		Notes:             p.Notes,
		EstimatedCost:     p.EstimatedCost,
		EstimatedDuration: p.EstimatedDuration,
	}

	if p.ContactID != "" {
		contact, err := a.findContact(ctx, p.ContactID)
		if err != nil {
			return nil, err
		}
		params.Contact = contact
	}

	if existing, err := a.visits.GetByDate(ctx, p.Date); err != nil {
		return nil, err
	} else if existing != nil {
		params.Photos = existing.Photos
	}

	return a.visits.SaveForDate(ctx, params)
}

// Visit returns the visit for a date. A date without a visit is ErrNotFound.
func (a *App) Visit(ctx context.Context, date string) (*buildflow.SiteVisit, error) {
	visit, err := a.visits.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if visit == nil {
		return nil, fmt.Errorf("%w: no visit for %s", buildflow.ErrNotFound, date)
	}
	return visit, nil
}

// Visits returns every stored visit.
func (a *App) Visits(ctx context.Context) ([]buildflow.SiteVisit, error) {
	return a.visits.GetAll(ctx)
}

// SaveContact stores a contact. A new contact gets a generated id.
func (a *App) SaveContact(ctx context.Context, contact *buildflow.Contact) error {
	return a.contacts.Save(ctx, contact)
}

// Contacts returns every stored contact.
func (a *App) Contacts(ctx context.Context) ([]buildflow.Contact, error) {
	return a.contacts.GetAll(ctx)
}

// DeleteContact removes a contact by id. Visits that embedded the contact
// keep their snapshot.
func (a *App) DeleteContact(ctx context.Context, id string) error {
	return a.contacts.Delete(ctx, id)
}

func (a *App) findContact(ctx context.Context, id string) (*buildflow.Contact, error) {
	contacts, err := a.contacts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if contacts[i].ID == id {
			return &contacts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no contact %s", buildflow.ErrNotFound, id)
}

// SaveNoteParams carries the CLI inputs for saving a day's notepad page.
type SaveNoteParams struct {
	Date        string
	Mode        buildflow.NoteMode
	TemplateURL string
	CanvasData  string
	Signature   string
}

// SaveNote creates or overwrites the notepad note for a date. The note id
// is derived from the date, so re-saving a date replaces its page; createdAt
// survives from the previous save.
func (a *App) SaveNote(ctx context.Context, p SaveNoteParams) (*buildflow.NotepadNote, error) {
	now := a.clock.Now().UTC().Format(time.RFC3339)
	note := &buildflow.NotepadNote{
		Date:        p.Date,
		Mode:        p.Mode,
		TemplateURL: p.TemplateURL,
		CanvasData:  p.CanvasData,
		Signature:   p.Signature,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if note.Mode == "" {
		note.Mode = buildflow.NoteModeDefault
	}

	if existing, err := a.notes.GetByDate(ctx, p.Date); err != nil {
		return nil, err
	} else if existing != nil {
		note.CreatedAt = existing.CreatedAt
		note.Images = existing.Images
	}

	if err := a.notes.Save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Note returns the notepad note for a date. A date without a note is
// ErrNotFound.
func (a *App) Note(ctx context.Context, date string) (*buildflow.NotepadNote, error) {
	note, err := a.notes.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, fmt.Errorf("%w: no note for %s", buildflow.ErrNotFound, date)
	}
	return note, nil
}

// BackupNow uploads a snapshot to remote storage and records the result.
func (a *App) BackupNow(ctx context.Context) (*buildflow.BackupMetadata, error) {
	return a.backup.BackupNow(ctx)
}

// ExportBackup writes a snapshot file into the downloads directory and
// returns its path.
func (a *App) ExportBackup(ctx context.Context) (string, error) {
	return a.backup.ExportToFile(ctx)
}

// ImportBackup reads a snapshot file from disk and replays it into the
// store.
func (a *App) ImportBackup(ctx context.Context, path string) error {
	sink := fs.NewOSFileSink(a.cfg.Export.DownloadDir)
	raw, err := sink.ReadSelectedFile(path)
	if err != nil {
		return err
	}
	return a.backup.ImportFromFile(ctx, raw)
}

// RestoreRemote downloads a previously uploaded backup by key and replays
// it into the store.
func (a *App) RestoreRemote(ctx context.Context, key string) error {
	return a.backup.RestoreRemote(ctx, key)
}

// BackupStatus returns the last recorded backup (nil if none) and whether
// an automatic backup is currently due.
func (a *App) BackupStatus() (*buildflow.BackupMetadata, bool) {
	return a.backup.LastBackup(), a.backup.IsBackupDue()
}

// AutoBackup runs one staleness check and, if due, one automatic backup.
// Returns whether a backup ran and succeeded.
func (a *App) AutoBackup(ctx context.Context) bool {
	if !a.backup.IsBackupDue() {
		return false
	}
	return a.backup.RunAutomaticBackup(ctx)
}

// Watch blocks, checking backup staleness periodically until ctx is
// cancelled.
func (a *App) Watch(ctx context.Context) {
	interval := time.Duration(a.cfg.Backup.CheckIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	a.backup.RunPeriodic(ctx, interval)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
