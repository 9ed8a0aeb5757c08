package buildflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// VisitRepository is the typed accessor for the siteVisits collection.
type VisitRepository struct {
	store Store
	clock Clock
	idgen IDGenerator
}

func NewVisitRepository(store Store, clock Clock, idgen IDGenerator) *VisitRepository {
	return &VisitRepository{store: store, clock: clock, idgen: idgen}
}

// Save upserts a visit by id, exactly as given. Timestamps and ids are the
// caller's responsibility; restore uses this to replay records verbatim.
func (r *VisitRepository) Save(ctx context.Context, visit *SiteVisit) error {
	if err := validateVisit(visit); err != nil {
		return err
	}
	if visit.Photos == nil {
		visit.Photos = []Photo{}
	}

	data, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("encoding visit %s: %w", visit.ID, err)
	}
	if err := r.store.Put(ctx, CollectionSiteVisits, visit.ID, visit.Date, data); err != nil {
		return fmt.Errorf("saving visit %s: %w", visit.ID, err)
	}
	return nil
}

// SaveVisitParams carries the editable fields of a day's visit.
type SaveVisitParams struct {
	Date              string
	Notes             string
	Contact           *Contact // embedded by value; later contact edits do not propagate
	EstimatedCost     *float64
	EstimatedDuration *float64
	Photos            []Photo
}

// SaveForDate creates or updates the visit for a date. If a visit already
// exists for the date its id and createdAt are reused, so repeated saves for
// one day mutate a single record. The store itself does not enforce
// date-uniqueness; this lookup-then-reuse is what keeps one record per day.
func (r *VisitRepository) SaveForDate(ctx context.Context, p SaveVisitParams) (*SiteVisit, error) {
	existing, err := r.GetByDate(ctx, p.Date)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now().UTC().Format(time.RFC3339)
	visit := &SiteVisit{
		Date:              p.Date,
		Notes:             p.Notes,
		EstimatedCost:     p.EstimatedCost,
		EstimatedDuration: p.EstimatedDuration,
		Photos:            p.Photos,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.Contact != nil {
		embedded := *p.Contact // snapshot, not a reference
		visit.Contact = &embedded
	}
	if existing != nil {
		visit.ID = existing.ID
		visit.CreatedAt = existing.CreatedAt
	} else {
		visit.ID = r.idgen.New()
	}

	if err := r.Save(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// GetByDate returns the visit for a date, or nil if there is none. If more
// than one record shares the date, the first by insertion order wins.
func (r *VisitRepository) GetByDate(ctx context.Context, date string) (*SiteVisit, error) {
	records, err := r.store.GetByIndex(ctx, CollectionSiteVisits, IndexByDate, date)
	if err != nil {
		return nil, fmt.Errorf("looking up visit for %s: %w", date, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var visit SiteVisit
	if err := json.Unmarshal(records[0], &visit); err != nil {
		return nil, fmt.Errorf("decoding visit for %s: %w", date, err)
	}
	return &visit, nil
}

// GetAll returns every stored visit.
func (r *VisitRepository) GetAll(ctx context.Context) ([]SiteVisit, error) {
	records, err := r.store.GetAll(ctx, CollectionSiteVisits)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}

	visits := make([]SiteVisit, 0, len(records))
	for _, rec := range records {
		var visit SiteVisit
		if err := json.Unmarshal(rec, &visit); err != nil {
			return nil, fmt.Errorf("decoding visit: %w", err)
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

func validateVisit(visit *SiteVisit) error {
	if visit.ID == "" {
		return fmt.Errorf("visit has no id")
	}
	if _, err := time.Parse(DateLayout, visit.Date); err != nil {
		return fmt.Errorf("visit %s has invalid date %q: %w", visit.ID, visit.Date, err)
	}
	if visit.EstimatedCost != nil && *visit.EstimatedCost < 0 {
		return fmt.Errorf("visit %s has negative estimated cost", visit.ID)
	}
	if visit.EstimatedDuration != nil && *visit.EstimatedDuration < 0 {
		return fmt.Errorf("visit %s has negative estimated duration", visit.ID)
	}
	return nil
}

// NoteRepository is the typed accessor for the notepadNotes collection.
type NoteRepository struct {
	store Store
}

func NewNoteRepository(store Store) *NoteRepository {
	return &NoteRepository{store: store}
}

// Save upserts a note. The id is always derived from the date, so saving a
// second note for the same date overwrites the first in place.
func (r *NoteRepository) Save(ctx context.Context, note *NotepadNote) error {
	if _, err := time.Parse(DateLayout, note.Date); err != nil {
		return fmt.Errorf("note has invalid date %q: %w", note.Date, err)
	}
	switch note.Mode {
	case NoteModeDefault, NoteModeCustom:
	default:
		return fmt.Errorf("note %s has unknown mode %q", note.ID, note.Mode)
	}
	note.ID = NoteID(note.Date)

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encoding note %s: %w", note.ID, err)
	}
	if err := r.store.Put(ctx, CollectionNotepadNotes, note.ID, note.Date, data); err != nil {
		return fmt.Errorf("saving note %s: %w", note.ID, err)
	}
	return nil
}

// GetByDate returns the note for a date, or nil if there is none.
func (r *NoteRepository) GetByDate(ctx context.Context, date string) (*NotepadNote, error) {
	records, err := r.store.GetByIndex(ctx, CollectionNotepadNotes, IndexByDate, date)
	if err != nil {
		return nil, fmt.Errorf("looking up note for %s: %w", date, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var note NotepadNote
	if err := json.Unmarshal(records[0], &note); err != nil {
		return nil, fmt.Errorf("decoding note for %s: %w", date, err)
	}
	return &note, nil
}

// GetAll returns every stored note.
func (r *NoteRepository) GetAll(ctx context.Context) ([]NotepadNote, error) {
	records, err := r.store.GetAll(ctx, CollectionNotepadNotes)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	notes := make([]NotepadNote, 0, len(records))
	for _, rec := range records {
		var note NotepadNote
		if err := json.Unmarshal(rec, &note); err != nil {
			return nil, fmt.Errorf("decoding note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// ContactRepository is the typed accessor for the contacts collection.
type ContactRepository struct {
	store Store
	idgen IDGenerator
}

func NewContactRepository(store Store, idgen IDGenerator) *ContactRepository {
	return &ContactRepository{store: store, idgen: idgen}
}

// Save upserts a contact. A missing id is generated; an empty name is
// rejected.
func (r *ContactRepository) Save(ctx context.Context, contact *Contact) error {
	if contact.Name == "" {
		return fmt.Errorf("contact has no name")
	}
	if contact.ID == "" {
		contact.ID = r.idgen.New()
	}

	data, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("encoding contact %s: %w", contact.ID, err)
	}
	if err := r.store.Put(ctx, CollectionContacts, contact.ID, contact.Name, data); err != nil {
		return fmt.Errorf("saving contact %s: %w", contact.ID, err)
	}
	return nil
}

// GetAll returns every stored contact.
func (r *ContactRepository) GetAll(ctx context.Context) ([]Contact, error) {
	records, err := r.store.GetAll(ctx, CollectionContacts)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	contacts := make([]Contact, 0, len(records))
	for _, rec := range records {
		var contact Contact
		if err := json.Unmarshal(rec, &contact); err != nil {
			return nil, fmt.Errorf("decoding contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// Delete removes a contact by id.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionContacts, id); err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	return nil
}
