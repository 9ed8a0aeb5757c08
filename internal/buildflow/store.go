package buildflow

import "context"

// Collection names one of the three record sets held by the local store.
type Collection string

const (
	CollectionSiteVisits   Collection = "siteVisits"
	CollectionNotepadNotes Collection = "notepadNotes"
	CollectionContacts     Collection = "contacts"
)

// Index names. Each collection carries exactly one secondary, non-unique
// index: by-date for visits and notes, by-name for contacts.
const (
	IndexByDate = "by-date"
	IndexByName = "by-name"
)

// IndexFor returns the name of the secondary index for a collection, or ""
// if the collection is unknown.
func IndexFor(c Collection) string {
	switch c {
	case CollectionSiteVisits, CollectionNotepadNotes:
		return IndexByDate
	case CollectionContacts:
		return IndexByName
	}
	return ""
}

// Collections lists every collection the store manages.
func Collections() []Collection {
	return []Collection{CollectionSiteVisits, CollectionNotepadNotes, CollectionContacts}
}

// Store is durable, versioned, indexed key-value persistence for the three
// collections. Records are opaque JSON documents; the secondary index value
// is supplied by the caller on Put.
//
// Every write is all-or-nothing for a single record: callers never observe a
// half-written record. Write failures wrap ErrStoreUnavailable. Absent
// records are (nil, nil), not an error.
type Store interface {
	// Put upserts a record by primary key.
	Put(ctx context.Context, c Collection, id, indexValue string, record []byte) error

	// Get returns the record with the given id, or nil if absent.
	Get(ctx context.Context, c Collection, id string) ([]byte, error)

	// GetByIndex returns all records whose index value matches, in insertion
	// order. index must name the collection's secondary index.
	GetByIndex(ctx context.Context, c Collection, index, value string) ([][]byte, error)

	// GetAll returns every record in the collection.
	GetAll(ctx context.Context, c Collection) ([][]byte, error)

	// Delete removes a record by id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, c Collection, id string) error

	// Close releases the underlying database handle.
	Close() error
}
