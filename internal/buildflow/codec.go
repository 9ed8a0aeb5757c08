package buildflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SnapshotVersion is stamped on every snapshot this codec produces.
const SnapshotVersion = "1.0.0"

// Snapshot is a point-in-time aggregate of the whole store. It is a derived,
// transient document: produced by Codec.Encode and consumed immediately by a
// transport or the restore engine, never stored in the local store itself.
type Snapshot struct {
	SiteVisits   []SiteVisit   `json:"siteVisits"`
	Contacts     []Contact     `json:"contacts"`
	NotepadNotes []NotepadNote `json:"notepadNotes"`
	BackupDate   string        `json:"backupDate"`
	Version      string        `json:"version"`
}

// ItemCount returns the total number of records across all three arrays.
func (s *Snapshot) ItemCount() int {
	return len(s.SiteVisits) + len(s.Contacts) + len(s.NotepadNotes)
}

// SupportedSnapshotVersion reports whether the restore path recognizes a
// snapshot version. Only the 1.x line exists today; this is the dispatch
// point for future schema migrations.
func SupportedSnapshotVersion(version string) bool {
	return strings.HasPrefix(version, "1.")
}

// Codec performs the lossless round-trip between the three live collections
// and one portable snapshot document.
type Codec struct {
	visits   *VisitRepository
	contacts *ContactRepository
	notes    *NoteRepository
	clock    Clock
}

func NewCodec(visits *VisitRepository, contacts *ContactRepository, notes *NoteRepository, clock Clock) *Codec {
	return &Codec{visits: visits, contacts: contacts, notes: notes, clock: clock}
}

// Encode reads all three collections and packages them as a snapshot stamped
// with the current time and version. The persisted entity types already
// exclude transient UI state, so this is a direct passthrough, not a filter.
func (c *Codec) Encode(ctx context.Context) (*Snapshot, error) {
	visits, err := c.visits.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading visits: %w", err)
	}
	contacts, err := c.contacts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading contacts: %w", err)
	}
	notes, err := c.notes.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}

	return &Snapshot{
		SiteVisits:   visits,
		Contacts:     contacts,
		NotepadNotes: notes,
		BackupDate:   c.clock.Now().UTC().Format(time.RFC3339),
		Version:      SnapshotVersion,
	}, nil
}

// MarshalSnapshot serializes a snapshot as indented JSON, matching the
// on-disk backup file format.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses and validates a raw snapshot document. Each of the
// three collection keys must be present and be an array (empty is fine);
// the version must be recognized. Unknown extra top-level fields are
// ignored for forward compatibility. All failures wrap ErrInvalidSnapshot.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidSnapshot, err)
	}

	var version string
	if v, ok := top["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("%w: version is not a string", ErrInvalidSnapshot)
		}
	}
	if !SupportedSnapshotVersion(version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, version)
	}

	// Only one decode path exists; future versions branch here.
	return decodeV1(top, version)
}

func decodeV1(top map[string]json.RawMessage, version string) (*Snapshot, error) {
	snap := &Snapshot{
		SiteVisits:   []SiteVisit{},
		Contacts:     []Contact{},
		NotepadNotes: []NotepadNote{},
		Version:      version,
	}

	for key, dest := range map[string]any{
		"siteVisits":   &snap.SiteVisits,
		"contacts":     &snap.Contacts,
		"notepadNotes": &snap.NotepadNotes,
	} {
		raw, ok := top[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidSnapshot, key)
		}
		if !isJSONArray(raw) {
			return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidSnapshot, key)
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidSnapshot, key, err)
		}
	}

	if raw, ok := top["backupDate"]; ok {
		if err := json.Unmarshal(raw, &snap.BackupDate); err != nil {
			return nil, fmt.Errorf("%w: backupDate is not a string", ErrInvalidSnapshot)
		}
	}

	return snap, nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '['
		}
	}
	return false
}
