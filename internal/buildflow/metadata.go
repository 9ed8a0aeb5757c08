package buildflow

import "time"

// BackupMetadata is the single-slot last-backup record used to compute
// staleness. It lives outside the main collections; only successful remote
// uploads write it. Local file exports never touch it.
type BackupMetadata struct {
	Location  string    `json:"location"` // opaque pointer: object key, URL, or file path
	Date      time.Time `json:"date"`
	ItemCount int       `json:"itemCount"`
}

// MetadataStore reads and writes the last-backup record. Get returns
// (nil, nil) when no backup has been recorded.
type MetadataStore interface {
	Get() (*BackupMetadata, error)
	Set(m *BackupMetadata) error
}
