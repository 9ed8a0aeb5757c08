package buildflow

// DateLayout is the calendar-date format used as the secondary key for
// site visits and notepad notes ("2024-03-01").
const DateLayout = "2006-01-02"

// SiteVisit is one day's visit record. The date is the natural dedup key in
// the UI, but identity is the opaque id: the store happily holds two visits
// with the same date, and callers are expected to reuse the existing id when
// updating a date (see VisitRepository.SaveForDate).
type SiteVisit struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	Photos            []Photo  `json:"photos"`
	Notes             string   `json:"notes"`
	Contact           *Contact `json:"contact"`
	EstimatedCost     *float64 `json:"estimatedCost"`
	EstimatedDuration *float64 `json:"estimatedDuration"` // hours
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// Photo is owned by its parent SiteVisit and is never stored independently.
type Photo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
}

// Contact is independently stored, and additionally copied by value into
// SiteVisit.Contact at save time. Edits to a stored contact do not propagate
// to past visits.
type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// NoteMode selects the notepad background.
type NoteMode string

const (
	NoteModeDefault NoteMode = "default"
	NoteModeCustom  NoteMode = "custom"
)

// NotepadNote is one day's handwriting page. Its id is derived from the date
// (see NoteID) so that re-saving the same date overwrites in place.
type NotepadNote struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Mode        NoteMode       `json:"mode"`
	TemplateURL string         `json:"templateUrl,omitempty"` // custom mode only
	CanvasData  string         `json:"canvasData"`            // serialized stroke document, opaque here
	Signature   string         `json:"signature,omitempty"`
	Images      []ImageOverlay `json:"images,omitempty"`
	Exported    bool           `json:"exported,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

// NoteID returns the deterministic notepad note id for a date.
func NoteID(date string) string {
	return "note-" + date
}

// ImageOverlay is the persisted shape of an image placed on a notepad page.
type ImageOverlay struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageOverlayState wraps an ImageOverlay with in-memory interaction state.
// It exists only while the user is dragging or resizing; the store only ever
// sees the result of Persisted.
type ImageOverlayState struct {
	ImageOverlay

	Dragging       bool
	Resizing       bool
	ResizeHandle   string
	OriginalX      float64
	OriginalY      float64
	OriginalWidth  float64
	OriginalHeight float64
}

// Persisted strips the transient interaction state, returning the shape that
// is allowed to cross the save boundary.
func (s *ImageOverlayState) Persisted() ImageOverlay {
	return s.ImageOverlay
}
