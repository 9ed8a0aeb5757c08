package buildflow_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"buildflow/internal/buildflow"
	"buildflow/internal/testutil"
)

func TestVisitRepository_SaveForDate(t *testing.T) {
	t.Run("creates a new visit with a generated id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		visit, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{
			Date:  "2024-01-15",
			Notes: "roof inspection",
		})
		if err != nil {
			t.Fatalf("SaveForDate() error = %v", err)
		}
		if visit.ID != "id-1" {
			t.Errorf("visit id = %q, want %q", visit.ID, "id-1")
		}
		if visit.CreatedAt != "2024-01-15T10:30:00Z" {
			t.Errorf("createdAt = %q, want %q", visit.CreatedAt, "2024-01-15T10:30:00Z")
		}
		if visit.Photos == nil {
			t.Error("photos should be initialized to an empty slice")
		}
	})

	t.Run("reuses id and createdAt when the date already has a visit", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		clock := testutil.FixedClock()
		repo := buildflow.NewVisitRepository(st, clock, testutil.NewStubIDGenerator())

		first, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{
			Date:  "2024-01-15",
			Notes: "first draft",
		})
		if err != nil {
			t.Fatalf("SaveForDate() error = %v", err)
		}

		clock.Advance(2 * time.Minute)
		second, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{
			Date:  "2024-01-15",
			Notes: "final notes",
		})
		if err != nil {
			t.Fatalf("SaveForDate() error = %v", err)
		}

		if second.ID != first.ID {
			t.Errorf("second save id = %q, want reused %q", second.ID, first.ID)
		}
		if second.CreatedAt != first.CreatedAt {
			t.Errorf("createdAt = %q, want preserved %q", second.CreatedAt, first.CreatedAt)
		}
		if second.UpdatedAt == first.UpdatedAt {
			t.Error("updatedAt should change on re-save")
		}

		visits, err := repo.GetAll(context.Background())
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(visits) != 1 {
			t.Fatalf("GetAll() len = %d, want 1", len(visits))
		}
		if visits[0].Notes != "final notes" {
			t.Errorf("notes = %q, want %q", visits[0].Notes, "final notes")
		}
	})

	t.Run("embeds a copy of the contact", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		contact := &buildflow.Contact{ID: "c-1", Name: "Dana Smith", Phone: "555-0101"}
		visit, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{
			Date:    "2024-01-15",
			Contact: contact,
		})
		if err != nil {
			t.Fatalf("SaveForDate() error = %v", err)
		}

		// Mutating the original must not affect the saved snapshot.
		contact.Phone = "555-9999"

		got, err := repo.GetByDate(context.Background(), "2024-01-15")
		if err != nil {
			t.Fatalf("GetByDate() error = %v", err)
		}
		if got.Contact == nil {
			t.Fatal("visit contact is nil")
		}
		if got.Contact.Phone != "555-0101" {
			t.Errorf("embedded phone = %q, want %q", got.Contact.Phone, "555-0101")
		}
		if visit.Contact == contact {
			t.Error("visit should hold a copy, not the caller's pointer")
		}
	})

	t.Run("rejects an invalid date", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		_, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{Date: "15/01/2024"})
		if err == nil {
			t.Fatal("SaveForDate() expected error for invalid date")
		}
	})

	t.Run("rejects negative estimates", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		cost := -10.0
		_, err := repo.SaveForDate(context.Background(), buildflow.SaveVisitParams{
			Date:          "2024-01-15",
			EstimatedCost: &cost,
		})
		if err == nil {
			t.Fatal("SaveForDate() expected error for negative cost")
		}
		if !strings.Contains(err.Error(), "negative") {
			t.Errorf("error = %q, want mention of negative", err)
		}
	})
}

func TestVisitRepository_Save(t *testing.T) {
	t.Run("upsert by id is idempotent", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		visit := &buildflow.SiteVisit{
			ID:        "v-1",
			Date:      "2024-01-15",
			Notes:     "as restored",
			CreatedAt: "2024-01-15T10:30:00Z",
			UpdatedAt: "2024-01-15T10:30:00Z",
		}
		for i := 0; i < 3; i++ {
			if err := repo.Save(context.Background(), visit); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		visits, err := repo.GetAll(context.Background())
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(visits) != 1 {
			t.Errorf("GetAll() len = %d, want 1", len(visits))
		}
	})

	t.Run("rejects a visit without an id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		err := repo.Save(context.Background(), &buildflow.SiteVisit{Date: "2024-01-15"})
		if err == nil {
			t.Fatal("Save() expected error for missing id")
		}
	})

	t.Run("GetByDate returns nil when absent", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewVisitRepository(st, testutil.FixedClock(), testutil.NewStubIDGenerator())

		visit, err := repo.GetByDate(context.Background(), "2030-06-01")
		if err != nil {
			t.Fatalf("GetByDate() error = %v", err)
		}
		if visit != nil {
			t.Errorf("GetByDate() = %+v, want nil", visit)
		}
	})
}

func TestNoteRepository_Save(t *testing.T) {
	t.Run("derives the id from the date", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewNoteRepository(st)

		note := &buildflow.NotepadNote{
			Date:       "2024-01-15",
			Mode:       buildflow.NoteModeDefault,
			CanvasData: "{}",
		}
		if err := repo.Save(context.Background(), note); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if note.ID != "note-2024-01-15" {
			t.Errorf("note id = %q, want %q", note.ID, "note-2024-01-15")
		}
	})

	t.Run("second save for the same date overwrites in place", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewNoteRepository(st)

		first := &buildflow.NotepadNote{Date: "2024-01-15", Mode: buildflow.NoteModeDefault, CanvasData: "v1"}
		if err := repo.Save(context.Background(), first); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		second := &buildflow.NotepadNote{Date: "2024-01-15", Mode: buildflow.NoteModeCustom, TemplateURL: "https://example.com/grid.png", CanvasData: "v2"}
		if err := repo.Save(context.Background(), second); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		notes, err := repo.GetAll(context.Background())
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(notes) != 1 {
			t.Fatalf("GetAll() len = %d, want 1", len(notes))
		}
		if notes[0].CanvasData != "v2" {
			t.Errorf("canvas = %q, want %q", notes[0].CanvasData, "v2")
		}
		if notes[0].Mode != buildflow.NoteModeCustom {
			t.Errorf("mode = %q, want %q", notes[0].Mode, buildflow.NoteModeCustom)
		}
	})

	t.Run("rejects an unknown mode", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewNoteRepository(st)

		err := repo.Save(context.Background(), &buildflow.NotepadNote{Date: "2024-01-15", Mode: "fancy"})
		if err == nil {
			t.Fatal("Save() expected error for unknown mode")
		}
	})

	t.Run("rejects an invalid date", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewNoteRepository(st)

		err := repo.Save(context.Background(), &buildflow.NotepadNote{Date: "Jan 15", Mode: buildflow.NoteModeDefault})
		if err == nil {
			t.Fatal("Save() expected error for invalid date")
		}
	})
}

func TestContactRepository(t *testing.T) {
	t.Run("generates a missing id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewContactRepository(st, testutil.NewStubIDGenerator())

		contact := &buildflow.Contact{Name: "Dana Smith"}
		if err := repo.Save(context.Background(), contact); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if contact.ID != "id-1" {
			t.Errorf("contact id = %q, want %q", contact.ID, "id-1")
		}
	})

	t.Run("keeps a caller-provided id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewContactRepository(st, testutil.NewStubIDGenerator())

		contact := &buildflow.Contact{ID: "c-7", Name: "Dana Smith"}
		if err := repo.Save(context.Background(), contact); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if contact.ID != "c-7" {
			t.Errorf("contact id = %q, want %q", contact.ID, "c-7")
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewContactRepository(st, testutil.NewStubIDGenerator())

		err := repo.Save(context.Background(), &buildflow.Contact{})
		if err == nil {
			t.Fatal("Save() expected error for empty name")
		}
	})

	t.Run("upserts by id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewContactRepository(st, testutil.NewStubIDGenerator())

		if err := repo.Save(context.Background(), &buildflow.Contact{ID: "c-1", Name: "Dana Smith"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Save(context.Background(), &buildflow.Contact{ID: "c-1", Name: "Dana Jones"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		contacts, err := repo.GetAll(context.Background())
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(contacts) != 1 {
			t.Fatalf("GetAll() len = %d, want 1", len(contacts))
		}
		if contacts[0].Name != "Dana Jones" {
			t.Errorf("name = %q, want %q", contacts[0].Name, "Dana Jones")
		}
	})

	t.Run("deletes by id", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		repo := buildflow.NewContactRepository(st, testutil.NewStubIDGenerator())

		if err := repo.Save(context.Background(), &buildflow.Contact{ID: "c-1", Name: "Dana Smith"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Delete(context.Background(), "c-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		contacts, err := repo.GetAll(context.Background())
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(contacts) != 0 {
			t.Errorf("GetAll() len = %d, want 0", len(contacts))
		}
	})
}
