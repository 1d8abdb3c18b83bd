package leads

import (
	"context"
	"testing"
)

func TestRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	req := &CreateLeadRequest{
		PersonaTipo: "propietario",
		Nombre:      "Ana García",
		Email:       "ana@test.com",
		Municipio:   "Bilbao",
		M2:          80,
		Consent:     true,
	}

	lead, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.ID == "" {
		t.Error("expected lead ID to be set")
	}
	if lead.Source != SourceChatbot {
		t.Errorf("expected source %q, got %q", SourceChatbot, lead.Source)
	}
	if lead.Status != StatusNew {
		t.Errorf("expected status %q, got %q", StatusNew, lead.Status)
	}
	if lead.PersonaTipo != "propietario" {
		t.Errorf("expected persona propietario, got %q", lead.PersonaTipo)
	}
	if lead.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

// The write-side half of the consent invariant: with consent=false no record
// exists afterward, ever.
func TestRepository_CreateWithoutConsentNeverWrites(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	req := &CreateLeadRequest{
		Nombre:  "Ana García",
		Email:   "ana@test.com",
		Consent: false,
	}

	if _, err := repo.Create(ctx, req); err != ErrConsentRequired {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}

	all, err := repo.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty store after rejected write, got %d leads", len(all))
	}
}

// Consent is the only write precondition; a consented lead without contact
// fields is still recorded (the conversation transcript carries the follow-up).
func TestRepository_CreateAllowsContactlessLead(t *testing.T) {
	repo := NewInMemoryRepository()

	req := &CreateLeadRequest{PersonaTipo: "propietario", Municipio: "Bilbao", Consent: true}
	lead, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Email != "" || lead.Telefono != "" {
		t.Errorf("expected empty contact fields, got %q / %q", lead.Email, lead.Telefono)
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &CreateLeadRequest{Email: "test@example.com", Consent: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, found.ID)
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestRepository_ListFiltersAndPages(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.Create(ctx, &CreateLeadRequest{Email: "a@b.com", Consent: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	page, err := repo.List(ctx, ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("expected 2 leads, got %d", len(page))
	}

	none, err := repo.List(ctx, ListFilter{Status: "contacted"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no contacted leads, got %d", len(none))
	}
}
