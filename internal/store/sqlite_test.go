package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/snail3d/ralphd/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func sampleRecord(filename string, savedAt time.Time) ConversationRecord {
	state := domain.NewConversationState("sess-1")
	state.Step = domain.StepAesthetics
	state.Purpose = "a recipe sharing app"
	state.Messages = []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleUser, Content: "a recipe sharing app"},
	}
	state.Backroom = []domain.DebateEntry{
		{Skeptic: "Error handling strategies needed", Optimist: "Strong potential for viral growth and adoption", Timestamp: savedAt},
	}
	state.PRD.ProjectName = "A Recipe Sharing"
	state.PRD.Phases.Core.Tasks = []domain.Task{
		{ID: "CORE-100", Title: "login", Description: "login", File: "core.py", Priority: domain.PriorityHigh},
	}

	return ConversationRecord{
		Meta: ConversationMeta{
			Filename:     filename,
			DisplayName:  "A Recipe Sharing - 2025-03-01 09:30",
			ProjectName:  "A Recipe Sharing",
			SessionID:    "sess-1",
			SavedAt:      savedAt,
			MessageCount: len(state.Messages),
			HasPRD:       true,
		},
		State:       *state,
		Messages:    state.Messages,
		Backroom:    state.Backroom,
		PRD:         state.PRD,
		AutoSummary: "built a recipe app",
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	savedAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := sampleRecord("recipe_20250301_093000.json", savedAt)

	if err := repo.SaveConversation(ctx, rec); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	got, err := repo.LoadConversation(ctx, rec.Meta.Filename)
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}

	if got.Meta.Filename != rec.Meta.Filename || got.Meta.ProjectName != rec.Meta.ProjectName {
		t.Errorf("meta = %+v", got.Meta)
	}
	if !reflect.DeepEqual(got.Messages, rec.Messages) {
		t.Errorf("messages = %+v, want %+v", got.Messages, rec.Messages)
	}
	if !reflect.DeepEqual(got.PRD, rec.PRD) {
		t.Errorf("prd = %+v, want %+v", got.PRD, rec.PRD)
	}
	if got.AutoSummary != "built a recipe app" {
		t.Errorf("auto summary = %q", got.AutoSummary)
	}
	if got.State.Step != domain.StepAesthetics {
		t.Errorf("state step = %d", got.State.Step)
	}
	if len(got.Backroom) != 1 || got.Backroom[0].Skeptic != rec.Backroom[0].Skeptic {
		t.Errorf("backroom = %+v", got.Backroom)
	}
}

func TestSaveReplacesSameFilename(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	savedAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	rec := sampleRecord("same.json", savedAt)
	if err := repo.SaveConversation(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.AutoSummary = "updated summary"
	rec.Meta.MessageCount = 5
	if err := repo.SaveConversation(ctx, rec); err != nil {
		t.Fatalf("second save should upsert: %v", err)
	}

	got, err := repo.LoadConversation(ctx, "same.json")
	if err != nil {
		t.Fatal(err)
	}
	if got.AutoSummary != "updated summary" {
		t.Errorf("auto summary = %q, want the replacement", got.AutoSummary)
	}

	metas, err := repo.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Errorf("records = %d, want 1 after upsert", len(metas))
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	repo := newTestStore(t)

	_, err := repo.LoadConversation(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, name := range []string{"first.json", "second.json", "third.json"} {
		rec := sampleRecord(name, base.Add(time.Duration(i)*time.Hour))
		if err := repo.SaveConversation(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := repo.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("records = %d, want 3", len(metas))
	}
	want := []string{"third.json", "second.json", "first.json"}
	for i, meta := range metas {
		if meta.Filename != want[i] {
			t.Errorf("position %d = %q, want %q", i, meta.Filename, want[i])
		}
	}
	if metas[0].MessageCount != 2 || !metas[0].HasPRD {
		t.Errorf("meta fields not persisted: %+v", metas[0])
	}
}

func TestDeleteConversation(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("gone.json", time.Now())
	if err := repo.SaveConversation(ctx, rec); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.DeleteConversation(ctx, "gone.json")
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Error("delete of existing record should report true")
	}

	deleted, err = repo.DeleteConversation(ctx, "gone.json")
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("second delete should report false, not an error")
	}

	if _, err := repo.LoadConversation(ctx, "gone.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("load after delete = %v, want ErrNotFound", err)
	}
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
