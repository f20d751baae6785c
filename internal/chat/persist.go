package chat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/snail3d/ralphd/internal/domain"
	"github.com/snail3d/ralphd/internal/store"
)

// Snapshot captures the session as a storable record. A non-empty name
// overrides the display name derived from the project; the conversation
// fields are denormalized into the record alongside the full state so
// listings never need to parse the state blob.
func (c *Controller) Snapshot(name string) store.ConversationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if name == "" {
		name = state.PRD.ProjectName
	}
	if name == "" {
		name = "untitled"
	}

	now := c.clock.Now()
	rec := store.ConversationRecord{
		Meta: store.ConversationMeta{
			Filename:     fmt.Sprintf("%s_%s.json", sanitizeFilename(name), now.Format("20060102_150405")),
			DisplayName:  fmt.Sprintf("%s - %s", name, now.Format("2006-01-02 15:04")),
			ProjectName:  state.PRD.ProjectName,
			SessionID:    c.sessionID,
			SavedAt:      now,
			MessageCount: len(state.Messages),
			HasPRD:       state.PRD.TotalTasks() > 0,
		},
		State:       *state,
		Messages:    append([]domain.Message(nil), state.Messages...),
		Backroom:    append([]domain.DebateEntry(nil), state.Backroom...),
		PRD:         state.PRD,
		AutoSummary: state.AutoSummary,
	}
	return rec
}

// Restore builds a controller for sessionID from a saved record. The
// record's denormalized copies win over whatever the state blob holds.
func Restore(sessionID string, rec store.ConversationRecord, deps Deps) *Controller {
	c := New(sessionID, deps)

	state := rec.State
	state.SessionID = sessionID
	state.Messages = rec.Messages
	state.Backroom = rec.Backroom
	state.PRD = rec.PRD
	state.AutoSummary = rec.AutoSummary

	c.state = &state
	return c
}

// sanitizeFilename keeps letters, digits, dashes and underscores, mapping
// everything else (spaces included) to underscores.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
