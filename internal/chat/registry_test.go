package chat

import (
	"context"
	"testing"
	"time"
)

func newTestRegistry(clock *fakeClock, ttl time.Duration) *Registry {
	return NewRegistry(func(sessionID string) *Controller {
		return New(sessionID, Deps{Clock: clock, Chooser: FixedChooser{}})
	}, ttl, clock, nil)
}

func TestRegistryGetOrCreate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(clock, time.Hour)

	a := reg.GetOrCreate("s1")
	b := reg.GetOrCreate("s1")
	if a != b {
		t.Error("same session id must return the same controller")
	}

	c := reg.GetOrCreate("s2")
	if c == a {
		t.Error("distinct sessions must get distinct controllers")
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(clock, time.Hour)

	reg.GetOrCreate("old")
	clock.now = clock.now.Add(45 * time.Minute)
	reg.GetOrCreate("fresh")

	// 61 minutes after "old" was last touched, 16 after "fresh".
	clock.now = clock.now.Add(16 * time.Minute)
	if n := reg.EvictIdle(); n != 1 {
		t.Fatalf("evicted = %d, want 1", n)
	}

	if _, ok := reg.Get("old"); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := reg.Get("fresh"); !ok {
		t.Error("active session should survive")
	}
}

func TestRegistryActivityRefreshesTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(clock, time.Hour)

	reg.GetOrCreate("s1")
	clock.now = clock.now.Add(50 * time.Minute)
	reg.GetOrCreate("s1") // refreshes
	clock.now = clock.now.Add(50 * time.Minute)

	if n := reg.EvictIdle(); n != 0 {
		t.Errorf("evicted = %d, refreshed session must survive", n)
	}
}

func TestRegistryDelete(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(clock, time.Hour)

	reg.GetOrCreate("s1")
	if !reg.Delete("s1") {
		t.Error("delete of existing session should report true")
	}
	if reg.Delete("s1") {
		t.Error("second delete should report false")
	}
}

func TestRegistryListOrder(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	reg := newTestRegistry(clock, time.Hour)

	first := reg.GetOrCreate("first")
	clock.now = clock.now.Add(time.Minute)
	reg.GetOrCreate("second")

	first.ProcessMessage(context.Background(), TurnInput{Message: "hello"})
	first.ProcessMessage(context.Background(), TurnInput{Message: "a recipe sharing app for home cooks"})

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("sessions = %d, want 2", len(list))
	}
	if list[0].SessionID != "first" || list[1].SessionID != "second" {
		t.Errorf("order = %q, %q; want busiest conversation first", list[0].SessionID, list[1].SessionID)
	}
	if list[0].Title != "A Recipe Sharing" {
		t.Errorf("title = %q, want project name once one exists", list[0].Title)
	}
	if list[0].MessageCount != 2 {
		t.Errorf("message count = %d, want 2", list[0].MessageCount)
	}
	if list[1].Title != "New Chat" {
		t.Errorf("empty session title = %q, want New Chat", list[1].Title)
	}
}
