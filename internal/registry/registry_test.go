package registry

import (
	"testing"

	"github.com/polydictions/bot/internal/storage"
)

func newTestRegistry(t *testing.T) (*Registry, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return Load(store), store
}

func TestSubscribePersists(t *testing.T) {
	r, store := newTestRegistry(t)

	if err := r.Subscribe(42); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !r.IsSubscribed(42) {
		t.Error("user 42 should be subscribed")
	}
	if r.IsSubscribed(7) {
		t.Error("user 7 should not be subscribed")
	}

	// A fresh registry over the same store sees the subscription.
	reloaded := Load(store)
	if !reloaded.IsSubscribed(42) {
		t.Error("subscription should survive reload")
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	_ = r.Subscribe(42)

	changed, err := r.Pause(42)
	if err != nil || !changed {
		t.Fatalf("Pause = %v, %v; want true, nil", changed, err)
	}
	if !r.IsPaused(42) {
		t.Error("user should be paused")
	}

	changed, err = r.Pause(42)
	if err != nil || changed {
		t.Errorf("second Pause = %v, %v; want false, nil", changed, err)
	}

	changed, err = r.Resume(42)
	if err != nil || !changed {
		t.Fatalf("Resume = %v, %v; want true, nil", changed, err)
	}
	if r.IsPaused(42) {
		t.Error("user should no longer be paused")
	}

	changed, err = r.Resume(42)
	if err != nil || changed {
		t.Errorf("second Resume = %v, %v; want false, nil", changed, err)
	}
}

func TestKeywordsLifecycle(t *testing.T) {
	r, store := newTestRegistry(t)

	if got := r.Keywords(42); len(got) != 0 {
		t.Errorf("fresh user should have no keywords, got %v", got)
	}

	if err := r.SetKeywords(42, []string{"btc", `"world cup"`}); err != nil {
		t.Fatalf("SetKeywords: %v", err)
	}
	if got := r.Keywords(42); len(got) != 2 || got[0] != "btc" {
		t.Errorf("Keywords = %v", got)
	}

	// Replacement, not merge.
	if err := r.SetKeywords(42, []string{"election"}); err != nil {
		t.Fatalf("SetKeywords: %v", err)
	}
	if got := r.Keywords(42); len(got) != 1 || got[0] != "election" {
		t.Errorf("Keywords after replace = %v", got)
	}

	changed, err := r.ClearKeywords(42)
	if err != nil || !changed {
		t.Fatalf("ClearKeywords = %v, %v; want true, nil", changed, err)
	}
	if got := r.Keywords(42); len(got) != 0 {
		t.Errorf("Keywords after clear = %v", got)
	}

	changed, err = r.ClearKeywords(42)
	if err != nil || changed {
		t.Errorf("second ClearKeywords = %v, %v; want false, nil", changed, err)
	}

	reloaded := Load(store)
	if got := reloaded.Keywords(42); len(got) != 0 {
		t.Errorf("cleared entry should not reappear after reload, got %v", got)
	}
}

func TestSubscribersStableOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	for _, id := range []int64{300, 7, 1001, 42} {
		if err := r.Subscribe(id); err != nil {
			t.Fatalf("Subscribe(%d): %v", id, err)
		}
	}

	want := []int64{7, 42, 300, 1001}
	got := r.Subscribers()
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Subscribers()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestKeywordsReturnsCopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	_ = r.SetKeywords(1, []string{"btc"})

	got := r.Keywords(1)
	got[0] = "mutated"

	if r.Keywords(1)[0] != "btc" {
		t.Error("Keywords should return a copy")
	}
}
