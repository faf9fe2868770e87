package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/polydictions/bot/internal/models"
	"github.com/polydictions/bot/internal/registry"
	"github.com/polydictions/bot/internal/storage"
)

type fakeTransport struct {
	sent    []int64
	texts   []string
	failFor map[int64]bool
}

func (f *fakeTransport) SendNotification(userID int64, text string) error {
	if f.failFor[userID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, userID)
	f.texts = append(f.texts, text)
	return nil
}

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return registry.Load(store)
}

func testEvent() *models.Event {
	return &models.Event{
		ID:    "77",
		Title: "Will Bitcoin hit $100k?",
		Slug:  "btc-100k",
	}
}

func TestNotifyAllSubscribers(t *testing.T) {
	reg := newTestRegistry(t)
	for _, id := range []int64{3, 1, 2} {
		_ = reg.Subscribe(id)
	}
	tr := &fakeTransport{}
	n := New(tr, reg, "https://polymarket.com", 0)

	n.Notify(context.Background(), testEvent())

	if len(tr.sent) != 3 {
		t.Fatalf("sent to %d users, want 3", len(tr.sent))
	}
	for i, want := range []int64{1, 2, 3} {
		if tr.sent[i] != want {
			t.Errorf("sent[%d] = %d, want %d", i, tr.sent[i], want)
		}
	}
	if !strings.Contains(tr.texts[0], "New Polymarket Event") {
		t.Errorf("missing header: %q", tr.texts[0])
	}
	if !strings.Contains(tr.texts[0], "Will Bitcoin hit $100k?") {
		t.Errorf("missing title: %q", tr.texts[0])
	}
}

func TestNotifySkipsPaused(t *testing.T) {
	reg := newTestRegistry(t)
	_ = reg.Subscribe(1)
	_ = reg.Subscribe(2)
	_, _ = reg.Pause(1)

	tr := &fakeTransport{}
	n := New(tr, reg, "https://polymarket.com", 0)
	n.Notify(context.Background(), testEvent())

	if len(tr.sent) != 1 || tr.sent[0] != 2 {
		t.Errorf("sent = %v, want [2]", tr.sent)
	}
}

func TestNotifyAppliesKeywordFilters(t *testing.T) {
	reg := newTestRegistry(t)
	_ = reg.Subscribe(1)
	_ = reg.Subscribe(2)
	_ = reg.Subscribe(3)
	_ = reg.SetKeywords(1, []string{"bitcoin"})
	_ = reg.SetKeywords(2, []string{"election"})

	tr := &fakeTransport{}
	n := New(tr, reg, "https://polymarket.com", 0)
	n.Notify(context.Background(), testEvent())

	// User 1 matches "bitcoin", user 2 does not, user 3 has no filters.
	if len(tr.sent) != 2 || tr.sent[0] != 1 || tr.sent[1] != 3 {
		t.Errorf("sent = %v, want [1 3]", tr.sent)
	}
}

func TestNotifyIsolatesFailures(t *testing.T) {
	reg := newTestRegistry(t)
	for _, id := range []int64{1, 2, 3} {
		_ = reg.Subscribe(id)
	}
	tr := &fakeTransport{failFor: map[int64]bool{2: true}}
	n := New(tr, reg, "https://polymarket.com", 0)

	n.Notify(context.Background(), testEvent())

	if len(tr.sent) != 2 || tr.sent[0] != 1 || tr.sent[1] != 3 {
		t.Errorf("sent = %v, want [1 3]", tr.sent)
	}
}

func TestNotifyRendersOnce(t *testing.T) {
	reg := newTestRegistry(t)
	_ = reg.Subscribe(1)
	_ = reg.Subscribe(2)

	tr := &fakeTransport{}
	n := New(tr, reg, "https://polymarket.com", 0)
	n.Notify(context.Background(), testEvent())

	if len(tr.texts) != 2 || tr.texts[0] != tr.texts[1] {
		t.Errorf("all recipients should get the same rendered text")
	}
}

func TestNotifyStopsOnCancel(t *testing.T) {
	reg := newTestRegistry(t)
	_ = reg.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := &fakeTransport{}
	n := New(tr, reg, "https://polymarket.com", 0)
	n.Notify(ctx, testEvent())

	if len(tr.sent) != 0 {
		t.Errorf("cancelled context should stop the fan-out, sent = %v", tr.sent)
	}
}
