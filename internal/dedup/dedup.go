// Package dedup decides which fetched events are genuinely new. It owns the
// monotonic seen-event set and the volume heuristics that keep cold starts
// and restart gaps from flooding subscribers with pre-existing events.
package dedup

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/models"
	"github.com/polydictions/bot/internal/storage"
)

// EventSource lists recent events, newest first.
type EventSource interface {
	FetchRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// Config holds the fetch limits and volume policy.
//
// The volume thresholds are heuristics: an unseen event that has already
// accumulated a lot of volume was almost certainly created before our last
// observation window, so it is recorded without notifying.
type Config struct {
	BootstrapLimit    int
	RefreshLimit      int
	PollLimit         int
	PreexistingVolume float64
	SuppressVolume    float64
}

// Engine tracks seen event ids across polls. The set only grows; ids are
// never removed.
type Engine struct {
	mu     sync.Mutex
	source EventSource
	store  *storage.Store
	seen   map[string]struct{}
	config Config
}

// New restores the seen set from storage and returns an engine.
func New(source EventSource, store *storage.Store, config Config) *Engine {
	e := &Engine{
		source: source,
		store:  store,
		seen:   store.LoadSeenEvents(),
		config: config,
	}
	logger.Info("Loaded %d seen events", len(e.seen))
	return e
}

// Bootstrap seeds the seen set before the recurring loop starts.
//
// On a cold start (empty persisted set) everything currently visible is
// treated as already known, regardless of volume. On a warm start, unseen
// events whose volume exceeds the pre-existing threshold are recorded
// silently; only low-volume unseen events are left to surface on the first
// live tick.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	cold := len(e.seen) == 0
	e.mu.Unlock()

	if cold {
		logger.Info("Seen set is empty, initializing with up to %d recent events", e.config.BootstrapLimit)
		events, err := e.source.FetchRecentEvents(ctx, e.config.BootstrapLimit)
		if err != nil {
			return err
		}
		e.mu.Lock()
		for i := range events {
			if id := string(events[i].ID); id != "" {
				e.seen[id] = struct{}{}
			}
		}
		count := len(e.seen)
		e.persistLocked()
		e.mu.Unlock()
		logger.Info("Initialized seen set with %d events", count)
		return nil
	}

	logger.Info("Refreshing seen set to cover any restart gap")
	events, err := e.source.FetchRecentEvents(ctx, e.config.RefreshLimit)
	if err != nil {
		return err
	}
	e.mu.Lock()
	added := 0
	for i := range events {
		id := string(events[i].ID)
		if id == "" {
			continue
		}
		if _, ok := e.seen[id]; ok {
			continue
		}
		if volume := events[i].VolumeValue(); volume > e.config.PreexistingVolume {
			e.seen[id] = struct{}{}
			added++
			logger.Info("Marked missed event as seen: id=%s volume=%.0f", id, volume)
		}
	}
	if added > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()
	if added > 0 {
		logger.Info("Added %d previously missed events to seen set", added)
	}
	return nil
}

// Tick fetches the newest events and returns the genuinely new ones in API
// order. The seen set is persisted before the new events are handed back, so
// a crash can drop a notification but never duplicate one.
func (e *Engine) Tick(ctx context.Context) ([]models.Event, error) {
	cycle := uuid.New().String()[:8]

	recent, err := e.source.FetchRecentEvents(ctx, e.config.PollLimit)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	var fresh []models.Event
	var alreadySeen, suppressed int
	for i := range recent {
		id := string(recent[i].ID)
		if id == "" {
			continue
		}
		if _, ok := e.seen[id]; ok {
			alreadySeen++
			continue
		}
		e.seen[id] = struct{}{}
		if volume := recent[i].VolumeValue(); volume > e.config.SuppressVolume {
			suppressed++
			logger.Info("[%s] Suppressed high-volume event: id=%s volume=%.0f title=%.50s",
				cycle, id, volume, recent[i].Title)
			continue
		}
		fresh = append(fresh, recent[i])
		logger.Info("[%s] New event found: id=%s volume=%.0f title=%.50s",
			cycle, id, recent[i].VolumeValue(), recent[i].Title)
	}
	if len(fresh) > 0 || suppressed > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()

	logger.Info("[%s] Checked %d events: %d new, %d already seen, %d suppressed (high volume)",
		cycle, len(recent), len(fresh), alreadySeen, suppressed)
	return fresh, nil
}

// SeenCount returns the current size of the seen set.
func (e *Engine) SeenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seen)
}

// persistLocked mirrors the seen set to storage. A write failure is logged
// and accepted: the process keeps running on in-memory state.
func (e *Engine) persistLocked() {
	if err := e.store.SaveSeenEvents(e.seen); err != nil {
		logger.Error("Failed to persist seen events: %v", err)
	}
}
