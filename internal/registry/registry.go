// Package registry owns the subscriber state: who is subscribed, who is
// paused, and each user's keyword filters. Every mutation is persisted
// synchronously before it returns, so an observed success implies the change
// survives a restart.
package registry

import (
	"sort"
	"sync"

	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/storage"
)

// Registry is safe for concurrent use by command handlers and the poll loop.
type Registry struct {
	mu         sync.Mutex
	store      *storage.Store
	subscribed map[int64]struct{}
	paused     map[int64]struct{}
	keywords   map[int64][]string
}

// Load restores the registry from storage.
func Load(store *storage.Store) *Registry {
	r := &Registry{
		store:      store,
		subscribed: store.LoadUsers(),
		paused:     store.LoadPausedUsers(),
		keywords:   store.LoadKeywords(),
	}
	logger.Info("Loaded %d users, %d keyword filters, %d paused users",
		len(r.subscribed), len(r.keywords), len(r.paused))
	return r
}

// Subscribe adds the user to the subscribed set.
func (r *Registry) Subscribe(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribed[userID] = struct{}{}
	return r.store.SaveUsers(r.subscribed)
}

// IsSubscribed reports whether the user has subscribed.
func (r *Registry) IsSubscribed(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subscribed[userID]
	return ok
}

// Pause mutes notifications for the user. It reports false, without
// persisting, when the user was already paused.
func (r *Registry) Pause(userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.paused[userID]; ok {
		return false, nil
	}
	r.paused[userID] = struct{}{}
	return true, r.store.SavePausedUsers(r.paused)
}

// Resume unmutes notifications for the user. It reports false, without
// persisting, when the user was not paused.
func (r *Registry) Resume(userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.paused[userID]; !ok {
		return false, nil
	}
	delete(r.paused, userID)
	return true, r.store.SavePausedUsers(r.paused)
}

// IsPaused reports whether the user has paused notifications.
func (r *Registry) IsPaused(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.paused[userID]
	return ok
}

// SetKeywords replaces the user's filter list.
func (r *Registry) SetKeywords(userID int64, filters []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keywords[userID] = filters
	return r.store.SaveKeywords(r.keywords)
}

// ClearKeywords removes the user's filter entry entirely. It reports false,
// without persisting, when the user had no entry.
func (r *Registry) ClearKeywords(userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keywords[userID]; !ok {
		return false, nil
	}
	delete(r.keywords, userID)
	return true, r.store.SaveKeywords(r.keywords)
}

// Keywords returns the user's filter list, empty when unfiltered.
func (r *Registry) Keywords(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	filters := r.keywords[userID]
	out := make([]string, len(filters))
	copy(out, filters)
	return out
}

// Subscribers returns a snapshot of subscribed user ids in ascending order,
// giving the fan-out a stable iteration order.
func (r *Registry) Subscribers() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.subscribed))
	for id := range r.subscribed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
