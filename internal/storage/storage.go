// Package storage persists the bot's durable state as JSON documents on
// disk: subscribed users, paused users, seen event ids, and per-user keyword
// lists. Each resource is a single file rewritten atomically on every save.
// A missing file loads as empty; a corrupt file is logged and loads as empty
// so the process can keep running on in-memory state.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/polydictions/bot/internal/logger"
)

const (
	usersFile       = "users.json"
	seenEventsFile  = "seen_events.json"
	keywordsFile    = "keywords.json"
	pausedUsersFile = "paused_users.json"
)

// Store reads and writes the four named state resources under a data
// directory.
type Store struct {
	dataDir string
}

// New creates the data directory if needed and returns a store rooted there.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

type userDoc struct {
	Users []int64 `json:"users"`
}

type eventDoc struct {
	Events []string `json:"events"`
}

// LoadUsers returns the subscribed user set.
func (s *Store) LoadUsers() map[int64]struct{} {
	return s.loadUserSet(usersFile)
}

// SaveUsers rewrites the subscribed user set.
func (s *Store) SaveUsers(users map[int64]struct{}) error {
	return s.saveUserSet(usersFile, users)
}

// LoadPausedUsers returns the paused user set.
func (s *Store) LoadPausedUsers() map[int64]struct{} {
	return s.loadUserSet(pausedUsersFile)
}

// SavePausedUsers rewrites the paused user set.
func (s *Store) SavePausedUsers(users map[int64]struct{}) error {
	return s.saveUserSet(pausedUsersFile, users)
}

// LoadSeenEvents returns the set of already-seen event ids.
func (s *Store) LoadSeenEvents() map[string]struct{} {
	var doc eventDoc
	if !s.loadJSON(seenEventsFile, &doc) {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(doc.Events))
	for _, id := range doc.Events {
		set[id] = struct{}{}
	}
	return set
}

// SaveSeenEvents rewrites the seen event id set.
func (s *Store) SaveSeenEvents(events map[string]struct{}) error {
	ids := make([]string, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return s.saveJSON(seenEventsFile, eventDoc{Events: ids})
}

// LoadKeywords returns the per-user keyword lists.
func (s *Store) LoadKeywords() map[int64][]string {
	raw := map[string][]string{}
	if !s.loadJSON(keywordsFile, &raw) {
		return map[int64][]string{}
	}
	keywords := make(map[int64][]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			logger.Warn("Skipping non-numeric keyword entry %q", k)
			continue
		}
		keywords[id] = v
	}
	return keywords
}

// SaveKeywords rewrites the per-user keyword lists.
func (s *Store) SaveKeywords(keywords map[int64][]string) error {
	raw := make(map[string][]string, len(keywords))
	for id, list := range keywords {
		raw[strconv.FormatInt(id, 10)] = list
	}
	return s.saveJSON(keywordsFile, raw)
}

func (s *Store) loadUserSet(name string) map[int64]struct{} {
	var doc userDoc
	if !s.loadJSON(name, &doc) {
		return map[int64]struct{}{}
	}
	set := make(map[int64]struct{}, len(doc.Users))
	for _, id := range doc.Users {
		set[id] = struct{}{}
	}
	return set
}

func (s *Store) saveUserSet(name string, users map[int64]struct{}) error {
	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return s.saveJSON(name, userDoc{Users: ids})
}

// loadJSON reports whether the resource existed and decoded cleanly.
func (s *Store) loadJSON(name string, v any) bool {
	path := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("Failed to read %s: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Error("Failed to decode %s, starting empty: %v", name, err)
		return false
	}
	return true
}

// saveJSON fully rewrites a resource via a temp file and rename, so readers
// never observe a partial document.
func (s *Store) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(s.dataDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
