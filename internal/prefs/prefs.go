// Package prefs persists the small pieces of client state that survive a
// restart: the recent-search history and the remembered login email. One
// JSON file, two keys, no schema versioning.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// MaxRecentSearches bounds the search history.
const MaxRecentSearches = 5

type fileState struct {
	RecentSearches []string `json:"recentSearches,omitempty"`
	RememberMe     string   `json:"rememberMe,omitempty"`
}

// Store is a concurrency-safe view over the prefs file. Reads load the file
// lazily; writes rewrite it whole.
type Store struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// New creates a prefs store at the given file path. An empty path places
// the file under the user config directory.
func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "icomplain", "prefs.json")
		} else {
			path = "icomplain-prefs.json"
		}
	}
	return &Store{path: path, log: log.Named("prefs")}
}

func (s *Store) read() fileState {
	var state fileState
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt prefs file is treated as empty, same as a missing one.
		s.log.Warn("discarding unreadable prefs file", zap.String("path", s.path), zap.Error(err))
		return fileState{}
	}
	return state
}

func (s *Store) write(state fileState) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn("failed to create prefs directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Warn("failed to save prefs", zap.Error(err))
	}
}

// RecentSearches returns the saved history, most recent first.
func (s *Store) RecentSearches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().RecentSearches
}

// AddRecentSearch pushes a query to the front of the history, de-duplicated
// and bounded to MaxRecentSearches. Blank queries are ignored.
func (s *Store) AddRecentSearch(query string) []string {
	if query == "" {
		return s.RecentSearches()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.read()
	recent := make([]string, 0, MaxRecentSearches)
	recent = append(recent, query)
	for _, q := range state.RecentSearches {
		if q != query && len(recent) < MaxRecentSearches {
			recent = append(recent, q)
		}
	}
	state.RecentSearches = recent
	s.write(state)
	return recent
}

// ClearRecentSearches drops the history.
func (s *Store) ClearRecentSearches() {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.read()
	state.RecentSearches = nil
	s.write(state)
}

// RememberedEmail returns the saved "remember me" email, or empty.
func (s *Store) RememberedEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().RememberMe
}

// SetRememberedEmail saves the "remember me" email.
func (s *Store) SetRememberedEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.read()
	state.RememberMe = email
	s.write(state)
}

// ClearRememberedEmail drops the saved email; called on logout.
func (s *Store) ClearRememberedEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.read()
	state.RememberMe = ""
	s.write(state)
}
