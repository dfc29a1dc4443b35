package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/internal/prefs"
	"github.com/Polqt/iComplain/types"
)

// DefaultSearchDebounce is how long the store waits after the last
// keystroke before a query actually hits the network.
const DefaultSearchDebounce = 300 * time.Millisecond

// SearchState is the snapshot the search store publishes. SelectedIndex is
// -1 when nothing is selected.
type SearchState struct {
	Query          string
	Results        []types.SearchResult
	RecentSearches []string
	IsSearching    bool
	SelectedIndex  int
}

// SearchStore owns the global search box: debounced queries, the last
// result set, keyboard selection and the persisted recent-search history.
// Only the last query inside a debounce window fires a request, and each
// request carries a sequence number so a slow stale response can never
// overwrite the results of a newer query.
type SearchStore struct {
	obs      observable[SearchState]
	api      *client.Client
	prefs    *prefs.Store
	log      *zap.Logger
	debounce time.Duration

	timerMu sync.Mutex
	timer   *time.Timer
	seq     uint64
}

// NewSearchStore creates a search store. Pass debounce 0 for the default;
// prefs may be nil to keep history in memory only.
func NewSearchStore(api *client.Client, p *prefs.Store, debounce time.Duration, log *zap.Logger) *SearchStore {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	s := &SearchStore{api: api, prefs: p, log: log.Named("search"), debounce: debounce}
	s.obs.update(func(st SearchState) SearchState {
		st.SelectedIndex = -1
		return st
	})
	return s
}

// Snapshot returns the current state.
func (s *SearchStore) Snapshot() SearchState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *SearchStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

// SetQuery records the query text without searching, resetting selection.
func (s *SearchStore) SetQuery(query string) {
	s.obs.update(func(st SearchState) SearchState {
		st.Query = query
		st.SelectedIndex = -1
		return st
	})
}

// Search schedules a debounced search. A newer call supersedes the pending
// timer, so rapid keystrokes resolve to a single request for the final
// query. A blank query clears the results without touching the network.
func (s *SearchStore) Search(ctx context.Context, query string) {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	seq := s.seq
	s.timerMu.Unlock()

	if strings.TrimSpace(query) == "" {
		s.obs.update(func(st SearchState) SearchState {
			st.Query = ""
			st.Results = nil
			st.IsSearching = false
			st.SelectedIndex = -1
			return st
		})
		return
	}

	s.obs.update(func(st SearchState) SearchState {
		st.Query = query
		st.IsSearching = true
		return st
	})

	s.timerMu.Lock()
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, query, seq)
	})
	s.timerMu.Unlock()
}

// run fires the actual request once the debounce window closed. Responses
// belonging to a superseded query are discarded.
func (s *SearchStore) run(ctx context.Context, query string, seq uint64) {
	results, err := s.api.Tickets.Search(ctx, query, 0)

	s.timerMu.Lock()
	stale := seq != s.seq
	s.timerMu.Unlock()
	if stale {
		return
	}

	if err != nil {
		s.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		s.obs.update(func(st SearchState) SearchState {
			st.Results = nil
			st.IsSearching = false
			st.SelectedIndex = -1
			return st
		})
		return
	}

	s.obs.update(func(st SearchState) SearchState {
		st.Results = results
		st.IsSearching = false
		if len(results) > 0 {
			st.SelectedIndex = 0
		} else {
			st.SelectedIndex = -1
		}
		return st
	})
}

// Clear resets the query and results, keeping the recent-search history.
func (s *SearchStore) Clear() {
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	s.timerMu.Unlock()

	s.obs.update(func(st SearchState) SearchState {
		return SearchState{RecentSearches: st.RecentSearches, SelectedIndex: -1}
	})
}

// AddRecentSearch pushes a committed query onto the history: front of the
// list, de-duplicated, bounded, persisted.
func (s *SearchStore) AddRecentSearch(query string) {
	if strings.TrimSpace(query) == "" {
		return
	}

	s.obs.update(func(st SearchState) SearchState {
		if s.prefs != nil {
			st.RecentSearches = s.prefs.AddRecentSearch(query)
			return st
		}
		recent := make([]string, 0, prefs.MaxRecentSearches)
		recent = append(recent, query)
		for _, q := range st.RecentSearches {
			if q != query && len(recent) < prefs.MaxRecentSearches {
				recent = append(recent, q)
			}
		}
		st.RecentSearches = recent
		return st
	})
}

// LoadRecentSearches pulls the persisted history into the state.
func (s *SearchStore) LoadRecentSearches() {
	if s.prefs == nil {
		return
	}
	recent := s.prefs.RecentSearches()
	s.obs.update(func(st SearchState) SearchState {
		st.RecentSearches = recent
		return st
	})
}

// ClearRecentSearches drops the history, persisted copy included.
func (s *SearchStore) ClearRecentSearches() {
	if s.prefs != nil {
		s.prefs.ClearRecentSearches()
	}
	s.obs.update(func(st SearchState) SearchState {
		st.RecentSearches = nil
		return st
	})
}

// SelectNext advances the keyboard selection, wrapping to the top.
func (s *SearchStore) SelectNext() {
	s.obs.update(func(st SearchState) SearchState {
		if len(st.Results) == 0 {
			return st
		}
		if st.SelectedIndex < len(st.Results)-1 {
			st.SelectedIndex++
		} else {
			st.SelectedIndex = 0
		}
		return st
	})
}

// SelectPrevious moves the keyboard selection up, wrapping to the bottom.
func (s *SearchStore) SelectPrevious() {
	s.obs.update(func(st SearchState) SearchState {
		if len(st.Results) == 0 {
			return st
		}
		if st.SelectedIndex > 0 {
			st.SelectedIndex--
		} else {
			st.SelectedIndex = len(st.Results) - 1
		}
		return st
	})
}

// SelectedResult returns the highlighted result, or nil.
func (s *SearchStore) SelectedResult() *types.SearchResult {
	st := s.obs.Snapshot()
	if st.SelectedIndex < 0 || st.SelectedIndex >= len(st.Results) {
		return nil
	}
	r := st.Results[st.SelectedIndex]
	return &r
}
