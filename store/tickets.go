package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/types"
)

// TicketsState is the snapshot the tickets store publishes. Tickets holds
// only the current page of the last list load; pages are not accumulated.
type TicketsState struct {
	Tickets   []types.Ticket
	Total     int
	IsLoading bool
	Error     string
}

// TicketsStore owns the ticket collection. Network mutators reconcile the
// server response into the collection; the Add/Patch/Remove fast paths apply
// the same upsert discipline for socket-pushed changes.
type TicketsStore struct {
	obs observable[TicketsState]
	api *client.Client
	log *zap.Logger

	// last list load, replayed by Reload when the channel sees a create
	loadMu    sync.Mutex
	lastOpts  client.ListOptions
	community bool
}

// NewTicketsStore creates a tickets store backed by the given API client.
func NewTicketsStore(api *client.Client, log *zap.Logger) *TicketsStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketsStore{api: api, log: log.Named("tickets")}
}

// Snapshot returns the current state.
func (s *TicketsStore) Snapshot() TicketsState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *TicketsStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

// normalizeTicket substitutes the Unknown sentinels for tickets that arrive
// without a category or priority.
func normalizeTicket(t types.Ticket) types.Ticket {
	if t.Category == (types.Category{}) {
		t.Category = types.Category{ID: 0, Name: "Unknown"}
	}
	if t.Priority == (types.TicketPriority{}) {
		t.Priority = types.UnknownPriority
	}
	return t
}

func (s *TicketsStore) beginLoad() {
	s.obs.update(func(st TicketsState) TicketsState {
		st.IsLoading = true
		st.Error = ""
		return st
	})
}

func (s *TicketsStore) fail(format string, err error) {
	msg := fmt.Sprintf(format, errors.Message(err))
	s.log.Warn("ticket operation failed", zap.String("error", msg))
	s.obs.update(func(st TicketsState) TicketsState {
		st.IsLoading = false
		st.Error = msg
		return st
	})
}

// Load fetches one page of the caller's tickets and replaces the collection
// wholesale. Failures are recorded in the Error field, never returned.
func (s *TicketsStore) Load(ctx context.Context, opts client.ListOptions) {
	s.loadMu.Lock()
	s.lastOpts = opts
	s.community = false
	s.loadMu.Unlock()

	s.beginLoad()
	list, err := s.api.Tickets.List(ctx, &opts)
	if err != nil {
		s.fail("Failed to load tickets: %s", err)
		return
	}
	s.replacePage(list)
}

// LoadCommunity fetches one page of the community ticket board.
func (s *TicketsStore) LoadCommunity(ctx context.Context, opts client.ListOptions) {
	s.loadMu.Lock()
	s.lastOpts = opts
	s.community = true
	s.loadMu.Unlock()

	s.beginLoad()
	list, err := s.api.Tickets.ListCommunity(ctx, &opts)
	if err != nil {
		s.fail("Failed to load tickets: %s", err)
		return
	}
	s.replacePage(list)
}

// Reload repeats the most recent list load with the same pagination. The
// realtime channel calls this when a ticket-created event arrives.
func (s *TicketsStore) Reload(ctx context.Context) {
	s.loadMu.Lock()
	opts, community := s.lastOpts, s.community
	s.loadMu.Unlock()

	if community {
		s.LoadCommunity(ctx, opts)
		return
	}
	s.Load(ctx, opts)
}

func (s *TicketsStore) replacePage(list *types.TicketList) {
	items := make([]types.Ticket, len(list.Items))
	for i, t := range list.Items {
		items[i] = normalizeTicket(t)
	}
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = items
		st.Total = list.Total
		st.IsLoading = false
		st.Error = ""
		return st
	})
}

// LoadByID fetches a single ticket and merges it by id: replaced in place
// when already present, appended otherwise. Returns nil on failure with the
// error recorded in state.
func (s *TicketsStore) LoadByID(ctx context.Context, id int) *types.Ticket {
	s.beginLoad()
	ticket, err := s.api.Tickets.Get(ctx, id)
	if err != nil {
		s.fail("Failed to load tickets: %s", err)
		return nil
	}

	t := normalizeTicket(*ticket)
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = upsert(st.Tickets, t, false)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &t
}

// Create files a new ticket and prepends the server's version of it.
func (s *TicketsStore) Create(ctx context.Context, payload types.TicketCreatePayload, attachment *types.Upload) *types.Ticket {
	s.beginLoad()
	ticket, err := s.api.Tickets.Create(ctx, payload, attachment)
	if err != nil {
		s.fail("Failed to create ticket: %s", err)
		return nil
	}

	t := normalizeTicket(*ticket)
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = upsert(st.Tickets, t, true)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &t
}

// Update applies a partial update and replaces the stored entry by id.
func (s *TicketsStore) Update(ctx context.Context, id int, payload types.TicketUpdatePayload, attachment *types.Upload) *types.Ticket {
	s.beginLoad()
	ticket, err := s.api.Tickets.Update(ctx, id, payload, attachment)
	if err != nil {
		s.fail("Failed to update ticket: %s", err)
		return nil
	}

	t := normalizeTicket(*ticket)
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = replaceByID(st.Tickets, t)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &t
}

// AdminPatch updates status/priority through the admin endpoint.
func (s *TicketsStore) AdminPatch(ctx context.Context, id int, patch types.TicketAdminPatch) *types.Ticket {
	s.beginLoad()
	ticket, err := s.api.Tickets.AdminPatch(ctx, id, patch)
	if err != nil {
		s.fail("%s", err)
		return nil
	}

	t := normalizeTicket(*ticket)
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = replaceByID(st.Tickets, t)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return &t
}

// Delete removes a ticket server-side and locally. Reports success; the
// failure message is recorded in state.
func (s *TicketsStore) Delete(ctx context.Context, id int) bool {
	s.beginLoad()
	if err := s.api.Tickets.Delete(ctx, id); err != nil {
		s.fail("Failed to delete ticket: %s", err)
		return false
	}

	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = removeByID(st.Tickets, id)
		st.IsLoading = false
		st.Error = ""
		return st
	})
	return true
}

// AddTicket is the fast-path insert driven by the realtime channel. Upsert
// by id: an entry that already exists is replaced in place, a new one is
// prepended, so replays of the same event cannot duplicate.
func (s *TicketsStore) AddTicket(t types.Ticket) {
	t = normalizeTicket(t)
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = upsert(st.Tickets, t, true)
		return st
	})
}

// PatchTicket is the fast-path partial update: mutate runs against a copy
// of the stored entry and the result replaces it, with UpdatedAt touched.
// Unknown ids are ignored.
func (s *TicketsStore) PatchTicket(id int, mutate func(*types.Ticket)) {
	s.obs.update(func(st TicketsState) TicketsState {
		out := make([]types.Ticket, len(st.Tickets))
		for i, t := range st.Tickets {
			if t.ID == id {
				mutate(&t)
				t.UpdatedAt = time.Now()
			}
			out[i] = t
		}
		st.Tickets = out
		return st
	})
}

// RemoveTicket is the fast-path removal by id.
func (s *TicketsStore) RemoveTicket(id int) {
	s.obs.update(func(st TicketsState) TicketsState {
		st.Tickets = removeByID(st.Tickets, id)
		return st
	})
}

// SetError records an error message directly; used by callers that validate
// before hitting the network.
func (s *TicketsStore) SetError(msg string) {
	s.obs.update(func(st TicketsState) TicketsState {
		st.Error = msg
		st.IsLoading = false
		return st
	})
}

// upsert replaces the entry matching t's id, or inserts t when absent:
// prepended when prepend is set, appended otherwise.
func upsert(tickets []types.Ticket, t types.Ticket, prepend bool) []types.Ticket {
	for i, existing := range tickets {
		if existing.ID == t.ID {
			out := make([]types.Ticket, len(tickets))
			copy(out, tickets)
			out[i] = t
			return out
		}
	}
	if prepend {
		out := make([]types.Ticket, 0, len(tickets)+1)
		out = append(out, t)
		return append(out, tickets...)
	}
	out := make([]types.Ticket, len(tickets), len(tickets)+1)
	copy(out, tickets)
	return append(out, t)
}

// replaceByID swaps the matching entry and leaves the collection unchanged
// when the id is absent.
func replaceByID(tickets []types.Ticket, t types.Ticket) []types.Ticket {
	out := make([]types.Ticket, len(tickets))
	for i, existing := range tickets {
		if existing.ID == t.ID {
			out[i] = t
		} else {
			out[i] = existing
		}
	}
	return out
}

func removeByID(tickets []types.Ticket, id int) []types.Ticket {
	out := make([]types.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
