package store

import (
	"strings"

	"github.com/Polqt/iComplain/types"
)

// Derived views over a ticket collection. These are pure functions: they
// read a slice and return a fresh one, so callers can apply them to any
// snapshot without racing the stores.

// FilterByStatus returns the tickets matching status. An empty status
// returns a copy of the input unchanged.
func FilterByStatus(tickets []types.Ticket, status types.TicketStatus) []types.Ticket {
	out := make([]types.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// SearchTickets filters tickets by a case-insensitive substring match over
// title, description, ticket number, building and room. A blank query
// matches everything.
func SearchTickets(tickets []types.Ticket, query string) []types.Ticket {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return FilterByStatus(tickets, "")
	}
	out := make([]types.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if containsFold(t.Title, q) ||
			containsFold(t.Description, q) ||
			containsFold(t.TicketNumber, q) ||
			containsFold(t.Building, q) ||
			containsFold(t.RoomName, q) {
			out = append(out, t)
		}
	}
	return out
}

func containsFold(s, lowered string) bool {
	return strings.Contains(strings.ToLower(s), lowered)
}

// GroupByStatus buckets tickets into the four pipeline columns. Every
// status is always present in the result, even when its bucket is empty,
// so board layouts stay stable.
func GroupByStatus(tickets []types.Ticket) map[types.TicketStatus][]types.Ticket {
	groups := make(map[types.TicketStatus][]types.Ticket, len(types.PipelineOrder))
	for _, st := range types.PipelineOrder {
		groups[st] = []types.Ticket{}
	}
	for _, t := range tickets {
		if _, ok := groups[t.Status]; !ok {
			continue
		}
		groups[t.Status] = append(groups[t.Status], t)
	}
	return groups
}

// CountByStatus tallies tickets per pipeline column, zeroes included.
func CountByStatus(tickets []types.Ticket) map[types.TicketStatus]int {
	counts := make(map[types.TicketStatus]int, len(types.PipelineOrder))
	for _, st := range types.PipelineOrder {
		counts[st] = 0
	}
	for _, t := range tickets {
		if _, ok := counts[t.Status]; ok {
			counts[t.Status]++
		}
	}
	return counts
}

// PendingCount is the number of tickets still awaiting triage. In-progress
// tickets are not counted; use CountByStatus for the full breakdown.
func PendingCount(tickets []types.Ticket) int {
	n := 0
	for _, t := range tickets {
		if t.Status == types.StatusPending {
			n++
		}
	}
	return n
}
