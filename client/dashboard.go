package client

import (
	"context"

	"github.com/Polqt/iComplain/types"
)

// DashboardService fetches aggregate statistics. Stats are a read-only
// snapshot; they are never cached in a store.
type DashboardService struct {
	client *Client
}

// GetStats retrieves dashboard statistics.
func (s *DashboardService) GetStats(ctx context.Context) (*types.DashboardStats, error) {
	var result types.DashboardStats
	err := s.client.Get(ctx, "/dashboard/stats", &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
