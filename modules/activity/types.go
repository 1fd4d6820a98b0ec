package activity

import "context"

// RecentActivityRequest asks for the latest feed entries.
type RecentActivityRequest struct {
	Limit int `json:"limit"`
}

// RecentActivityResponse returns feed entries, newest first.
type RecentActivityResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// ActivityPort is the contract driving adapters use to read the feed.
type ActivityPort interface {
	RecentActivity(ctx context.Context, limit int) (*RecentActivityResponse, error)
}
