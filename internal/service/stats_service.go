package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// StatsService derives dashboard counts from the submission collection.
type StatsService interface {
	// Compute fetches the (status, created_at) projection of every
	// visible submission and reduces it. This is an O(n) full scan each
	// call, not a maintained counter; acceptable at contact-form volume
	// but callers must not assume O(1).
	Compute(ctx context.Context) (*model.StatisticsSnapshot, error)
}

type statsServiceImpl struct {
	remote   remote.DataService
	sessions SessionSource
	now      func() time.Time
}

// NewStatsService creates a StatsService gated on the given session
// source.
func NewStatsService(ds remote.DataService, sessions SessionSource) StatsService {
	return &statsServiceImpl{remote: ds, sessions: sessions, now: time.Now}
}

func (s *statsServiceImpl) Compute(ctx context.Context) (*model.StatisticsSnapshot, error) {
	if s.sessions.CurrentSession() == nil {
		return nil, ErrNotAuthenticated
	}

	rows, err := s.remote.FetchStatusTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute statistics: %w", err)
	}

	now := s.now()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	snap := &model.StatisticsSnapshot{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case model.StatusUnread:
			snap.Unread++
		case model.StatusReplied:
			snap.Replied++
		}
		if r.CreatedAt.After(dayAgo) {
			snap.Last24Hours++
		}
		if r.CreatedAt.After(weekAgo) {
			snap.Last7Days++
		}
	}
	return snap, nil
}
