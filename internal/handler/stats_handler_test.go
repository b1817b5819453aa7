package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/service"
)

type mockStatsService struct {
	computeFunc func(ctx context.Context) (*model.StatisticsSnapshot, error)
}

func (m *mockStatsService) Compute(ctx context.Context) (*model.StatisticsSnapshot, error) {
	if m.computeFunc != nil {
		return m.computeFunc(ctx)
	}
	return &model.StatisticsSnapshot{}, nil
}

func TestStatsHandler_Get_Success(t *testing.T) {
	h := NewStatsHandler(&mockStatsService{
		computeFunc: func(ctx context.Context) (*model.StatisticsSnapshot, error) {
			return &model.StatisticsSnapshot{Total: 10, Unread: 4, Replied: 3, Last24Hours: 2, Last7Days: 6}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/statistics", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap model.StatisticsSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Total != 10 || snap.Unread != 4 || snap.Last7Days != 6 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestStatsHandler_Get_NotAuthenticated(t *testing.T) {
	h := NewStatsHandler(&mockStatsService{
		computeFunc: func(ctx context.Context) (*model.StatisticsSnapshot, error) {
			return nil, service.ErrNotAuthenticated
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/statistics", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
