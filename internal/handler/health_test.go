package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rafidev/contact-admin/internal/remote"
)

// pingStub only answers Ping; the embedded interface panics on anything
// else, which is what we want from a health check.
type pingStub struct {
	remote.DataService
	err error
}

func (p *pingStub) Ping(ctx context.Context) error { return p.err }

func TestHealth_OK(t *testing.T) {
	h := NewHealthHandler(&pingStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealth_BackendDown(t *testing.T) {
	h := NewHealthHandler(&pingStub{err: remote.Transport("ping", errors.New("connection refused"))})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unhealthy") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
