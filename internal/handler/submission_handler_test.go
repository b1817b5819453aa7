package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
	"github.com/rafidev/contact-admin/internal/service"
)

// ---------------------------------------------------------------------------
// Mock SubmissionService
// ---------------------------------------------------------------------------

type mockSubmissionService struct {
	listFunc   func(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error)
	updateFunc func(ctx context.Context, id string, status model.Status) (*model.Submission, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockSubmissionService) List(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, page, filter)
	}
	return &model.PageResult{Items: []*model.Submission{}}, nil
}

func (m *mockSubmissionService) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Submission, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, status)
	}
	return nil, nil
}

func (m *mockSubmissionService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// patchRequest builds a PATCH request with the {id} path value set, the
// way the ServeMux would.
func patchRequest(id, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/admin/submissions/%s/status", id), strings.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

// ---------------------------------------------------------------------------
// GET /api/admin/submissions
// ---------------------------------------------------------------------------

func TestSubmissionHandler_List_ParsesQuery(t *testing.T) {
	var gotPage model.PageRequest
	var gotFilter model.FilterSpec
	mock := &mockSubmissionService{
		listFunc: func(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
			gotPage, gotFilter = page, filter
			return model.NewPageResult(nil, 0, page.Normalize()), nil
		},
	}
	h := NewSubmissionHandler(mock)

	req := httptest.NewRequest(http.MethodGet,
		"/api/admin/submissions?page=3&page_size=25&status=unread&search=alice&from=2025-05-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", rec.Code, rec.Body.String())
	}
	if gotPage.Page != 3 || gotPage.PageSize != 25 {
		t.Errorf("page = %+v", gotPage)
	}
	if gotFilter.Status != "unread" || gotFilter.Search != "alice" {
		t.Errorf("filter = %+v", gotFilter)
	}
	want := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if !gotFilter.From.Equal(want) {
		t.Errorf("from = %v", gotFilter.From)
	}
}

func TestSubmissionHandler_List_EmptyItemsNotNull(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		listFunc: func(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
			return model.NewPageResult(nil, 0, page.Normalize()), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if strings.Contains(rec.Body.String(), `"items":null`) {
		t.Errorf("empty pages must serialize as [], got %s", rec.Body.String())
	}
}

func TestSubmissionHandler_List_InvalidFrom(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions?from=yesterday", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmissionHandler_List_NotAuthenticated(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		listFunc: func(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
			return nil, service.ErrNotAuthenticated
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "not_authenticated" {
		t.Errorf("error code = %q", resp["error"])
	}
}

func TestSubmissionHandler_List_UpstreamFailure(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		listFunc: func(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
			return nil, fmt.Errorf("list submissions: %w", remote.Transport("query", context.DeadlineExceeded))
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// PATCH /api/admin/submissions/{id}/status
// ---------------------------------------------------------------------------

func TestSubmissionHandler_UpdateStatus_Success(t *testing.T) {
	var gotID string
	var gotStatus model.Status
	mock := &mockSubmissionService{
		updateFunc: func(ctx context.Context, id string, status model.Status) (*model.Submission, error) {
			gotID, gotStatus = id, status
			return &model.Submission{ID: id, Status: status}, nil
		},
	}
	h := NewSubmissionHandler(mock)

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, patchRequest("sub-1", `{"status":"replied"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", rec.Code, rec.Body.String())
	}
	if gotID != "sub-1" || gotStatus != model.StatusReplied {
		t.Errorf("service called with %q / %q", gotID, gotStatus)
	}
}

func TestSubmissionHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		updateFunc: func(ctx context.Context, id string, status model.Status) (*model.Submission, error) {
			return nil, fmt.Errorf("%w: %q", service.ErrInvalidStatus, status)
		},
	})

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, patchRequest("sub-1", `{"status":"starred"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmissionHandler_UpdateStatus_NotFound(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		updateFunc: func(ctx context.Context, id string, status model.Status) (*model.Submission, error) {
			return nil, fmt.Errorf("update submission %s: %w", id, remote.ErrNotFound)
		},
	})

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, patchRequest("ghost", `{"status":"read"}`))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmissionHandler_UpdateStatus_InvalidJSON(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{})

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, patchRequest("sub-1", `{not json`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// DELETE /api/admin/submissions/{id}
// ---------------------------------------------------------------------------

func TestSubmissionHandler_Delete_Success(t *testing.T) {
	var gotID string
	h := NewSubmissionHandler(&mockSubmissionService{
		deleteFunc: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/submissions/sub-9", nil)
	req.SetPathValue("id", "sub-9")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if gotID != "sub-9" {
		t.Errorf("deleted %q", gotID)
	}
}

func TestSubmissionHandler_Delete_NotFound(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{
		deleteFunc: func(ctx context.Context, id string) error {
			return fmt.Errorf("delete submission %s: %w", id, remote.ErrNotFound)
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/submissions/ghost", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
