package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// SubmissionService defines the triage operations over the submission
// collection. Every operation requires a live operator session, checked
// fresh per call.
type SubmissionService interface {
	// List returns one window of the filtered collection, newest first.
	List(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error)

	// UpdateStatus moves a submission to any of the four triage states
	// and stamps updated_at. No transition ordering is enforced.
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Submission, error)

	// Delete removes a submission permanently. Deleting an absent id
	// fails with remote.ErrNotFound rather than succeeding silently.
	Delete(ctx context.Context, id string) error
}

// submissionServiceImpl is the production implementation of
// SubmissionService.
type submissionServiceImpl struct {
	remote   remote.DataService
	sessions SessionSource
	now      func() time.Time
}

// NewSubmissionService creates a SubmissionService backed by the given
// data service, gated on the given session source.
func NewSubmissionService(ds remote.DataService, sessions SessionSource) SubmissionService {
	return &submissionServiceImpl{remote: ds, sessions: sessions, now: time.Now}
}

// requireSession fails with ErrNotAuthenticated when no live session
// exists. Evaluated fresh on every call: an asynchronous revocation since
// the previous call must fail the next one, so the answer is never cached.
func (s *submissionServiceImpl) requireSession() error {
	if s.sessions.CurrentSession() == nil {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *submissionServiceImpl) List(ctx context.Context, page model.PageRequest, filter model.FilterSpec) (*model.PageResult, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	page = page.Normalize()
	res, err := s.remote.QuerySubmissions(ctx, remote.SubmissionQuery{
		Filter:     filter,
		RangeStart: page.Offset(),
		RangeEnd:   page.Offset() + page.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return model.NewPageResult(res.Rows, res.MatchedCount, page), nil
}

func (s *submissionServiceImpl) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Submission, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updated, err := s.remote.UpdateSubmission(ctx, id, remote.SubmissionPatch{
		Status:    status,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("update submission %s: %w", id, err)
	}
	return updated, nil
}

func (s *submissionServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if err := s.remote.DeleteSubmission(ctx, id); err != nil {
		return fmt.Errorf("delete submission %s: %w", id, err)
	}
	return nil
}
