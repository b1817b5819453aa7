package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// ---------------------------------------------------------------------------
// fakeDataService — deterministic in-memory remote.DataService for tests
// ---------------------------------------------------------------------------

type fakeDataService struct {
	mu     sync.Mutex
	broker *remote.EventBroker

	session     *model.Session
	passwords   map[string]string // email → password
	submissions []*model.Submission

	signInErr  error
	currentErr error
	queryErr   error
	fetchErr   error

	signOutCalls int
	queryCalls   int
}

func newFakeDataService() *fakeDataService {
	return &fakeDataService{
		broker:    remote.NewEventBroker(),
		passwords: make(map[string]string),
	}
}

var _ remote.DataService = (*fakeDataService)(nil)

func (f *fakeDataService) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	want, ok := f.passwords[email]
	if !ok || want != password {
		return nil, remote.ErrInvalidCredentials
	}
	f.session = &model.Session{
		Identity:    model.Identity{Email: email},
		AccessToken: "token-" + email,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	return f.session, nil
}

func (f *fakeDataService) CurrentSession(ctx context.Context) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.session, nil
}

func (f *fakeDataService) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.session = nil
	f.signOutCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeDataService) SubscribeAuthEvents(h remote.AuthEventHandler) func() {
	return f.broker.Subscribe(h)
}

// emit delivers an asynchronous auth event, as the real services do from
// their refresh and expiry goroutines.
func (f *fakeDataService) emit(ev remote.AuthEvent) {
	f.broker.Emit(ev)
}

func (f *fakeDataService) QuerySubmissions(ctx context.Context, q remote.SubmissionQuery) (*remote.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	matched := make([]*model.Submission, 0, len(f.submissions))
	for _, sub := range f.submissions {
		if matchesFilter(sub, q.Filter) {
			matched = append(matched, sub)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := q.RangeStart, q.RangeEnd
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	window := append([]*model.Submission(nil), matched[start:end]...)
	return &remote.QueryResult{Rows: window, MatchedCount: len(matched)}, nil
}

func matchesFilter(sub *model.Submission, f model.FilterSpec) bool {
	if f.HasStatus() && string(sub.Status) != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(sub.Name), needle) &&
			!strings.Contains(strings.ToLower(sub.Email), needle) &&
			!strings.Contains(strings.ToLower(sub.Subject), needle) {
			return false
		}
	}
	if !f.From.IsZero() && sub.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && sub.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func (f *fakeDataService) FetchStatusTimes(ctx context.Context) ([]remote.StatusTime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]remote.StatusTime, 0, len(f.submissions))
	for _, sub := range f.submissions {
		out = append(out, remote.StatusTime{Status: sub.Status, CreatedAt: sub.CreatedAt})
	}
	return out, nil
}

func (f *fakeDataService) UpdateSubmission(ctx context.Context, id string, patch remote.SubmissionPatch) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.submissions {
		if sub.ID == id {
			sub.Status = patch.Status
			t := patch.UpdatedAt
			sub.UpdatedAt = &t
			copied := *sub
			return &copied, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeDataService) DeleteSubmission(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.submissions {
		if sub.ID == id {
			f.submissions = append(f.submissions[:i], f.submissions[i+1:]...)
			return nil
		}
	}
	return remote.ErrNotFound
}

func (f *fakeDataService) Ping(ctx context.Context) error { return nil }

// seedSubmissions adds n submissions with the given status, each one
// minute older than the last, IDs "<prefix>-1" (newest) through
// "<prefix>-n" (oldest).
func (f *fakeDataService) seedSubmissions(prefix string, status model.Status, n int, newest time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.submissions = append(f.submissions, &model.Submission{
			ID:        fmt.Sprintf("%s-%d", prefix, i+1),
			Name:      "Sender " + prefix,
			Email:     prefix + "@example.com",
			Message:   "hello",
			Status:    status,
			CreatedAt: newest.Add(-time.Duration(i) * time.Minute),
		})
	}
}

// authedSessions is a SessionSource that always reports a live session.
type authedSessions struct{}

func (authedSessions) CurrentSession() *model.Session {
	return &model.Session{Identity: model.Identity{Email: "op@example.com"}}
}

// noSessions is a SessionSource with no session.
type noSessions struct{}

func (noSessions) CurrentSession() *model.Session { return nil }
