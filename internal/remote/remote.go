// Package remote defines the boundary to the data service that owns the
// submission store and issues authentication sessions. The core never
// talks to a database or HTTP API directly; it consumes this interface.
package remote

import (
	"context"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
)

// SubmissionQuery is the abstract query descriptor for one window of the
// submission collection. How it is encoded on the wire (or as SQL) is the
// implementation's concern.
type SubmissionQuery struct {
	Filter model.FilterSpec
	// RangeStart/RangeEnd are 0-based offsets into the filtered set,
	// ordered created_at descending (ties broken by id descending).
	// The window is [RangeStart, RangeEnd).
	RangeStart int
	RangeEnd   int
}

// QueryResult is one window of rows plus the total number of rows matching
// the filter independent of the window.
type QueryResult struct {
	Rows         []*model.Submission
	MatchedCount int
}

// SubmissionPatch is a partial update applied to a single submission.
type SubmissionPatch struct {
	Status    model.Status
	UpdatedAt time.Time
}

// StatusTime is the (status, created_at) projection the statistics
// aggregator reduces over.
type StatusTime struct {
	Status    model.Status
	CreatedAt time.Time
}

// AuthEventKind distinguishes asynchronous session notifications.
type AuthEventKind string

const (
	// AuthSignedIn fires when the service establishes a session, whether
	// from a fresh sign-in or from restoring persisted state.
	AuthSignedIn AuthEventKind = "signed_in"
	// AuthSignedOut fires when the session is cleared, including remote
	// expiry and revocation.
	AuthSignedOut AuthEventKind = "signed_out"
	// AuthTokenRefreshed fires when credential material is rotated
	// without operator interaction.
	AuthTokenRefreshed AuthEventKind = "token_refreshed"
)

// AuthEvent is an asynchronous session-change notification.
// Session is nil for AuthSignedOut.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *model.Session
}

// AuthEventHandler receives asynchronous session notifications. Handlers
// may be invoked from background goroutines and must not block.
type AuthEventHandler func(AuthEvent)

// DataService is the remote collaborator: session issuance and lookup plus
// filtered, paginated, counted access to the submission collection. All
// operations are fallible round trips and honor ctx cancellation.
type DataService interface {
	// SignInWithPassword verifies credentials and establishes a session.
	// Returns ErrInvalidCredentials on rejection and ErrRateLimited when
	// the service is throttling attempts.
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)

	// CurrentSession resolves any existing session, restoring persisted
	// state if the implementation keeps one. Returns (nil, nil) when no
	// session exists.
	CurrentSession(ctx context.Context) (*model.Session, error)

	// SignOut invalidates the current session. Signing out without a
	// session is not an error.
	SignOut(ctx context.Context) error

	// SubscribeAuthEvents registers a handler for asynchronous session
	// notifications and returns its unsubscribe function.
	SubscribeAuthEvents(h AuthEventHandler) (unsubscribe func())

	// QuerySubmissions returns one window of the filtered collection,
	// newest first, along with the filtered total.
	QuerySubmissions(ctx context.Context, q SubmissionQuery) (*QueryResult, error)

	// FetchStatusTimes returns the (status, created_at) projection of
	// every submission visible to the session.
	FetchStatusTimes(ctx context.Context) ([]StatusTime, error)

	// UpdateSubmission applies a patch to one submission and returns the
	// updated row. Returns ErrNotFound when the id does not exist.
	UpdateSubmission(ctx context.Context, id string, patch SubmissionPatch) (*model.Submission, error)

	// DeleteSubmission removes one submission permanently. Returns
	// ErrNotFound when the id does not exist, so callers can tell
	// "already gone" from "succeeded".
	DeleteSubmission(ctx context.Context, id string) error

	// Ping reports whether the service is reachable.
	Ping(ctx context.Context) error
}
