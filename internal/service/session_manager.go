package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// SessionSource reports the currently active session, if any. Satisfied by
// SessionManager; defined as an interface so the data services can be
// tested without a full manager.
type SessionSource interface {
	CurrentSession() *model.Session
}

// SessionManager owns the authentication state machine. It is the only
// component that mutates AuthState; everything else observes it through
// Subscribe or queries it through State/CurrentSession.
//
// Auth events from the remote service arrive on background goroutines and
// interleave with operator-initiated calls, so all state access is
// mutex-guarded. A rejected identity never rests: every authorization
// failure issues a remote sign-out before the denial is surfaced.
type SessionManager struct {
	remote remote.DataService
	policy AccessPolicy

	mu        sync.Mutex
	state     model.AuthState
	nextObs   int
	observers map[int]func(model.AuthState)

	unsubscribe func()
}

var _ SessionSource = (*SessionManager)(nil)

// NewSessionManager creates a manager in the Unknown state and subscribes
// it to the service's auth-event channel.
func NewSessionManager(ds remote.DataService, policy AccessPolicy) *SessionManager {
	m := &SessionManager{
		remote:    ds,
		policy:    policy,
		state:     model.AuthState{Stage: model.AuthUnknown},
		observers: make(map[int]func(model.AuthState)),
	}
	m.unsubscribe = ds.SubscribeAuthEvents(m.handleAuthEvent)
	return m
}

// Close detaches the manager from the auth-event channel.
func (m *SessionManager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns the current resolution of the state machine.
func (m *SessionManager) State() model.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentSession returns the last known authorized session, or nil. It does
// not re-validate against the remote service; Initialize does that once at
// startup and auth events keep the answer current afterwards.
func (m *SessionManager) CurrentSession() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Stage != model.AuthAuthenticated {
		return nil
	}
	return m.state.Session
}

// Subscribe registers an observer for state transitions and returns its
// unsubscribe function. The observer immediately receives the current
// state so late subscribers do not miss the resolution.
func (m *SessionManager) Subscribe(obs func(model.AuthState)) func() {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = obs
	current := m.state
	m.mu.Unlock()

	obs(current)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// setState records the new state and notifies observers outside the lock.
func (m *SessionManager) setState(s model.AuthState) {
	m.mu.Lock()
	m.state = s
	snapshot := make([]func(model.AuthState), 0, len(m.observers))
	for _, obs := range m.observers {
		snapshot = append(snapshot, obs)
	}
	m.mu.Unlock()

	for _, obs := range snapshot {
		obs(s)
	}
}

// Initialize resolves any persisted session at process start. With no
// session it resolves Unauthenticated; with one it runs the authorization
// check and either adopts the session or forces a sign-out.
func (m *SessionManager) Initialize(ctx context.Context) (model.AuthState, error) {
	session, err := m.remote.CurrentSession(ctx)
	if err != nil {
		m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
		return m.State(), err
	}
	if session == nil {
		m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
		return m.State(), nil
	}
	if err := m.adopt(ctx, session); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}

// SignIn delegates credential verification to the remote service, runs the
// authorization check and stores the session. A valid sign-in by anyone
// other than the operator is signed out again and fails with
// ErrAccessDenied carrying no session.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	session, err := m.remote.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
		return nil, err
	}
	if err := m.adopt(ctx, session); err != nil {
		return nil, err
	}
	slog.Info("operator signed in", "email", session.Identity.Email)
	return session, nil
}

// SignOut invalidates the remote session and unconditionally resolves to
// Unauthenticated, even when the remote call fails.
func (m *SessionManager) SignOut(ctx context.Context) error {
	err := m.remote.SignOut(ctx)
	m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
	return err
}

// adopt runs the authorization check on a live session. Authorized
// sessions become the current state. Rejected ones pass through the
// transient not-authorized state, are signed out remotely and resolve to
// Unauthenticated with ErrAccessDenied.
func (m *SessionManager) adopt(ctx context.Context, session *model.Session) error {
	if m.policy.Authorized(session.Identity) {
		m.setState(model.AuthState{Stage: model.AuthAuthenticated, Session: session})
		return nil
	}

	m.setState(model.AuthState{Stage: model.AuthNotAuthorized, Session: session})
	if err := m.remote.SignOut(ctx); err != nil {
		slog.Error("forced sign-out failed", "email", session.Identity.Email, "error", err)
	}
	m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
	slog.Warn("rejected unauthorized identity", "email", session.Identity.Email)
	return ErrAccessDenied
}

// handleAuthEvent reacts to asynchronous session notifications from the
// remote service. Established and refreshed sessions re-run the
// authorization check, so a re-authentication by the wrong identity is
// rejected exactly like a direct sign-in.
func (m *SessionManager) handleAuthEvent(ev remote.AuthEvent) {
	switch ev.Kind {
	case remote.AuthSignedIn, remote.AuthTokenRefreshed:
		if ev.Session == nil {
			return
		}
		if err := m.adopt(context.Background(), ev.Session); err != nil && !errors.Is(err, ErrAccessDenied) {
			slog.Error("auth event handling failed", "kind", ev.Kind, "error", err)
		}
	case remote.AuthSignedOut:
		m.setState(model.AuthState{Stage: model.AuthUnauthenticated})
	}
}
