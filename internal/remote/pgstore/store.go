// Package pgstore implements the remote data-service boundary directly
// against PostgreSQL for deployments that own the database instead of
// renting the hosted backend. It issues its own opaque session tokens and
// serves the same query semantics as the hosted API.
package pgstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// DefaultSessionTTL bounds how long an issued session lives without a
// sign-in.
const DefaultSessionTTL = 24 * time.Hour

// Config carries the Store's dependencies and operator credentials.
type Config struct {
	Pool *pgxpool.Pool
	// OperatorEmail and OperatorPasswordHash (bcrypt) are the single
	// credential pair this store will issue sessions for.
	OperatorEmail        string
	OperatorPasswordHash string
	// SessionTTL defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	// Store persists the session token across restarts. Optional.
	Store remote.SessionStore
	// Limiter throttles failed sign-in attempts. Optional.
	Limiter *LoginLimiter
}

// Store is the PostgreSQL-backed DataService.
type Store struct {
	pool         *pgxpool.Pool
	operator     string
	passwordHash string
	sessionTTL   time.Duration
	fileStore    remote.SessionStore
	limiter      *LoginLimiter
	broker       *remote.EventBroker

	mu      sync.Mutex
	session *model.Session

	now func() time.Time
}

var _ remote.DataService = (*Store)(nil)

// NewPool connects a pgx pool and verifies the connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

// New creates a Store.
func New(cfg Config) *Store {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		pool:         cfg.Pool,
		operator:     cfg.OperatorEmail,
		passwordHash: cfg.OperatorPasswordHash,
		sessionTTL:   ttl,
		fileStore:    cfg.Store,
		limiter:      cfg.Limiter,
		broker:       remote.NewEventBroker(),
		now:          time.Now,
	}
}

// SubscribeAuthEvents registers a handler for expiry notifications from
// the sweep loop.
func (s *Store) SubscribeAuthEvents(h remote.AuthEventHandler) func() {
	return s.broker.Subscribe(h)
}

// SignInWithPassword verifies the operator credential pair and issues a
// session row. Any other email, or a wrong password, is an invalid
// credential; the store does not distinguish the two in its answer.
func (s *Store) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			// Throttling is best-effort: a broken limiter must not lock
			// the operator out.
			slog.Warn("login limiter unavailable", "error", err)
		} else if !allowed {
			return nil, fmt.Errorf("sign in: %w", remote.ErrRateLimited)
		}
	}

	if email != s.operator ||
		bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
		if s.limiter != nil {
			if err := s.limiter.RecordFailure(ctx, email); err != nil {
				slog.Warn("login limiter unavailable", "error", err)
			}
		}
		return nil, fmt.Errorf("sign in: %w", remote.ErrInvalidCredentials)
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, remote.Transport("sign in", err)
	}

	now := s.now()
	expires := now.Add(s.sessionTTL)
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, email, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		token, email, now, expires,
	); err != nil {
		return nil, remote.Transport("sign in", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			slog.Warn("login limiter unavailable", "error", err)
		}
	}

	session := &model.Session{
		Identity:    model.Identity{Email: email},
		AccessToken: token,
		ExpiresAt:   expires,
	}
	s.adoptSession(session)
	return session, nil
}

// CurrentSession resolves the cached or persisted token against the
// sessions table. The table is the arbiter: a missing or expired row
// means no session.
func (s *Store) CurrentSession(ctx context.Context) (*model.Session, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil && s.fileStore != nil {
		loaded, err := s.fileStore.Load()
		if err != nil {
			return nil, remote.Transport("load persisted session", err)
		}
		session = loaded
	}
	if session == nil {
		return nil, nil
	}

	var email string
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT email, expires_at FROM sessions WHERE token = $1`,
		session.AccessToken,
	).Scan(&email, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		s.dropSession()
		return nil, nil
	}
	if err != nil {
		return nil, remote.Transport("current session", err)
	}

	if s.now().After(expiresAt) {
		_, _ = s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, session.AccessToken)
		s.dropSession()
		return nil, nil
	}

	session = &model.Session{
		Identity:    model.Identity{Email: email},
		AccessToken: session.AccessToken,
		ExpiresAt:   expiresAt,
	}
	s.adoptSession(session)
	return session, nil
}

// SignOut deletes the session row and clears local state.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	defer s.dropSession()

	if session == nil {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, session.AccessToken); err != nil {
		return remote.Transport("sign out", err)
	}
	return nil
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return remote.Transport("ping", err)
	}
	return nil
}

// RunExpirySweep deletes lapsed session rows on the given interval and
// announces SignedOut when the active session lapses. Blocks until ctx is
// cancelled.
func (s *Store) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, s.now()); err != nil {
			if ctx.Err() == nil {
				slog.Warn("session sweep failed", "error", err)
			}
			continue
		}

		s.mu.Lock()
		expired := s.session != nil && s.session.Expired(s.now())
		s.mu.Unlock()
		if expired {
			s.dropSession()
			s.broker.Emit(remote.AuthEvent{Kind: remote.AuthSignedOut})
		}
	}
}

func (s *Store) adoptSession(session *model.Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	if s.fileStore != nil {
		if err := s.fileStore.Save(session); err != nil {
			slog.Warn("persist session failed", "error", err)
		}
	}
}

func (s *Store) dropSession() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	if s.fileStore != nil {
		if err := s.fileStore.Clear(); err != nil {
			slog.Warn("clear persisted session failed", "error", err)
		}
	}
}

// newSessionToken mints an opaque 256-bit token.
func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
