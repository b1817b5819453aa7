// Package hostedapi implements the remote data-service boundary against a
// Supabase-style hosted backend: GoTrue password sessions plus PostgREST
// table access. Raw HTTP calls, no SDK.
package hostedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// Config carries everything the client needs to reach the hosted backend.
type Config struct {
	// BaseURL is the project root, e.g. https://xyzcompany.supabase.co.
	BaseURL string
	// APIKey is the anon key sent with every request.
	APIKey string
	// Store persists the session across process restarts. Optional; a nil
	// store keeps the session in memory only.
	Store remote.SessionStore
	// RefreshMargin is how long before expiry the auto-refresh loop
	// rotates the access token. Zero means DefaultRefreshMargin.
	RefreshMargin time.Duration
	// Timeout bounds each HTTP round trip. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultRefreshMargin rotates tokens a minute before they lapse.
const DefaultRefreshMargin = time.Minute

// DefaultTimeout bounds each round trip so no call waits forever.
const DefaultTimeout = 30 * time.Second

// Client talks to the hosted backend. Safe for concurrent use; the cached
// session is mutex-guarded because the refresh loop rotates it from a
// background goroutine.
type Client struct {
	baseURL       string
	apiKey        string
	store         remote.SessionStore
	refreshMargin time.Duration
	httpClient    *http.Client
	broker        *remote.EventBroker

	mu      sync.Mutex
	session *model.Session
}

var _ remote.DataService = (*Client)(nil)

// NewClient creates a Client. It does not touch the network; the persisted
// session, if any, is resolved lazily by CurrentSession.
func NewClient(cfg Config) *Client {
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		store:         cfg.Store,
		refreshMargin: margin,
		httpClient:    &http.Client{Timeout: timeout},
		broker:        remote.NewEventBroker(),
	}
}

// SubscribeAuthEvents registers a handler for asynchronous session
// notifications (refresh rotations and remote expiry). Results of direct
// SignInWithPassword/SignOut calls are returned to the caller, not
// re-broadcast.
func (c *Client) SubscribeAuthEvents(h remote.AuthEventHandler) func() {
	return c.broker.Subscribe(h)
}

// tokenResponse is GoTrue's session payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		Email string `json:"email"`
	} `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *model.Session {
	return &model.Session{
		Identity:     model.Identity{Email: t.User.Email},
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(t.ExpiresIn) * time.Second),
	}
}

// SignInWithPassword performs the GoTrue password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := c.newAuthRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var tok tokenResponse
	if err := c.do(req, "sign in", http.StatusOK, &tok); err != nil {
		return nil, err
	}

	session := tok.session(time.Now())
	c.adoptSession(session)
	return session, nil
}

// CurrentSession resolves the persisted session. An expired session is
// refreshed when possible; a live one is validated against the user
// endpoint so the remote service remains the arbiter of validity.
func (c *Client) CurrentSession(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil && c.store != nil {
		loaded, err := c.store.Load()
		if err != nil {
			return nil, remote.Transport("load persisted session", err)
		}
		session = loaded
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired(time.Now()) {
		if session.RefreshToken == "" {
			c.dropSession()
			return nil, nil
		}
		refreshed, err := c.refresh(ctx, session.RefreshToken)
		if err != nil {
			if remote.IsTransport(err) {
				return nil, err
			}
			// The refresh token was rejected: the session is gone.
			c.dropSession()
			return nil, nil
		}
		return refreshed, nil
	}

	if err := c.validate(ctx, session); err != nil {
		if remote.IsTransport(err) {
			return nil, err
		}
		c.dropSession()
		return nil, nil
	}
	c.adoptSession(session)
	return session, nil
}

// validate asks GoTrue whether the access token is still honored.
func (c *Client) validate(ctx context.Context, session *model.Session) error {
	req, err := c.newAuthRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	var user struct {
		Email string `json:"email"`
	}
	return c.do(req, "validate session", http.StatusOK, &user)
}

// refresh exchanges a refresh token for a new session and persists it.
func (c *Client) refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req, err := c.newAuthRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var tok tokenResponse
	if err := c.do(req, "refresh session", http.StatusOK, &tok); err != nil {
		return nil, err
	}

	session := tok.session(time.Now())
	c.adoptSession(session)
	return session, nil
}

// SignOut revokes the session remotely and clears local state. Revocation
// failures still clear local state; the remote token will lapse on its
// own.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	defer c.dropSession()

	if session == nil {
		return nil
	}

	req, err := c.newAuthRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	return c.do(req, "sign out", http.StatusNoContent, nil)
}

// Ping reports whether the auth service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newAuthRequest(ctx, http.MethodGet, "/auth/v1/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, "ping", http.StatusOK, nil)
}

// adoptSession caches and persists the session.
func (c *Client) adoptSession(session *model.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Save(session); err != nil {
			logWarn("persist session", err)
		}
	}
}

// dropSession clears the cached and persisted session.
func (c *Client) dropSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			logWarn("clear persisted session", err)
		}
	}
}

// logWarn reports a non-fatal session-persistence problem.
func logWarn(op string, err error) {
	slog.Warn("session persistence problem", "op", op, "error", err)
}

// accessToken returns the bearer token for REST calls, or "" when no
// session is cached (requests then carry the anon key only).
func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) newAuthRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, remote.Transport("build request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorResponse covers the error shapes GoTrue and PostgREST produce.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
}

func (e *errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Message, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do executes the request and decodes the body into out when the status
// matches. Other statuses map onto the typed error taxonomy.
func (c *Client) do(req *http.Request, op string, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return remote.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == wantStatus {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return remote.Transport(op, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr errorResponse
	_ = json.Unmarshal(raw, &apiErr)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", op, remote.ErrInvalidCredentials)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, remote.ErrRateLimited)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, remote.ErrNotFound)
	}

	msg := apiErr.text()
	if msg == "" {
		msg = string(raw)
	}
	return remote.Transport(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
}
