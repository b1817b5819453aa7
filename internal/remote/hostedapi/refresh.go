package hostedapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/rafidev/contact-admin/internal/model"
	"github.com/rafidev/contact-admin/internal/remote"
)

// idleInterval is how often the refresh loop re-checks when there is no
// session to keep alive, or after a transient transport failure.
const idleInterval = 30 * time.Second

// RunAutoRefresh keeps the cached session's access token fresh, rotating
// it ahead of expiry. Rotations are announced as TokenRefreshed events; a
// rejected refresh token clears the session and announces SignedOut (the
// remote-expiry notification). Blocks until ctx is cancelled; run it on
// its own goroutine.
func (c *Client) RunAutoRefresh(ctx context.Context) {
	for {
		wait := c.nextRefreshIn(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		c.mu.Lock()
		session := c.session
		c.mu.Unlock()
		if session == nil || session.RefreshToken == "" {
			continue
		}
		if time.Now().Before(session.ExpiresAt.Add(-c.refreshMargin)) {
			continue
		}

		refreshed, err := c.refresh(ctx, session.RefreshToken)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if remote.IsTransport(err) {
				// The service may just be unreachable; the token could
				// still be honored. Back off before the next attempt.
				slog.Warn("session refresh unreachable", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(idleInterval):
				}
				continue
			}
			slog.Info("session no longer refreshable, clearing", "error", err)
			c.dropSession()
			c.broker.Emit(remote.AuthEvent{Kind: remote.AuthSignedOut})
			continue
		}

		slog.Debug("access token rotated", "expires_at", refreshed.ExpiresAt)
		c.broker.Emit(remote.AuthEvent{Kind: remote.AuthTokenRefreshed, Session: refreshed})
	}
}

// nextRefreshIn computes how long to sleep before the next refresh
// attempt.
func (c *Client) nextRefreshIn(now time.Time) time.Duration {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.RefreshToken == "" || session.ExpiresAt.IsZero() {
		return idleInterval
	}
	d := session.ExpiresAt.Add(-c.refreshMargin).Sub(now)
	if d < 0 {
		return 0
	}
	if d > idleInterval {
		// Re-check periodically anyway; the session may be replaced.
		return idleInterval
	}
	return d
}

// sessionSnapshot is exposed for tests.
func (c *Client) sessionSnapshot() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
