package model

import "time"

// Identity is the authenticated principal attached to a session.
type Identity struct {
	Email string `json:"email"`
}

// Session is proof of authentication issued by the remote data service.
// Token material is opaque to everything except the issuing service.
type Session struct {
	Identity     Identity  `json:"identity"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// AuthStage enumerates the states of the authentication machine.
type AuthStage string

const (
	// AuthUnknown is the initial state before the persisted session has
	// been resolved against the remote service.
	AuthUnknown AuthStage = "unknown"
	// AuthUnauthenticated means no live session exists.
	AuthUnauthenticated AuthStage = "unauthenticated"
	// AuthAuthenticated means a live session exists for the operator.
	AuthAuthenticated AuthStage = "authenticated"
	// AuthNotAuthorized means a live session exists for some other
	// identity. The session manager never rests in this state: it is
	// always immediately followed by a forced sign-out.
	AuthNotAuthorized AuthStage = "not_authorized"
)

// AuthState is the current resolution of the authentication machine.
// Session is non-nil only for AuthAuthenticated and AuthNotAuthorized.
type AuthState struct {
	Stage   AuthStage `json:"stage"`
	Session *Session  `json:"session,omitempty"`
}

// Authenticated reports whether the state carries an authorized session.
func (s AuthState) Authenticated() bool {
	return s.Stage == AuthAuthenticated && s.Session != nil
}
