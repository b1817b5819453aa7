package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rafidev/contact-admin/internal/model"
)

// SessionController is the slice of the session manager the auth surface
// needs.
type SessionController interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context) error
	State() model.AuthState
	Subscribe(obs func(model.AuthState)) func()
}

// AuthHandler serves the operator sign-in surface.
type AuthHandler struct {
	sessions SessionController
}

// NewAuthHandler creates an AuthHandler over the given session manager.
func NewAuthHandler(sessions SessionController) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// stateResponse is the wire form of an auth state. The session token never
// leaves the process; only the stage and the signed-in email do.
type stateResponse struct {
	Stage model.AuthStage `json:"stage"`
	Email string          `json:"email,omitempty"`
}

func toStateResponse(s model.AuthState) stateResponse {
	resp := stateResponse{Stage: s.Stage}
	if s.Session != nil {
		resp.Email = s.Session.Identity.Email
	}
	return resp
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "credentials_required")
		return
	}

	if _, err := h.sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.sessions.State()))
}

// Logout handles POST /api/auth/logout. Always resolves to the signed-out
// state; a failed remote revocation is reported but the local session is
// gone either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.sessions.State()))
}

// State handles GET /api/auth/state.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(h.sessions.State()))
}

// Events handles GET /api/auth/events as a server-sent event stream. The
// subscriber contract delivers the current state immediately, so a client
// reconnecting after a drop never misses the resolution.
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Observers fire on the session manager's goroutines; hand states to
	// the request goroutine through a buffered channel so a slow client
	// never blocks the state machine.
	states := make(chan model.AuthState, 8)
	unsubscribe := h.sessions.Subscribe(func(s model.AuthState) {
		select {
		case states <- s:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-states:
			payload, err := json.Marshal(toStateResponse(s))
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("event: auth_state\ndata: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
