package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rafidev/contact-admin/internal/model"
)

// SessionStore persists the session across process restarts, the way the
// original panel kept it in browser storage. Implementations other than
// the file store (keychain, secret manager) can be swapped in.
type SessionStore interface {
	// Load returns the persisted session, or (nil, nil) when none exists.
	Load() (*model.Session, error)
	// Save replaces the persisted session.
	Save(s *model.Session) error
	// Clear removes the persisted session. Clearing an empty store is not
	// an error.
	Clear() error
}

// FileSessionStore keeps the session as a JSON file readable only by the
// owner.
type FileSessionStore struct {
	path string
}

// NewFileSessionStore creates a store at the given path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

var _ SessionStore = (*FileSessionStore)(nil)

func (s *FileSessionStore) Load() (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session store: read: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("session store: parse: %w", err)
	}
	return &session, nil
}

func (s *FileSessionStore) Save(session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session store: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("session store: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session store: write: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session store: remove: %w", err)
	}
	return nil
}
