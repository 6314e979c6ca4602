package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossline/beacon/internal/providers"
)

// ErrNotFound is returned when a session id has no stored history.
var ErrNotFound = errors.New("session not found")

// Store persists conversation histories, one JSON file per session id,
// under a single directory. Writes go through a temp file and rename so
// readers never observe a partial session.
type Store struct {
	dir string
}

// NewStore opens (and creates if needed) the session directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sessions: create dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the history for a session id. Missing sessions return
// ErrNotFound.
func (s *Store) Load(sessionID string) ([]providers.Message, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("sessions: read %s: %w", sessionID, err)
	}

	var messages []providers.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("sessions: parse %s: %w", sessionID, err)
	}
	return messages, nil
}

// Save writes the full history for a session id, replacing any previous
// contents atomically.
func (s *Store) Save(sessionID string, messages []providers.Message) error {
	if messages == nil {
		messages = []providers.Message{}
	}
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("sessions: marshal %s: %w", sessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("sessions: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sessions: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sessions: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sessions: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(sessionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("sessions: rename into place: %w", err)
	}
	return nil
}

// List returns the ids of all stored sessions.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("sessions: read dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sanitizeID(sessionID)+".json")
}

// sanitizeID keeps session filenames safe on every platform.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
