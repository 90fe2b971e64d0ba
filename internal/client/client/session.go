package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vidtube/internal/filex"
)

// FileSessionStore persists a Session as JSON readable only by the owner.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load returns the stored session, or ErrNoSession when none exists.
func (s *FileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if sess.Empty() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *FileSessionStore) Save(sess Session) error {
	if _, err := filex.EnsureDir(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(s.path, data, 0o600)
}

// Clear removes the session file. A missing file is not an error.
func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
