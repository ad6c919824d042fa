// Package session holds the identity the booking client talks to the API with.
// Load and Save are the only places the session touches storage.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const DefaultBaseURL = "http://localhost:8080/api/v1"

type Session struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token,omitempty"`
	UserID  string `yaml:"user_id,omitempty"`
	Email   string `yaml:"email,omitempty"`
}

// HasToken reports whether requests should carry an Authorization header.
func (s *Session) HasToken() bool {
	return s != nil && s.Token != ""
}

// DefaultPath returns the per-user session file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "advisor-booking", "session.yaml"), nil
}

// Load reads the session at path. A missing file yields an empty session.
func Load(path string) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{BaseURL: DefaultBaseURL}, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	return &s, nil
}

// Save writes the session to path, replacing any previous file.
func (s *Session) Save(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
