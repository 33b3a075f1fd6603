// Package history exports and imports chat transcripts as JSON files so a
// student can resume a conversation later.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"buddy-tutor-be/pkg/llm"
)

var (
	ErrInvalidName = errors.New("invalid history name")
	ErrNotFound    = errors.New("history not found")

	unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
)

// Transcript is a loaded export. Only Messages is stored on disk, as a
// JSON array of {role, content} records; Name comes from the file name and
// ExportedAt from its modification time.
type Transcript struct {
	Name       string
	ExportedAt time.Time
	Messages   []llm.Message
}

// Store keeps one file per transcript under dir.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// SanitizeName maps a user supplied name onto a safe file stem. Anything
// outside [a-zA-Z0-9_-] becomes an underscore.
func SanitizeName(name string) (string, error) {
	clean := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if clean == "" || len(clean) > 64 {
		return "", ErrInvalidName
	}
	return clean, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the transcript and returns the sanitized name. Messages with
// roles other than user and assistant are dropped.
func (s *Store) Save(name string, messages []llm.Message) (string, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}

	kept := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			kept = append(kept, m)
		}
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	// write then rename so a reader never sees a half-written file
	target := s.path(clean)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", err
	}
	return clean, nil
}

func (s *Store) Load(name string) (*Transcript, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	target := s.path(clean)
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}

	var messages []llm.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", clean, err)
	}
	return &Transcript{Name: clean, ExportedAt: info.ModTime().UTC(), Messages: messages}, nil
}
