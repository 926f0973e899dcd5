// Package session provides per-topic roast state persistence.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session tracks the state of a roast topic across iterations and
// process restarts.
type Session struct {
	mu   sync.RWMutex
	path string

	data sessionData
}

// Record is one completed iteration's bookkeeping.
type Record struct {
	Iteration  int       `json:"iteration"`
	Findings   int       `json:"findings"`
	New        int       `json:"new"`
	Recurring  int       `json:"recurring"`
	FixMode    string    `json:"fix_mode,omitempty"`
	ReportPath string    `json:"report_path"`
	Timestamp  time.Time `json:"timestamp"`
}

// sessionData is the persisted session format.
type sessionData struct {
	Topic     string    `json:"topic"`
	Focus     string    `json:"focus,omitempty"`
	Iteration int       `json:"iteration"`
	Completed bool      `json:"completed"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	History   []Record  `json:"history"`
}

// New creates (or resumes) a file-backed session for a topic.
func New(dir, topic, focus string) (*Session, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}

	s := &Session{
		path: filepath.Join(dir, fileName(topic)),
		data: sessionData{
			Topic:     topic,
			Focus:     focus,
			StartedAt: time.Now(),
		},
	}

	// Resume existing state when present
	if err := s.load(); err == nil {
		s.data.Focus = focus
	}

	return s, nil
}

// Topic returns the session topic.
func (s *Session) Topic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Topic
}

// Iteration returns the last completed iteration (0 = none).
func (s *Session) Iteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Iteration
}

// Completed reports whether the topic was shipped.
func (s *Session) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Completed
}

// History returns a copy of the iteration records.
func (s *Session) History() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]Record, len(s.data.History))
	copy(history, s.data.History)
	return history
}

// RecordIteration appends an iteration record and persists.
func (s *Session) RecordIteration(rec Record) error {
	s.mu.Lock()
	rec.Timestamp = time.Now()
	s.data.History = append(s.data.History, rec)
	if rec.Iteration > s.data.Iteration {
		s.data.Iteration = rec.Iteration
	}
	s.mu.Unlock()

	return s.Save()
}

// Complete marks the topic shipped and persists.
func (s *Session) Complete() error {
	s.mu.Lock()
	s.data.Completed = true
	s.mu.Unlock()
	return s.Save()
}

// Save persists the session to disk.
func (s *Session) Save() error {
	s.mu.RLock()
	s.data.UpdatedAt = time.Now()
	jsonData, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, jsonData, 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// load restores the session from disk.
func (s *Session) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var sd sessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = sd
	return nil
}

// Reset deletes persisted state for a topic.
func Reset(dir, topic string) error {
	path := filepath.Join(dir, fileName(topic))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// List returns the topics with persisted sessions.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var topics []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		topics = append(topics, strings.TrimSuffix(name, ".json"))
	}
	return topics, nil
}

// fileName maps a topic to its session file.
func fileName(topic string) string {
	var safe []byte
	for i := 0; i < len(topic); i++ {
		c := topic[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			safe = append(safe, c)
		}
	}
	if len(safe) == 0 {
		safe = []byte("untitled")
	}
	return string(safe) + ".json"
}
