package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Limits bounds what a single session may hold. All inputs must fit in
// memory simultaneously; there is no paging or out-of-core execution.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
	TTL         time.Duration
}

// Service owns all live sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limits   Limits
}

// NewService creates a session service with the given limits.
func NewService(limits Limits) *Service {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 20
	}
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = 50 * 1024 * 1024
	}
	if limits.TTL <= 0 {
		limits.TTL = 2 * time.Hour
	}
	return &Service{
		sessions: make(map[string]*Session),
		limits:   limits,
	}
}

// Limits returns the configured per-session bounds.
func (s *Service) Limits() Limits { return s.limits }

// Create starts a new, empty session.
func (s *Service) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session by ID.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete ends a session and discards its datasets.
func (s *Service) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// NewSourceID mints an opaque source identifier for an uploaded file.
func (s *Service) NewSourceID() string {
	return uuid.New().String()
}

// CheckUpload enforces the per-session file count and size limits before a
// file is loaded.
func (s *Service) CheckUpload(sess *Session, size int64) error {
	if size > s.limits.MaxFileSize {
		return fmt.Errorf("file exceeds %dMB limit", s.limits.MaxFileSize/(1024*1024))
	}
	if len(sess.Files()) >= s.limits.MaxFiles {
		return fmt.Errorf("session already holds %d files", s.limits.MaxFiles)
	}
	return nil
}

// StartSweeper removes sessions idle past the TTL. It runs until ctx is
// cancelled; interval controls how often the sweep happens.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	cutoff := time.Now().Add(-s.limits.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			slog.Info("session expired", "session_id", id, "created_at", sess.CreatedAt)
		}
	}
}
