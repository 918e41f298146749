package web

// session.go holds uploaded workbooks in memory between requests. A
// workbook is decoded once at upload and addressed by ID afterwards, so
// preview and generate calls never re-parse the file. Sessions expire
// after a period of disuse and are evicted by a background sweep.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridcsv/internal/workbook"
)

// SessionStore is an in-memory map of workbook sessions keyed by UUID.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	ttl      time.Duration
}

type session struct {
	workbook *workbook.Workbook
	lastUsed time.Time
}

// NewSessionStore creates a store whose sessions expire ttl after their
// last use.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[uuid.UUID]*session),
		ttl:      ttl,
	}
}

// Put registers a workbook and returns its session ID.
func (s *SessionStore) Put(wb *workbook.Workbook) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = &session{workbook: wb, lastUsed: time.Now()}
	s.mu.Unlock()
	return id
}

// Get returns the workbook for id and refreshes its expiry.
func (s *SessionStore) Get(id uuid.UUID) (*workbook.Workbook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastUsed = time.Now()
	return sess.workbook, true
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle past the TTL and returns how many were
// removed.
func (s *SessionStore) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on the given interval until the context is
// cancelled.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
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
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired workbook sessions evicted", "count", n)
			}
		}
	}
}
