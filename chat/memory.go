package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyassist/core"
)

// SessionStore holds per-session conversation buffers, the single
// active session per user, and the per-user chat history view.
type SessionStore interface {
	Turns(sessionID string) []core.Turn
	AppendTurn(sessionID, role, content string)
	Clear(sessionID string)

	Activate(userID, sessionID string)
	ActiveSession(userID string) (string, bool)
	NewSession(userID string) string

	AddRecord(record core.ChatRecord)
	History(userID string) []core.ChatRecord
	Sessions(userID string) []string
	DeleteSession(userID, sessionID string)
	ClearUser(userID string)
}

// MemorySessionStore is the in-process SessionStore. One lock
// serializes all mutation, which also serializes per-session appends.
type MemorySessionStore struct {
	mu       sync.RWMutex
	buffers  map[string][]core.Turn
	active   map[string]string
	records  map[string][]core.ChatRecord
	turnCap  int
	maxChars int
}

func NewMemorySessionStore(turnCap, maxChars int) *MemorySessionStore {
	if turnCap <= 0 {
		turnCap = 20
	}
	if maxChars <= 0 {
		maxChars = 10000
	}
	return &MemorySessionStore{
		buffers:  map[string][]core.Turn{},
		active:   map[string]string{},
		records:  map[string][]core.ChatRecord{},
		turnCap:  turnCap,
		maxChars: maxChars,
	}
}

// Turns returns a copy of the session buffer with malformed turns
// (empty role or content) dropped.
func (s *MemorySessionStore) Turns(sessionID string) []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Turn
	for _, t := range s.buffers[sessionID] {
		if t.Role == "" || t.Content == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *MemorySessionStore) AppendTurn(sessionID, role, content string) {
	if role == "" || content == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.buffers[sessionID], core.Turn{
		Role:    role,
		Content: core.Truncate(content, s.maxChars),
	})
	if len(buf) > s.turnCap {
		buf = buf[len(buf)-s.turnCap:]
	}
	s.buffers[sessionID] = buf
}

func (s *MemorySessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, sessionID)
}

// Activate makes sessionID the user's only active session. The prior
// active session's buffer is evicted, making its memory unreachable.
func (s *MemorySessionStore) Activate(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.active[userID]; ok && prev != sessionID {
		delete(s.buffers, prev)
	}
	s.active[userID] = sessionID
}

func (s *MemorySessionStore) ActiveSession(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[userID]
	return id, ok
}

// NewSession creates and activates a fresh session for the user.
func (s *MemorySessionStore) NewSession(userID string) string {
	id := uuid.NewString()
	s.Activate(userID, id)
	return id
}

func (s *MemorySessionStore) AddRecord(record core.ChatRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], record)
}

func (s *MemorySessionStore) History(userID string) []core.ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.ChatRecord, len(s.records[userID]))
	copy(out, s.records[userID])
	return out
}

// Sessions lists the distinct session IDs appearing in a user's
// history, most recent first.
func (s *MemorySessionStore) Sessions(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := map[string]string{}
	for _, r := range s.records[userID] {
		if r.CreatedAt >= latest[r.SessionID] {
			latest[r.SessionID] = r.CreatedAt
		}
	}
	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return latest[ids[i]] > latest[ids[j]]
	})
	return ids
}

// DeleteSession removes a session's records and buffer, and clears the
// active pointer when it referenced the session.
func (s *MemorySessionStore) DeleteSession(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[userID][:0]
	for _, r := range s.records[userID] {
		if r.SessionID != sessionID {
			kept = append(kept, r)
		}
	}
	s.records[userID] = kept
	delete(s.buffers, sessionID)
	if s.active[userID] == sessionID {
		delete(s.active, userID)
	}
}

// ClearUser drops a user's entire history and all associated memory.
func (s *MemorySessionStore) ClearUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records[userID] {
		delete(s.buffers, r.SessionID)
	}
	delete(s.records, userID)
	if active, ok := s.active[userID]; ok {
		delete(s.buffers, active)
		delete(s.active, userID)
	}
}
