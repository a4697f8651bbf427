package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/koopa0/parley/internal/log"
)

// Config holds store settings.
type Config struct {
	// Window is the maximum number of messages retained per session.
	Window int

	// MaxSessions caps the number of live sessions; 0 means unbounded.
	// Above the cap the least recently used session is evicted.
	MaxSessions int

	// DefaultID is substituted when a caller passes an empty session ID.
	DefaultID string
}

// Store is an in-memory session store safe for concurrent use.
//
// A single mutex guards the session map and each entry's message slice, so
// read-modify-write sequences (append with window eviction) are serialized
// per store. Reads hand out copies; internal state never escapes.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      Config
	logger   log.Logger

	// clock is replaceable in tests.
	clock func() time.Time
}

type entry struct {
	messages  []Message
	createdAt time.Time
	updatedAt time.Time
	lastUsed  time.Time
}

// NewStore creates a session store.
func NewStore(cfg Config, logger log.Logger) (*Store, error) {
	if cfg.Window < 1 {
		return nil, fmt.Errorf("session window must be at least 1, got %d", cfg.Window)
	}
	if cfg.DefaultID == "" {
		cfg.DefaultID = "default"
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		sessions: make(map[string]*entry),
		cfg:      cfg,
		logger:   logger,
		clock:    time.Now,
	}, nil
}

// GetOrCreate returns a snapshot of the session, creating it if unseen.
// Never fails; an empty id maps to the configured default.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.normalize(id)
	e := s.obtain(id)
	return s.snapshot(id, e)
}

// Append adds one message and evicts the oldest messages FIFO until the
// session is within the window again.
func (s *Store) Append(id string, role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.normalize(id)
	e := s.obtain(id)
	s.appendLocked(e, role, text)
}

// AppendExchange atomically appends the user and assistant messages of one
// completed request. Concurrent readers observe both messages or neither.
func (s *Store) AppendExchange(id, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.normalize(id)
	e := s.obtain(id)
	s.appendLocked(e, RoleUser, userText)
	s.appendLocked(e, RoleAssistant, assistantText)
}

// Clear empties the session's message list. The session entry itself
// survives; a fresh Append behaves as on a new session.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.normalize(id)
	if e, ok := s.sessions[id]; ok {
		e.messages = e.messages[:0]
		e.updatedAt = s.clock()
		e.lastUsed = e.updatedAt
	}
}

// History returns an ordered copy of the session's messages, safe to hand
// to the model as context. Unknown sessions yield an empty slice.
func (s *Store) History(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = s.normalize(id)
	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	e.lastUsed = s.clock()
	return slices.Clone(e.messages)
}

// Len returns the number of messages currently held for the session.
func (s *Store) Len(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[s.normalize(id)]
	if !ok {
		return 0
	}
	return len(e.messages)
}

// List returns the IDs of all live sessions, most recently used first.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return s.sessions[b].lastUsed.Compare(s.sessions[a].lastUsed)
	})
	return ids
}

// Delete removes the session entry entirely.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, s.normalize(id))
}

func (s *Store) normalize(id string) string {
	if id == "" {
		return s.cfg.DefaultID
	}
	return id
}

// obtain returns the live entry for id, creating it (and evicting the LRU
// session over the cap) as needed. Caller holds s.mu.
func (s *Store) obtain(id string) *entry {
	e, ok := s.sessions[id]
	if !ok {
		now := s.clock()
		e = &entry{createdAt: now, updatedAt: now, lastUsed: now}
		s.sessions[id] = e
		s.evictOverCapLocked(id)
	} else {
		e.lastUsed = s.clock()
	}
	return e
}

func (s *Store) appendLocked(e *entry, role Role, text string) {
	now := s.clock()
	e.messages = append(e.messages, Message{Role: role, Text: text, CreatedAt: now})
	if over := len(e.messages) - s.cfg.Window; over > 0 {
		e.messages = slices.Delete(e.messages, 0, over)
	}
	e.updatedAt = now
	e.lastUsed = now
}

// evictOverCapLocked drops least recently used sessions until the store is
// within MaxSessions. keep is never evicted. Caller holds s.mu.
func (s *Store) evictOverCapLocked(keep string) {
	if s.cfg.MaxSessions <= 0 {
		return
	}
	for len(s.sessions) > s.cfg.MaxSessions {
		var oldest string
		var oldestAt time.Time
		for id, e := range s.sessions {
			if id == keep {
				continue
			}
			if oldest == "" || e.lastUsed.Before(oldestAt) {
				oldest = id
				oldestAt = e.lastUsed
			}
		}
		if oldest == "" {
			return
		}
		delete(s.sessions, oldest)
		s.logger.Debug("evicted least recently used session", "session_id", oldest)
	}
}

func (s *Store) snapshot(id string, e *entry) *Session {
	return &Session{
		ID:        id,
		Messages:  slices.Clone(e.messages),
		CreatedAt: e.createdAt,
		UpdatedAt: e.updatedAt,
	}
}
