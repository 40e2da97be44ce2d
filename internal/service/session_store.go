package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/internal/storage"
	"mathtutor-backend/pkg/logger"
)

// SessionStore owns the session collection and the per-mode active
// pointers. It is a write-through cache over a storage.Store: every
// mutation updates memory first, then flushes the whole slot. The
// in-memory state is the source of truth for the running process; a
// failed flush is logged, not propagated.
type SessionStore struct {
	mu       sync.RWMutex
	sessions []*model.Session
	active   map[model.Mode]string
	store    storage.Store
}

func NewSessionStore(store storage.Store) *SessionStore {
	return &SessionStore{
		active: make(map[model.Mode]string),
		store:  store,
	}
}

// LoadAll restores the collection from durable storage. Backends treat
// malformed content as empty, so startup never fails on bad data.
func (s *SessionStore) LoadAll(ctx context.Context) error {
	sessions, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]*model.Session, len(sessions))
	for i := range sessions {
		sess := sessions[i]
		s.sessions[i] = &sess
	}

	logger.Infof("Restored %d chat sessions", len(s.sessions))
	return nil
}

// CreateSession adds a new empty session for the given mode and makes
// it the active one for that mode.
func (s *SessionStore) CreateSession(ctx context.Context, mode model.Mode) *model.Session {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		Title:     model.DefaultSessionTitle,
		Mode:      mode,
		Messages:  make([]model.Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions = append([]*model.Session{session}, s.sessions...)
	s.active[mode] = session.ID
	s.mu.Unlock()

	s.persist(ctx)

	return copySession(session)
}

// AppendMessages appends to a session's log, recomputes the title from
// the first user message and bumps UpdatedAt. An unknown session id is
// a silent no-op: callers may legitimately race with deletion.
func (s *SessionStore) AppendMessages(ctx context.Context, sessionID string, messages ...model.Message) {
	if len(messages) == 0 {
		return
	}

	s.mu.Lock()
	session := s.find(sessionID)
	if session == nil {
		s.mu.Unlock()
		logger.Debugf("Dropping %d messages for unknown session %s", len(messages), sessionID)
		return
	}

	session.Messages = append(session.Messages, messages...)
	session.Title = model.DeriveTitle(session.Messages)
	session.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.persist(ctx)
}

// DeleteSession removes a session. If it was the active one for its
// mode, the pointer falls back to the most recently updated remaining
// session of the same mode, or to none.
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	mode := s.sessions[idx].Mode
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if s.active[mode] == sessionID {
		delete(s.active, mode)
		var fallback *model.Session
		for _, sess := range s.sessions {
			if sess.Mode != mode {
				continue
			}
			if fallback == nil || sess.UpdatedAt.After(fallback.UpdatedAt) {
				fallback = sess
			}
		}
		if fallback != nil {
			s.active[mode] = fallback.ID
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// SwitchActive moves the active pointer without touching session data.
func (s *SessionStore) SwitchActive(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(sessionID)
	if session == nil {
		return false
	}

	s.active[session.Mode] = sessionID
	return true
}

// Active returns the active session id for a mode, or "".
func (s *SessionStore) Active(mode model.Mode) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active[mode]
}

// Get returns a copy of a session.
func (s *SessionStore) Get(sessionID string) (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.find(sessionID)
	if session == nil {
		return nil, false
	}

	return copySession(session), true
}

// ListSessions returns copies of all sessions of one mode, most
// recently updated first. Partitioning by mode is a hard invariant:
// the UI never sees sessions of the other mode.
func (s *SessionStore) ListSessions(mode model.Mode) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Session, 0)
	for _, sess := range s.sessions {
		if sess.Mode == mode {
			result = append(result, copySession(sess))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result
}

func (s *SessionStore) Close() error {
	return s.store.Close()
}

// find returns the live session pointer; callers must hold the lock.
func (s *SessionStore) find(sessionID string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			return sess
		}
	}
	return nil
}

func (s *SessionStore) persist(ctx context.Context) {
	s.mu.RLock()
	snapshot := make([]model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		snapshot[i] = *copySession(sess)
	}
	s.mu.RUnlock()

	if err := s.store.Save(ctx, snapshot); err != nil {
		logger.Errorf("Failed to persist session slot: %v", err)
	}
}

func copySession(session *model.Session) *model.Session {
	clone := *session
	clone.Messages = make([]model.Message, len(session.Messages))
	copy(clone.Messages, session.Messages)
	return &clone
}
