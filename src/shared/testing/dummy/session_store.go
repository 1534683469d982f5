package dummy

import (
	"context"
	"sync"

	sessionentity "github.com/PMosby/Stem-Visualizer/src/shared/session/entity"
)

var _ sessionentity.Store = &SessionStore{}

func NewDummySessionStore() *SessionStore {
	return &SessionStore{
		Unavailable: false,
		State:       make(map[string]sessionentity.Session),
	}
}

type SessionStore struct {
	Unavailable bool
	State       map[string]sessionentity.Session
	mutex       sync.RWMutex
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (sessionentity.Session, error) {
	if s.Unavailable {
		return sessionentity.Session{}, NetworkFailure
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.State[sessionID]
	if !ok {
		return sessionentity.Session{}, NotFound
	}

	return session, nil
}

func (s *SessionStore) SetSession(ctx context.Context, session sessionentity.Session) error {
	if s.Unavailable {
		return NetworkFailure
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.State[session.ID] = session
	return nil
}
