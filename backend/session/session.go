package session

import (
	"sync"

	"github.com/adwski/matchroom/backend/model"
)

// Session is a live client connection as seen by the room service.
// ID is assigned by the transport and stays the same until the connection ends.
type Session struct {
	ID   string
	Wire model.Wire

	mx   *sync.RWMutex
	name string
}

func New(id string, wire model.Wire) *Session {
	return &Session{
		ID:   id,
		Wire: wire,
		mx:   &sync.RWMutex{},
	}
}

func (s *Session) SetDisplayName(name string) {
	s.mx.Lock()
	s.name = name
	s.mx.Unlock()
}

func (s *Session) DisplayName() string {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.name
}

// Participant returns the session identity as it is recorded in rooms.
func (s *Session) Participant() model.Participant {
	return model.Participant{
		ConnectionID: s.ID,
		DisplayName:  s.DisplayName(),
	}
}
