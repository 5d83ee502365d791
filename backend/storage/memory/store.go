package memory

import (
	"errors"
	"sync"

	"github.com/adwski/matchroom/backend/model"
	"github.com/google/uuid"
)

var (
	ErrRoomNotFound = errors.New("room does not exist")
)

// MemStore is the in-memory room registry.
//
// The mutex only protects the maps from concurrent access. Callers that
// read a room, validate it and then mutate it must serialize that
// sequence themselves.
type MemStore struct {
	mx    *sync.Mutex
	db    map[string]*model.Room
	order []string
	newID func() string
}

type Option func(*MemStore)

// WithIDGenerator overrides room id generation.
func WithIDGenerator(f func() string) Option {
	return func(ms *MemStore) {
		ms.newID = f
	}
}

func NewMemStore(opts ...Option) *MemStore {
	ms := &MemStore{
		mx:    &sync.Mutex{},
		db:    make(map[string]*model.Room),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// Create inserts an empty room under a fresh id.
func (ms *MemStore) Create() string {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	roomID := ms.newID()
	for {
		if _, taken := ms.db[roomID]; !taken {
			break
		}
		roomID = ms.newID()
	}
	ms.db[roomID] = &model.Room{
		ID:           roomID,
		Participants: []model.Participant{},
	}
	ms.order = append(ms.order, roomID)
	return roomID
}

func (ms *MemStore) Get(roomID string) (*model.Room, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	room, ok := ms.db[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	snapshot := room.Clone()
	return &snapshot, nil
}

// AddParticipant appends p to the room. Capacity is not checked here.
func (ms *MemStore) AddParticipant(roomID string, p model.Participant) (*model.Room, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	room, ok := ms.db[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.Participants = append(room.Participants, p)
	snapshot := room.Clone()
	return &snapshot, nil
}

// RemoveRoom deletes the room, absent rooms are ignored.
func (ms *MemStore) RemoveRoom(roomID string) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	if _, ok := ms.db[roomID]; !ok {
		return
	}
	delete(ms.db, roomID)
	for i, id := range ms.order {
		if id == roomID {
			ms.order = append(ms.order[:i], ms.order[i+1:]...)
			break
		}
	}
}

// FindRoomsContaining scans rooms in creation order and returns
// every room listing connectionID as a participant.
func (ms *MemStore) FindRoomsContaining(connectionID string) []model.Room {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	var rooms []model.Room
	for _, id := range ms.order {
		room := ms.db[id]
		if room.Has(connectionID) {
			rooms = append(rooms, room.Clone())
		}
	}
	return rooms
}

// List returns snapshots of all rooms in creation order.
func (ms *MemStore) List() []model.Room {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	rooms := make([]model.Room, 0, len(ms.order))
	for _, id := range ms.order {
		rooms = append(rooms, ms.db[id].Clone())
	}
	return rooms
}

func (ms *MemStore) Len() int {
	ms.mx.Lock()
	defer ms.mx.Unlock()
	return len(ms.db)
}
