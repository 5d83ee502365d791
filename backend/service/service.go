package service

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/adwski/matchroom/backend/model"
	"github.com/adwski/matchroom/backend/session"
	"github.com/rs/zerolog"
)

// Errors returned to clients in join replies. Messages are part of the protocol.
var (
	ErrRoomNotFound = errors.New("room does not exist")
	ErrRoomEmpty    = errors.New("room is empty")
	ErrRoomFull     = errors.New("room is full")
)

type (
	RoomStore interface {
		Create() string
		Get(roomID string) (*model.Room, error)
		AddParticipant(roomID string, p model.Participant) (*model.Room, error)
		RemoveRoom(roomID string)
		FindRoomsContaining(connectionID string) []model.Room
		List() []model.Room
	}

	// Groups is the transport level room membership.
	Groups interface {
		Connect(endpoint string, wire model.Wire)
		Disconnect(endpoint string)
		Join(group, endpoint string) error
		Clear(group string)
	}

	Events interface {
		Reply(connectionID string, ack uint64, payload any)
		EmitExcept(group, except, event string, payload any) int
	}

	// Service pairs connections into two-seat rooms and relays their events.
	//
	// Every registry read-validate-mutate sequence runs under mx together
	// with the notifications it produces, so concurrent joins cannot
	// overfill a room and a disconnect cannot interleave with a join.
	Service struct {
		store  RoomStore
		groups Groups
		events Events
		logger zerolog.Logger
		mx     *sync.Mutex
	}

	Config struct {
		RoomStore RoomStore
		Groups    Groups
		Events    Events
		Logger    *zerolog.Logger
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		store:  cfg.RoomStore,
		groups: cfg.Groups,
		events: cfg.Events,
		logger: cfg.Logger.With().Str("component", "rooms").Logger(),
		mx:     &sync.Mutex{},
	}
}

// OpenSession makes the connection reachable by events.
func (svc *Service) OpenSession(sess *session.Session) {
	svc.groups.Connect(sess.ID, sess.Wire)
	svc.logger.Debug().Str("connID", sess.ID).Msg("session opened")
}

// CloseSession is called by the transport once the connection is gone.
func (svc *Service) CloseSession(sess *session.Session) {
	svc.HandleDisconnect(sess)
}

func (svc *Service) SetUsername(sess *session.Session, name string) {
	sess.SetDisplayName(name)
	svc.logger.Debug().
		Str("connID", sess.ID).
		Str("username", name).
		Msg("username set")
}

// CreateRoom registers a new room with the caller as its only participant.
func (svc *Service) CreateRoom(sess *session.Session) string {
	svc.mx.Lock()
	defer svc.mx.Unlock()

	roomID := svc.store.Create()
	if err := svc.groups.Join(roomID, sess.ID); err != nil {
		svc.logger.Error().Err(err).Str("roomID", roomID).Str("connID", sess.ID).Msg("failed to join room group")
	}
	if _, err := svc.store.AddParticipant(roomID, sess.Participant()); err != nil {
		svc.logger.Error().Err(err).Str("roomID", roomID).Msg("failed to add room creator")
	}
	svc.logger.Debug().
		Str("roomID", roomID).
		Str("connID", sess.ID).
		Msg("room created")
	return roomID
}

// JoinRoom seats the caller in an existing room with exactly one participant.
// The opponent already in the room is notified with the updated room.
func (svc *Service) JoinRoom(sess *session.Session, roomID string) (*model.Room, error) {
	svc.mx.Lock()
	defer svc.mx.Unlock()

	room, err := svc.store.Get(roomID)
	switch {
	case err != nil:
		return nil, ErrRoomNotFound
	case len(room.Participants) == 0:
		return nil, ErrRoomEmpty
	case len(room.Participants) >= model.MaxParticipants:
		return nil, ErrRoomFull
	}
	if room.Has(sess.ID) {
		// already seated, nothing to announce
		return room, nil
	}

	if err = svc.groups.Join(roomID, sess.ID); err != nil {
		svc.logger.Error().Err(err).Str("roomID", roomID).Str("connID", sess.ID).Msg("failed to join room group")
	}
	if room, err = svc.store.AddParticipant(roomID, sess.Participant()); err != nil {
		return nil, ErrRoomNotFound
	}
	svc.events.EmitExcept(roomID, sess.ID, model.EventOpponentJoined, room)

	svc.logger.Debug().
		Str("roomID", roomID).
		Str("connID", sess.ID).
		Msg("user joined room")
	return room, nil
}

// RelayMove forwards the move to everyone in the room group but the sender.
// Neither the room nor the sender membership is checked.
func (svc *Service) RelayMove(sess *session.Session, roomID string, move json.RawMessage) {
	n := svc.events.EmitExcept(roomID, sess.ID, model.EventMove, move)
	svc.logger.Trace().
		Str("roomID", roomID).
		Str("connID", sess.ID).
		Int("recipients", n).
		Msg("move relayed")
}

// CloseRoom notifies the rest of the room, empties its group and drops it from the registry.
func (svc *Service) CloseRoom(sess *session.Session, roomID string) {
	svc.mx.Lock()
	defer svc.mx.Unlock()

	svc.events.EmitExcept(roomID, sess.ID, model.EventCloseRoom, model.CloseRoomRequest{RoomID: roomID})
	svc.groups.Clear(roomID)
	svc.store.RemoveRoom(roomID)

	svc.logger.Debug().
		Str("roomID", roomID).
		Str("connID", sess.ID).
		Msg("room closed")
}

// HandleDisconnect cleans up rooms that list the departing connection.
//
// A room with fewer than two participants is removed without notice.
// A full room keeps the departed participant in its list and the
// remaining group members receive playerDisconnected.
func (svc *Service) HandleDisconnect(sess *session.Session) {
	svc.mx.Lock()
	defer svc.mx.Unlock()

	for _, room := range svc.store.FindRoomsContaining(sess.ID) {
		if len(room.Participants) < model.MaxParticipants {
			svc.store.RemoveRoom(room.ID)
			svc.logger.Debug().
				Str("roomID", room.ID).
				Str("connID", sess.ID).
				Msg("room removed after last participant left")
			continue
		}
		svc.events.EmitExcept(room.ID, sess.ID, model.EventPlayerDisconnected, departing(&room, sess.ID))
		svc.logger.Debug().
			Str("roomID", room.ID).
			Str("connID", sess.ID).
			Msg("participant disconnected")
	}
	svc.groups.Disconnect(sess.ID)
}

// Rooms lists all registered rooms.
func (svc *Service) Rooms() []model.Room {
	return svc.store.List()
}

func (svc *Service) Room(roomID string) (*model.Room, error) {
	room, err := svc.store.Get(roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func departing(room *model.Room, connectionID string) model.Participant {
	for _, p := range room.Participants {
		if p.ConnectionID == connectionID {
			return p
		}
	}
	return model.Participant{ConnectionID: connectionID}
}
