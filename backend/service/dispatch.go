package service

import (
	"encoding/json"

	"github.com/adwski/matchroom/backend/model"
	"github.com/adwski/matchroom/backend/session"
)

// Handle executes a single inbound command. Replies are sent only when the
// client asked for one with an ack, state changes happen regardless.
func (svc *Service) Handle(sess *session.Session, msg model.Message) {
	logger := svc.logger.With().
		Str("connID", sess.ID).
		Str("event", msg.Event).Logger()

	logger.Trace().RawJSON("data", nonEmpty(msg.Data)).Msg("command received")

	switch msg.Event {
	case model.CommandSetUsername, model.CommandUsername:
		var name string
		if err := json.Unmarshal(msg.Data, &name); err != nil {
			logger.Error().Err(err).Msg("failed to unmarshal username")
			return
		}
		svc.SetUsername(sess, name)

	case model.CommandCreateRoom:
		roomID := svc.CreateRoom(sess)
		svc.reply(sess, msg.Ack, roomID)

	case model.CommandJoinRoom:
		var req model.JoinRoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Error().Err(err).Msg("failed to unmarshal join request")
			return
		}
		room, err := svc.JoinRoom(sess, req.RoomID)
		if err != nil {
			logger.Debug().Err(err).Str("roomID", req.RoomID).Msg("join rejected")
			svc.reply(sess, msg.Ack, model.ErrorReply{Error: true, Message: err.Error()})
			return
		}
		svc.reply(sess, msg.Ack, room)

	case model.CommandMove:
		var req model.MoveRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Error().Err(err).Msg("failed to unmarshal move")
			return
		}
		svc.RelayMove(sess, req.Room, req.Move)

	case model.CommandCloseRoom:
		var req model.CloseRoomRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Error().Err(err).Msg("failed to unmarshal close request")
			return
		}
		svc.CloseRoom(sess, req.RoomID)

	default:
		logger.Warn().Msg("unknown command")
	}
}

func (svc *Service) reply(sess *session.Session, ack *uint64, payload any) {
	if ack == nil {
		return
	}
	svc.events.Reply(sess.ID, *ack, payload)
}

func nonEmpty(data json.RawMessage) []byte {
	if len(data) == 0 {
		return []byte("null")
	}
	return data
}
