package model

import "encoding/json"

const MaxParticipants = 2

type Participant struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

// Room is a snapshot of a room as seen by clients.
// Participants are kept in join order.
type Room struct {
	ID           string        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

// Clone returns a copy that does not share the participants slice.
func (r *Room) Clone() Room {
	participants := make([]Participant, len(r.Participants))
	copy(participants, r.Participants)
	return Room{
		ID:           r.ID,
		Participants: participants,
	}
}

// Has reports whether the connection is listed among the participants.
func (r *Room) Has(connectionID string) bool {
	for _, p := range r.Participants {
		if p.ConnectionID == connectionID {
			return true
		}
	}
	return false
}

// Inbound commands sent by clients.
const (
	CommandSetUsername = "setUsername"
	CommandUsername    = "username"
	CommandCreateRoom  = "createRoom"
	CommandJoinRoom    = "joinRoom"
	CommandMove        = "move"
	CommandCloseRoom   = "closeRoom"
)

// Outbound events pushed by server.
const (
	EventAck                = "ack"
	EventOpponentJoined     = "opponentJoined"
	EventMove               = "move"
	EventCloseRoom          = "closeRoom"
	EventPlayerDisconnected = "playerDisconnected"
)

// Message is a single websocket frame in both directions.
// Ack is set by the client when it expects a reply, the reply carries the same value.
type Message struct {
	Event string          `json:"event"`
	Ack   *uint64         `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type MoveRequest struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
}

type CloseRoomRequest struct {
	RoomID string `json:"roomId"`
}

type ErrorReply struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type Wire struct {
	TX chan Message
}

func NewWire(size int) Wire {
	return Wire{
		TX: make(chan Message, size),
	}
}
