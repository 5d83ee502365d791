package router

import (
	"encoding/json"

	"github.com/adwski/matchroom/backend/model"
	"github.com/rs/zerolog"
)

type (
	// Transport is the delivery primitive of the connection layer.
	Transport interface {
		Send(endpoint string, msg model.Message) bool
		Broadcast(group, except string, msg model.Message) int
	}

	Config struct {
		Transport Transport
		Logger    *zerolog.Logger
	}

	// Router turns named events into messages and hands them to the transport.
	// Recipients of group events are whatever the transport considers group
	// members at the time of the call.
	Router struct {
		tr     Transport
		logger zerolog.Logger
	}
)

func NewRouter(cfg Config) *Router {
	return &Router{
		tr:     cfg.Transport,
		logger: cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Reply answers a command that carried an ack.
func (r *Router) Reply(connectionID string, ack uint64, payload any) {
	msg, ok := r.message(model.EventAck, payload)
	if !ok {
		return
	}
	msg.Ack = &ack
	r.tr.Send(connectionID, msg)
}

func (r *Router) Emit(connectionID, event string, payload any) {
	if msg, ok := r.message(event, payload); ok {
		r.tr.Send(connectionID, msg)
	}
}

// EmitExcept sends the event to every member of the group but one.
func (r *Router) EmitExcept(group, except, event string, payload any) int {
	msg, ok := r.message(event, payload)
	if !ok {
		return 0
	}
	return r.tr.Broadcast(group, except, msg)
}

func (r *Router) EmitAll(group, event string, payload any) int {
	msg, ok := r.message(event, payload)
	if !ok {
		return 0
	}
	return r.tr.Broadcast(group, "", msg)
}

func (r *Router) message(event string, payload any) (model.Message, bool) {
	data, err := encode(payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return model.Message{}, false
	}
	return model.Message{
		Event: event,
		Data:  data,
	}, true
}

// encode passes raw payloads through untouched.
func encode(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(p)
	}
}
