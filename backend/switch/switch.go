package _switch

import (
	"errors"
	"sort"
	"sync"

	"github.com/adwski/matchroom/backend/model"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownEndpoint = errors.New("endpoint is not connected")
)

// Switch keeps outbound wires of connected endpoints and their group membership.
// Groups are the delivery targets for broadcasts.
type Switch struct {
	logger    zerolog.Logger
	mx        *sync.RWMutex
	endpoints map[string]model.Wire
	groups    map[string]map[string]struct{}
}

func NewSwitch(logger *zerolog.Logger) *Switch {
	return &Switch{
		logger:    logger.With().Str("component", "switch").Logger(),
		mx:        &sync.RWMutex{},
		endpoints: make(map[string]model.Wire),
		groups:    make(map[string]map[string]struct{}),
	}
}

func (sw *Switch) Connect(endpoint string, wire model.Wire) {
	sw.mx.Lock()
	sw.endpoints[endpoint] = wire
	sw.mx.Unlock()

	sw.logger.Debug().
		Str("endpoint", endpoint).
		Msg("endpoint connected")
}

// Disconnect removes the endpoint from every group and forgets its wire.
func (sw *Switch) Disconnect(endpoint string) {
	sw.mx.Lock()
	defer func() {
		sw.mx.Unlock()
		sw.logger.Debug().
			Str("endpoint", endpoint).
			Msg("endpoint disconnected")
	}()

	delete(sw.endpoints, endpoint)
	for group, members := range sw.groups {
		delete(members, endpoint)
		if len(members) == 0 {
			delete(sw.groups, group)
		}
	}
}

func (sw *Switch) Join(group, endpoint string) error {
	sw.mx.Lock()
	defer sw.mx.Unlock()

	if _, ok := sw.endpoints[endpoint]; !ok {
		return ErrUnknownEndpoint
	}
	members, ok := sw.groups[group]
	if !ok {
		members = make(map[string]struct{})
		sw.groups[group] = members
	}
	members[endpoint] = struct{}{}
	return nil
}

func (sw *Switch) Leave(group, endpoint string) {
	sw.mx.Lock()
	defer sw.mx.Unlock()

	members, ok := sw.groups[group]
	if !ok {
		return
	}
	delete(members, endpoint)
	if len(members) == 0 {
		delete(sw.groups, group)
	}
}

// Clear makes every endpoint leave the group.
func (sw *Switch) Clear(group string) {
	sw.mx.Lock()
	delete(sw.groups, group)
	sw.mx.Unlock()

	sw.logger.Debug().
		Str("group", group).
		Msg("group cleared")
}

// Members returns sorted endpoints of the group.
func (sw *Switch) Members(group string) []string {
	sw.mx.RLock()
	defer sw.mx.RUnlock()

	members := make([]string, 0, len(sw.groups[group]))
	for endpoint := range sw.groups[group] {
		members = append(members, endpoint)
	}
	sort.Strings(members)
	return members
}

// Send delivers msg to a single endpoint.
func (sw *Switch) Send(endpoint string, msg model.Message) bool {
	logger := sw.logger.With().
		Str("event", msg.Event).
		Str("dst", endpoint).Logger()

	sw.mx.RLock()
	wire, ok := sw.endpoints[endpoint]
	sw.mx.RUnlock()

	if !ok {
		logger.Debug().Msg("cannot send, dst not found")
		return false
	}
	return send(msg, wire.TX, &logger)
}

// Broadcast delivers msg to every group member except one endpoint.
// Empty except means no exclusion. It returns the number of endpoints reached.
func (sw *Switch) Broadcast(group, except string, msg model.Message) int {
	logger := sw.logger.With().
		Str("group", group).
		Str("event", msg.Event).
		Str("src", except).Logger()

	sw.mx.RLock()
	wires := make([]model.Wire, 0, len(sw.groups[group]))
	for dst := range sw.groups[group] {
		if dst == except {
			continue
		}
		if wire, ok := sw.endpoints[dst]; ok {
			wires = append(wires, wire)
		}
	}
	sw.mx.RUnlock()

	var sent int
	for _, wire := range wires {
		if send(msg, wire.TX, &logger) {
			sent++
		}
	}
	if sent == 0 {
		logger.Debug().Msg("broadcast did not reach anyone")
	}
	return sent
}

// send never blocks, a full outbound buffer means the message is lost.
func send(msg model.Message, tx chan<- model.Message, logger *zerolog.Logger) bool {
	select {
	case tx <- msg:
		logger.Trace().Msg("message is forwarded")
		return true
	default:
		logger.Error().Msg("dead endpoint, message dropped")
		return false
	}
}
