// Package _switch delivers outbound events to websocket sessions,
// addressed by connection id. It knows nothing about matchmaking;
// events for connections that are gone are dropped.
package _switch

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roulette/backend/model"
)

const (
	defaultFwdTimout = time.Second
)

type Switch struct {
	logger zerolog.Logger
	mx     *sync.RWMutex
	wires  map[string]model.Wire
}

func NewSwitch(logger *zerolog.Logger) *Switch {
	return &Switch{
		logger: logger.With().Str("component", "switch").Logger(),
		mx:     &sync.RWMutex{},
		wires:  make(map[string]model.Wire),
	}
}

func (sw *Switch) Connect(id string, wire model.Wire) {
	sw.mx.Lock()
	sw.wires[id] = wire
	sw.mx.Unlock()
	sw.logger.Debug().Str("userID", id).Msg("endpoint connected")
}

func (sw *Switch) Disconnect(id string) {
	sw.mx.Lock()
	delete(sw.wires, id)
	sw.mx.Unlock()
	sw.logger.Debug().Str("userID", id).Msg("endpoint disconnected")
}

// Send delivers ev to one connection. Unknown destinations are logged
// and dropped.
func (sw *Switch) Send(dst string, ev model.Event) {
	sw.mx.RLock()
	wire, ok := sw.wires[dst]
	sw.mx.RUnlock()

	logger := sw.logger.With().Str("dst", dst).Str("type", ev.Type).Logger()
	if !ok {
		logger.Debug().Msg("cannot forward, dst not found")
		return
	}
	send(ev, wire.TX, &logger)
}

// Broadcast delivers ev to every connection.
func (sw *Switch) Broadcast(ev model.Event) {
	sw.mx.RLock()
	wires := make(map[string]model.Wire, len(sw.wires))
	for id, wire := range sw.wires {
		wires[id] = wire
	}
	sw.mx.RUnlock()

	for id, wire := range wires {
		logger := sw.logger.With().Str("dst", id).Str("type", ev.Type).Logger()
		send(ev, wire.TX, &logger)
	}
}

func send(ev model.Event, tx chan<- model.Event, logger *zerolog.Logger) bool {
	var sent bool
	tCh := time.NewTimer(defaultFwdTimout)
	select {
	case <-tCh.C:
		logger.Error().Msg("dead endpoint")
	case tx <- ev:
		logger.Trace().Msg("event forwarded")
		sent = true
	}
	tCh.Stop()
	return sent
}
