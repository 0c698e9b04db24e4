package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"roulette/backend/matchmaker"
	"roulette/backend/model"
)

type (
	// Transport registers websocket sessions for outbound delivery.
	Transport interface {
		Connect(id string, wire model.Wire)
		Disconnect(id string)
	}

	// Controller is the matchmaking state machine. Every operation is a
	// no-op for unknown ids, so the service never has to check session
	// validity before dispatching.
	Controller interface {
		Connect(id string)
		Disconnect(id string)
		Join(id string, p model.JoinPayload)
		FindPartner(id string)
		Skip(id string)
		Relay(id, eventType string, payload json.RawMessage)
		SendMessage(id, text string)
		Typing(id string)
		Stats() matchmaker.Snapshot
	}

	Service struct {
		transport Transport
		ctrl      Controller
		logger    zerolog.Logger
	}

	Config struct {
		Transport  Transport
		Controller Controller
		Logger     *zerolog.Logger
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		transport: cfg.Transport,
		ctrl:      cfg.Controller,
		logger:    cfg.Logger.With().Str("component", "service").Logger(),
	}
}

// CreateSession wires a new connection into the transport, announces it
// to the matchmaker and starts dispatching its inbound events. The
// dispatch loop runs until ctx is canceled.
func (svc *Service) CreateSession(ctx context.Context, id string, wire model.Wire) {
	svc.transport.Connect(id, wire)
	svc.ctrl.Connect(id)
	svc.logger.Debug().Str("userID", id).Msg("session created")

	go svc.dispatch(ctx, id, wire.RX)
}

// DeleteSession removes the connection from the transport before the
// matchmaker runs its disconnect transition, so the resulting
// partner-left and online-count events are not delivered to the
// connection that is going away.
func (svc *Service) DeleteSession(id string) {
	svc.transport.Disconnect(id)
	svc.ctrl.Disconnect(id)
	svc.logger.Debug().Str("userID", id).Msg("session deleted")
}

func (svc *Service) Stats() matchmaker.Snapshot {
	return svc.ctrl.Stats()
}

func (svc *Service) dispatch(ctx context.Context, id string, rx <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-rx:
			svc.handle(id, ev)
		}
	}
}

// handle routes one inbound event. Undecodable or unknown events are
// logged and dropped; the core never errors back to the client.
func (svc *Service) handle(id string, ev model.Event) {
	switch ev.Type {
	case model.EventTypeJoin:
		var p model.JoinPayload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				svc.logger.Debug().Err(err).Str("userID", id).Msg("malformed join payload")
				return
			}
		}
		svc.ctrl.Join(id, p)

	case model.EventTypeFindPartner:
		svc.ctrl.FindPartner(id)

	case model.EventTypeOffer, model.EventTypeAnswer, model.EventTypeICE:
		svc.ctrl.Relay(id, ev.Type, ev.Payload)

	case model.EventTypeSkip:
		svc.ctrl.Skip(id)

	case model.EventTypeSendMessage:
		var text string
		if err := json.Unmarshal(ev.Payload, &text); err != nil {
			svc.logger.Debug().Err(err).Str("userID", id).Msg("malformed message payload")
			return
		}
		svc.ctrl.SendMessage(id, text)

	case model.EventTypeTyping:
		svc.ctrl.Typing(id)

	default:
		svc.logger.Debug().Str("userID", id).Str("type", ev.Type).Msg("unknown event type")
	}
}
