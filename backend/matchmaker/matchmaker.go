package matchmaker

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roulette/backend/model"
)

type (
	// Sender delivers outbound events. Send addresses exactly one
	// connection; Broadcast reaches every connection.
	Sender interface {
		Send(dst string, ev model.Event)
		Broadcast(ev model.Event)
	}

	Metrics interface {
		IncConnections()
		IncMatches(ct model.ChatType)
		IncSkips()
		IncMessages()
		SetOnline(n int)
		SetWaiting(ct model.ChatType, n int)
		SetRooms(n int)
	}

	// Matchmaker owns all matchmaking state: the participant registry,
	// the per-chat-type waiting queues, the room directory and the
	// online counter. One mutex guards the whole of it for the duration
	// of a state transition, delivery included: outbound events are
	// collected during the transition and emitted only after all
	// mutations are complete, still under the lock, so a recipient sees
	// the events of consecutive transitions in transition order. The
	// switch's send timeout bounds how long a dead endpoint can hold
	// the lock.
	Matchmaker struct {
		mu       sync.Mutex
		registry *registry
		queues   *queues
		rooms    *roomDirectory
		online   int

		sender  Sender
		metrics Metrics
		logger  zerolog.Logger
		now     func() time.Time
	}

	Config struct {
		Sender  Sender
		Metrics Metrics
		Logger  *zerolog.Logger
	}
)

func New(cfg Config) *Matchmaker {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Matchmaker{
		registry: newRegistry(),
		queues:   newQueues(),
		rooms:    newRoomDirectory(),
		sender:   cfg.Sender,
		metrics:  metrics,
		logger:   cfg.Logger.With().Str("component", "matchmaker").Logger(),
		now:      time.Now,
	}
}

// outbound is a pending delivery. Empty dst means broadcast.
type outbound struct {
	dst string
	ev  model.Event
}

// emit delivers pending events. Caller must hold mu so that deliveries
// of back-to-back transitions cannot interleave per recipient.
func (m *Matchmaker) emit(out []outbound) {
	for _, o := range out {
		if o.dst == "" {
			m.sender.Broadcast(o.ev)
		} else {
			m.sender.Send(o.dst, o.ev)
		}
	}
}

// Connect registers a new connection and broadcasts the updated online
// count to everyone.
func (m *Matchmaker) Connect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry.register(id)
	m.online++
	m.metrics.IncConnections()
	m.metrics.SetOnline(m.online)
	m.logger.Debug().Str("userID", id).Int("online", m.online).Msg("participant connected")
	m.emit([]outbound{{ev: model.NewEvent(model.EventTypeOnlineCount, m.online)}})
}

// Join stores chat type and location metadata. Calling it again
// overwrites both, except that chat type is frozen while the
// participant is in a room (both members must share the room's chat
// type); changing it while waiting drops the stale queue entry.
func (m *Matchmaker) Join(id string, p model.JoinPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.registry.get(id)
	if !ok {
		return
	}
	if ct := model.ParseChatType(p.ChatType); part.RoomID == "" && ct != part.ChatType {
		m.queues.remove(part.ChatType, id)
		m.metrics.SetWaiting(part.ChatType, m.queues.size(part.ChatType))
		part.ChatType = ct
	}
	part.Meta = model.NewMetadata(p.Country, p.State)
	m.logger.Debug().
		Str("userID", id).
		Str("chatType", string(part.ChatType)).
		Str("country", part.Meta.Country).
		Str("state", part.Meta.State).
		Msg("participant joined")
}

// FindPartner puts the participant into its chat type's waiting queue
// and attempts a match. A participant already in a room is left alone;
// repeated calls while waiting do not duplicate the queue entry.
func (m *Matchmaker) FindPartner(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.registry.get(id)
	if !ok || part.RoomID != "" {
		return
	}
	ct := part.ChatType
	m.queues.remove(ct, id)
	m.queues.enqueue(ct, id)
	out := m.tryMatch(ct)
	if m.queues.contains(ct, id) {
		out = append(out, outbound{dst: id, ev: model.NewEvent(model.EventTypeWaiting, nil)})
	}
	m.metrics.SetWaiting(ct, m.queues.size(ct))
	m.emit(out)
}

// tryMatch pairs the two best waiting participants of ct, preferring a
// partner the queue head has not just talked to. With no novel partner
// available the new queue head is taken anyway; two participants are
// never left waiting solely to avoid a repeat. Caller must hold mu.
func (m *Matchmaker) tryMatch(ct model.ChatType) []outbound {
	if m.queues.size(ct) < 2 {
		return nil
	}
	u1, _ := m.queues.dequeueFirst(ct)
	p1, ok := m.registry.get(u1)
	if !ok {
		return nil
	}
	u2, found := m.queues.findAndRemove(ct, func(id string) bool {
		p, ok := m.registry.get(id)
		return ok && p.LastPartner != u1
	})
	if !found {
		u2, _ = m.queues.dequeueFirst(ct)
	}
	p2, ok := m.registry.get(u2)
	if !ok {
		return nil
	}

	room := m.rooms.create(ct, u1, u2)
	p1.RoomID = room.ID
	p2.RoomID = room.ID
	p1.LastPartner = u2
	p2.LastPartner = u1

	m.metrics.IncMatches(ct)
	m.metrics.SetRooms(m.rooms.size())
	m.logger.Debug().
		Str("roomID", room.ID).
		Str("userID", u1).
		Str("partnerID", u2).
		Str("chatType", string(ct)).
		Msg("participants matched")

	// The popped head is the initiator; the downstream media
	// negotiation needs exactly one offerer per pair.
	return []outbound{
		{dst: u1, ev: model.NewEvent(model.EventTypePartnerFound, model.PartnerFoundPayload{
			Initiator: true,
			Partner:   p2.Meta,
		})},
		{dst: u2, ev: model.NewEvent(model.EventTypePartnerFound, model.PartnerFoundPayload{
			Initiator: false,
			Partner:   p1.Meta,
		})},
	}
}

// Skip tears the participant's room down, notifies the former partner,
// re-queues both sides and attempts a fresh match. No-op outside a
// room.
func (m *Matchmaker) Skip(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.registry.get(id)
	if !ok || part.RoomID == "" {
		return
	}
	_, out := m.teardownRoom(part)
	m.queues.enqueue(part.ChatType, id)
	out = append(out, m.tryMatch(part.ChatType)...)
	if m.queues.contains(part.ChatType, id) {
		out = append(out, outbound{dst: id, ev: model.NewEvent(model.EventTypeWaiting, nil)})
	}
	m.metrics.IncSkips()
	m.metrics.SetWaiting(part.ChatType, m.queues.size(part.ChatType))
	m.logger.Debug().Str("userID", id).Msg("skip requested")
	m.emit(out)
}

// teardownRoom destroys part's room, clears both members' room refs and
// re-queues the former partner. Returns the partner id and the
// partner-left delivery. Caller must hold mu; part must be in a room.
func (m *Matchmaker) teardownRoom(part *model.Participant) (string, []outbound) {
	room, ok := m.rooms.roomOf(part.ID)
	if !ok {
		part.RoomID = ""
		return "", nil
	}
	partnerID, _ := room.Other(part.ID)
	m.rooms.destroy(room.ID)
	part.RoomID = ""

	var out []outbound
	if partner, ok := m.registry.get(partnerID); ok {
		partner.RoomID = ""
		m.queues.enqueue(partner.ChatType, partnerID)
		m.metrics.SetWaiting(partner.ChatType, m.queues.size(partner.ChatType))
		out = append(out, outbound{dst: partnerID, ev: model.NewEvent(model.EventTypePartnerLeft, nil)})
	}
	m.metrics.SetRooms(m.rooms.size())
	m.logger.Debug().
		Str("roomID", room.ID).
		Str("userID", part.ID).
		Str("partnerID", partnerID).
		Msg("room destroyed")
	return partnerID, out
}

// Disconnect purges the participant. A matched partner is notified,
// re-queued and offered a fresh match; the updated online count goes
// out to everyone.
func (m *Matchmaker) Disconnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.registry.get(id)
	if !ok {
		return
	}
	m.queues.remove(part.ChatType, id)
	m.metrics.SetWaiting(part.ChatType, m.queues.size(part.ChatType))

	var out []outbound
	if part.RoomID != "" {
		partnerID, torn := m.teardownRoom(part)
		out = torn
		if partner, ok := m.registry.get(partnerID); ok {
			out = append(out, m.tryMatch(partner.ChatType)...)
		}
	}
	m.registry.remove(id)
	m.online--
	m.metrics.SetOnline(m.online)
	m.logger.Debug().Str("userID", id).Int("online", m.online).Msg("participant disconnected")
	out = append(out, outbound{ev: model.NewEvent(model.EventTypeOnlineCount, m.online)})
	m.emit(out)
}

// Relay forwards an opaque signaling payload verbatim to the
// participant's current partner under the same event type. Payloads are
// never inspected; without a partner the event is dropped.
func (m *Matchmaker) Relay(id, eventType string, payload json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partnerID, ok := m.rooms.partnerOf(id)
	if !ok {
		return
	}
	m.emit([]outbound{{dst: partnerID, ev: model.Event{Type: eventType, Payload: payload}}})
}

// SendMessage relays a chat message to the partner. Messages that are
// empty after trimming are dropped; delivered text is left verbatim.
func (m *Matchmaker) SendMessage(id, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	partnerID, ok := m.rooms.partnerOf(id)
	if !ok {
		return
	}
	m.metrics.IncMessages()
	m.emit([]outbound{{dst: partnerID, ev: model.NewEvent(model.EventTypeReceiveMessage, model.ReceiveMessagePayload{
		From: "partner",
		Text: text,
		Time: m.now().UnixMilli(),
	})}})
}

// Typing notifies the partner that the participant is typing.
func (m *Matchmaker) Typing(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partnerID, ok := m.rooms.partnerOf(id)
	if !ok {
		return
	}
	m.emit([]outbound{{dst: partnerID, ev: model.NewEvent(model.EventTypePartnerTyping, nil)}})
}

type Snapshot struct {
	Online       int `json:"online"`
	WaitingVideo int `json:"waiting_video"`
	WaitingText  int `json:"waiting_text"`
	Rooms        int `json:"rooms"`
}

func (m *Matchmaker) Stats() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Online:       m.online,
		WaitingVideo: m.queues.size(model.ChatTypeVideo),
		WaitingText:  m.queues.size(model.ChatTypeText),
		Rooms:        m.rooms.size(),
	}
}

type noopMetrics struct{}

func (noopMetrics) IncConnections()                {}
func (noopMetrics) IncMatches(model.ChatType)      {}
func (noopMetrics) IncSkips()                      {}
func (noopMetrics) IncMessages()                   {}
func (noopMetrics) SetOnline(int)                  {}
func (noopMetrics) SetWaiting(model.ChatType, int) {}
func (noopMetrics) SetRooms(int)                   {}

var _ Metrics = noopMetrics{}
