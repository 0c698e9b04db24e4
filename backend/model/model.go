package model

import "encoding/json"

// ChatType partitions queueing and matching. Participants of different
// chat types are never paired.
type ChatType string

const (
	ChatTypeVideo ChatType = "video"
	ChatTypeText  ChatType = "text"
)

// ParseChatType maps a wire value to a ChatType, defaulting to video.
func ParseChatType(s string) ChatType {
	if s == string(ChatTypeText) {
		return ChatTypeText
	}
	return ChatTypeVideo
}

const metaUnknown = "Unknown"

type Metadata struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// NewMetadata fills absent fields with "Unknown".
func NewMetadata(country, state string) Metadata {
	if country == "" {
		country = metaUnknown
	}
	if state == "" {
		state = metaUnknown
	}
	return Metadata{Country: country, State: state}
}

type Participant struct {
	ID          string
	ChatType    ChatType
	Meta        Metadata
	RoomID      string // empty while unmatched
	LastPartner string // empty until first match
}

type Room struct {
	ID       string
	ChatType ChatType
	Members  [2]string
}

// Other returns the member that is not id, or false if id is not a member.
func (r Room) Other(id string) (string, bool) {
	switch id {
	case r.Members[0]:
		return r.Members[1], true
	case r.Members[1]:
		return r.Members[0], true
	}
	return "", false
}

// Inbound event types.
const (
	EventTypeJoin        = "join"
	EventTypeFindPartner = "find-partner"
	EventTypeOffer       = "offer"
	EventTypeAnswer      = "answer"
	EventTypeICE         = "ice-candidate"
	EventTypeSkip        = "skip"
	EventTypeSendMessage = "send-message"
	EventTypeTyping      = "typing"
)

// Outbound event types. Offer/answer/ice-candidate are relayed under
// their inbound names.
const (
	EventTypeWaiting        = "waiting"
	EventTypePartnerFound   = "partner-found"
	EventTypePartnerLeft    = "partner-left"
	EventTypeReceiveMessage = "receive-message"
	EventTypePartnerTyping  = "partner-typing"
	EventTypeOnlineCount    = "online-count"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into an Event. Payloads are plain structs of
// strings/bools/ints, so marshaling cannot fail; nil payload is omitted.
func NewEvent(t string, payload any) Event {
	ev := Event{Type: t}
	if payload != nil {
		ev.Payload, _ = json.Marshal(payload)
	}
	return ev
}

type JoinPayload struct {
	Country  string `json:"country,omitempty"`
	State    string `json:"state,omitempty"`
	ChatType string `json:"chatType,omitempty"`
}

type PartnerFoundPayload struct {
	Initiator bool     `json:"initiator"`
	Partner   Metadata `json:"partner"`
}

type ReceiveMessagePayload struct {
	From string `json:"from"`
	Text string `json:"text"`
	Time int64  `json:"time"` // unix milliseconds at dispatch
}

// Wire is a per-connection channel pair linking a websocket session to
// the rest of the backend. RX carries inbound events off the socket, TX
// carries outbound events to it.
type Wire struct {
	RX chan Event
	TX chan Event
}

func NewWire() Wire {
	return Wire{
		RX: make(chan Event),
		TX: make(chan Event),
	}
}
