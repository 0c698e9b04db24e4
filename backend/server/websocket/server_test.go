package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"roulette/backend/matchmaker"
	"roulette/backend/model"
	"roulette/backend/service"
	sw "roulette/backend/switch"
)

func newTestStack(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	swtch := sw.NewSwitch(&logger)
	mm := matchmaker.New(matchmaker.Config{
		Sender: swtch,
		Logger: &logger,
	})
	svc := service.NewService(service.Config{
		Transport:  swtch,
		Controller: mm,
		Logger:     &logger,
	})
	srv := NewServer(Config{
		Logger:         &logger,
		SessionService: svc,
		ListenAddr:     ":0",
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + ts.URL[4:] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(model.NewEvent(eventType, payload)))
}

// readUntil reads events off conn until one of eventType arrives,
// skipping unrelated broadcasts like online-count.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) model.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev model.Event
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", eventType)
		if ev.Type == eventType {
			return ev
		}
	}
}

func TestServer_EndToEndMatchAndRelay(t *testing.T) {
	req := require.New(t)
	ts := newTestStack(t)

	c1 := dial(t, ts)
	ev := readUntil(t, c1, model.EventTypeOnlineCount)
	req.JSONEq("1", string(ev.Payload))

	sendEvent(t, c1, model.EventTypeJoin, model.JoinPayload{ChatType: "video", Country: "DE", State: "Berlin"})
	sendEvent(t, c1, model.EventTypeFindPartner, nil)
	readUntil(t, c1, model.EventTypeWaiting)

	c2 := dial(t, ts)
	readUntil(t, c2, model.EventTypeOnlineCount)
	sendEvent(t, c2, model.EventTypeJoin, model.JoinPayload{ChatType: "video", Country: "FR", State: "Paris"})
	sendEvent(t, c2, model.EventTypeFindPartner, nil)

	var pf1, pf2 model.PartnerFoundPayload
	req.NoError(json.Unmarshal(readUntil(t, c1, model.EventTypePartnerFound).Payload, &pf1))
	req.NoError(json.Unmarshal(readUntil(t, c2, model.EventTypePartnerFound).Payload, &pf2))

	req.True(pf1.Initiator) // first in queue makes the offer
	req.False(pf2.Initiator)
	req.Equal("FR", pf1.Partner.Country)
	req.Equal("DE", pf2.Partner.Country)

	// opaque signaling payload travels verbatim
	sendEvent(t, c1, model.EventTypeOffer, map[string]string{"sdp": "v=0"})
	offer := readUntil(t, c2, model.EventTypeOffer)
	req.JSONEq(`{"sdp":"v=0"}`, string(offer.Payload))

	sendEvent(t, c2, model.EventTypeSendMessage, "hello")
	var msg model.ReceiveMessagePayload
	req.NoError(json.Unmarshal(readUntil(t, c1, model.EventTypeReceiveMessage).Payload, &msg))
	req.Equal("partner", msg.From)
	req.Equal("hello", msg.Text)
	req.Positive(msg.Time)
}

func TestServer_PartnerNotifiedOnDisconnect(t *testing.T) {
	req := require.New(t)
	ts := newTestStack(t)

	c1 := dial(t, ts)
	sendEvent(t, c1, model.EventTypeJoin, model.JoinPayload{})
	sendEvent(t, c1, model.EventTypeFindPartner, nil)

	c2 := dial(t, ts)
	sendEvent(t, c2, model.EventTypeJoin, model.JoinPayload{})
	sendEvent(t, c2, model.EventTypeFindPartner, nil)

	readUntil(t, c1, model.EventTypePartnerFound)
	readUntil(t, c2, model.EventTypePartnerFound)

	req.NoError(c2.Close())

	readUntil(t, c1, model.EventTypePartnerLeft)
	ev := readUntil(t, c1, model.EventTypeOnlineCount)
	req.JSONEq("1", string(ev.Payload))
}
