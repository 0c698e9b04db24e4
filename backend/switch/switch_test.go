package _switch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"roulette/backend/model"
)

func newTestSwitch() *Switch {
	logger := zerolog.Nop()
	return NewSwitch(&logger)
}

func bufferedWire() model.Wire {
	return model.Wire{
		RX: make(chan model.Event, 8),
		TX: make(chan model.Event, 8),
	}
}

func TestSwitch_SendReachesDst(t *testing.T) {
	req := require.New(t)
	sw := newTestSwitch()
	wire := bufferedWire()
	sw.Connect("a", wire)

	sw.Send("a", model.NewEvent("waiting", nil))

	req.Len(wire.TX, 1)
	ev := <-wire.TX
	req.Equal("waiting", ev.Type)
}

func TestSwitch_SendUnknownDstIsDropped(t *testing.T) {
	sw := newTestSwitch()

	// must not block or panic
	sw.Send("ghost", model.NewEvent("waiting", nil))
}

func TestSwitch_BroadcastReachesEveryone(t *testing.T) {
	req := require.New(t)
	sw := newTestSwitch()
	wireA := bufferedWire()
	wireB := bufferedWire()
	sw.Connect("a", wireA)
	sw.Connect("b", wireB)

	sw.Broadcast(model.NewEvent("online-count", 2))

	req.Len(wireA.TX, 1)
	req.Len(wireB.TX, 1)
}

func TestSwitch_DisconnectStopsDelivery(t *testing.T) {
	req := require.New(t)
	sw := newTestSwitch()
	wire := bufferedWire()
	sw.Connect("a", wire)
	sw.Disconnect("a")

	sw.Send("a", model.NewEvent("waiting", nil))

	req.Empty(wire.TX)
}

func TestSwitch_ConnectReplacesWire(t *testing.T) {
	req := require.New(t)
	sw := newTestSwitch()
	oldWire := bufferedWire()
	newWire := bufferedWire()
	sw.Connect("a", oldWire)
	sw.Connect("a", newWire)

	sw.Send("a", model.NewEvent("waiting", nil))

	req.Empty(oldWire.TX)
	req.Len(newWire.TX, 1)
}
