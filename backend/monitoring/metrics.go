package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"roulette/backend/model"
)

// Collector exposes matchmaking activity through the default prometheus
// registry, scraped via the api server's /metrics route.
type Collector struct {
	connectionsTotal     prometheus.Counter
	matchesTotal         *prometheus.CounterVec
	skipsTotal           prometheus.Counter
	messagesRelayedTotal prometheus.Counter

	participantsOnline prometheus.Gauge
	waiting            *prometheus.GaugeVec
	roomsActive        prometheus.Gauge
}

func NewCollector() *Collector {
	return &Collector{
		connectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roulette_connections_total",
			Help: "Total number of websocket connections accepted",
		}),

		matchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roulette_matches_total",
			Help: "Total number of rooms created by the pairing engine",
		}, []string{"chat_type"}),

		skipsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roulette_skips_total",
			Help: "Total number of skip requests that tore a room down",
		}),

		messagesRelayedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "roulette_messages_relayed_total",
			Help: "Total number of chat messages relayed between partners",
		}),

		participantsOnline: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_participants_online",
			Help: "Number of currently connected participants",
		}),

		waiting: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roulette_waiting",
			Help: "Number of participants waiting for a partner",
		}, []string{"chat_type"}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "roulette_rooms_active",
			Help: "Number of active two-party rooms",
		}),
	}
}

func (c *Collector) IncConnections() {
	c.connectionsTotal.Inc()
}

func (c *Collector) IncMatches(ct model.ChatType) {
	c.matchesTotal.WithLabelValues(string(ct)).Inc()
}

func (c *Collector) IncSkips() {
	c.skipsTotal.Inc()
}

func (c *Collector) IncMessages() {
	c.messagesRelayedTotal.Inc()
}

func (c *Collector) SetOnline(n int) {
	c.participantsOnline.Set(float64(n))
}

func (c *Collector) SetWaiting(ct model.ChatType, n int) {
	c.waiting.WithLabelValues(string(ct)).Set(float64(n))
}

func (c *Collector) SetRooms(n int) {
	c.roomsActive.Set(float64(n))
}
