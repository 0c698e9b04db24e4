package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"roulette/backend/matchmaker"
)

type stubStats struct{ snap matchmaker.Snapshot }

func (s stubStats) Stats() matchmaker.Snapshot { return s.snap }

func newTestServer(snap matchmaker.Snapshot) *Server {
	logger := zerolog.Nop()
	return NewServer(Config{
		Logger:       &logger,
		StatsService: stubStats{snap: snap},
		ListenAddr:   ":0",
	})
}

func TestServer_Health(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(matchmaker.Snapshot{})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	req.Equal(http.StatusOK, w.Code)
	req.Equal(healthMessage, w.Body.String())
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Stats(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(matchmaker.Snapshot{
		Online:       5,
		WaitingVideo: 2,
		WaitingText:  1,
		Rooms:        1,
	})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	req.Equal(http.StatusOK, w.Code)
	req.Equal("application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Data matchmaker.Snapshot `json:"data"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal(5, resp.Data.Online)
	req.Equal(2, resp.Data.WaitingVideo)
	req.Equal(1, resp.Data.Rooms)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(matchmaker.Snapshot{})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(matchmaker.Snapshot{})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))

	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}
