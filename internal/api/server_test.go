package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/assembly/internal/engine"
	"github.com/talgya/assembly/internal/world"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	sc := engine.DefaultScenario(3, world.Generate(world.SmallTestConfig()))
	sc.Player = &engine.PlayerSpec{Name: "Tester", AffiliationID: "umno"}
	sim, err := engine.New(sc)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sim.Metrics = engine.NewMetrics(reg)
	srv := &Server{Eng: engine.NewEngine(sim), AdminKey: testKey, Gatherer: reg}
	return srv, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status map[string]any
	decodeBody(t, rec, &status)
	assert.Equal(t, "1958-01-01", status["date"])
	assert.Equal(t, "paused", status["phase"])
	assert.Equal(t, false, status["government"])
}

func TestPartiesSortedBySeats(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/parties", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var parties []partySummary
	decodeBody(t, rec, &parties)
	require.NotEmpty(t, parties)
	for i := 1; i < len(parties); i++ {
		assert.GreaterOrEqual(t, parties[i-1].Seats, parties[i].Seats)
	}
	var found bool
	for _, p := range parties {
		if p.ID == "umno" {
			found = true
			assert.Positive(t, p.Members)
		}
	}
	assert.True(t, found)
}

func TestUnknownIDs(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/party/nope", "", false).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/character/nope", "", false).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/party/umno", "", false).Code)
}

func TestCharacterFilters(t *testing.T) {
	srv, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/characters?party=umno", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var chars []map[string]any
	decodeBody(t, rec, &chars)
	require.NotEmpty(t, chars)
	for _, c := range chars {
		assert.Equal(t, "umno", c["party"])
	}

	player := srv.Eng.Sim.Player()
	rec = do(t, h, http.MethodGet, "/api/v1/character/"+string(player.ID), "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	decodeBody(t, rec, &got)
	assert.Equal(t, "Tester", got["name"])
}

func TestAdminAuth(t *testing.T) {
	srv, h := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/resume", "", false).Code)

	srv.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/api/v1/resume", "", true).Code)
}

func TestPauseResume(t *testing.T) {
	srv, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/resume", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.PhaseRunning, srv.Eng.Sim.Phase)

	rec = do(t, h, http.MethodPost, "/api/v1/pause", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.PhasePaused, srv.Eng.Sim.Phase)
}

func TestPhaseErrorsAreConflicts(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/v1/event/acknowledge", "", true).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/v1/speaker", "", true).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/v1/confidence", `{"vote":"Aye"}`, true).Code,
		"no government before the first election")
}

func TestBadInput(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":5000}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `{`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/bill/vote", `{"vote":"maybe"}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/action", `{"action":"bribe"}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/alliance", `{"name":" "}`, true).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/bill", `{"id":"nope"}`, true).Code)
}

func TestSpeed(t *testing.T) {
	srv, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":10}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10.0, srv.Eng.Speed)
}

func TestPersonalAction(t *testing.T) {
	srv, h := newTestServer(t)
	before := srv.Eng.Sim.Player().Influence

	rec := do(t, h, http.MethodPost, "/api/v1/action", `{"action":"address_local"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, srv.Eng.Sim.Player().Influence, before)
}

func TestSnapshotWithoutDatabase(t *testing.T) {
	_, h := newTestServer(t)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/v1/snapshot", "", true).Code)
}

func TestProjectionIsCachedPerGeneration(t *testing.T) {
	srv, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/projection", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Seats  map[string]string `json:"seats"`
		Totals map[string]int    `json:"totals"`
	}
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Seats)
	assert.LessOrEqual(t, len(body.Seats), srv.Eng.Sim.Geography.SeatCount())

	sum := 0
	for _, n := range body.Totals {
		sum += n
	}
	assert.Equal(t, len(body.Seats), sum)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/projection", "", false).Code)
	assert.Equal(t, 1, srv.projections.Len())
}

func TestLogLimit(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/log?limit=x", "", false).Code)

	rec := do(t, h, http.MethodGet, "/api/v1/log?limit=1", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []engine.LogEntry
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "A New Federation", entries[0].Title)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "assembly_")
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are limited separately")
	assert.Positive(t, rl.RetryAfter("a"))
	assert.Zero(t, rl.RetryAfter("c"))
}

func TestClientOf(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientOf(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientOf(req))
}
