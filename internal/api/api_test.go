package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/engine"
	"github.com/aistory/sandboxworld/internal/enrich"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/events"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	roster := []character.Profile{
		{
			ID:   "chappie",
			Name: "Chappie",
			Traits: map[string]float64{
				"curiosity": 90, "helpfulness": 95, "charisma": 90,
			},
			FavoriteTopics: []string{"dance", "chatting"},
			Comm:           character.CommStyle{Chattiness: 10, Casualness: 9},
		},
		{
			ID:   "gemmy",
			Name: "Gemmy",
			Traits: map[string]float64{
				"curiosity": 70, "helpfulness": 85, "perfectionism": 90,
			},
			FavoriteTopics: []string{"rules", "learning"},
			Comm:           character.CommStyle{Chattiness: 4, Politeness: 9},
		},
	}

	rng := entropy.Seeded(1)
	local := enrich.NewLocal(rng)
	reg := events.NewRegistry()

	sim, err := engine.NewSimulation(
		roster,
		world.NewState(world.SchoolYearStart()),
		world.NewWeatherField(1),
		decision.NewEngine(catalog.New(), local, local, rng),
		relationship.NewEngine(),
		events.NewGenerator(reg, rng),
		events.NewExecutor(reg, rng),
		rng,
		nil,
		nil,
	)
	require.NoError(t, err)
	return &Server{Sim: sim}
}

func get(t *testing.T, handler http.HandlerFunc, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHandleStatus(t *testing.T) {
	s := testServer(t)

	rec, body := get(t, s.handleStatus, "/api/v1/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "tick")
	assert.Contains(t, body, "weather")
	assert.Len(t, body["characters"], 2)
}

func TestHandleCharacters(t *testing.T) {
	s := testServer(t)

	rec, body := get(t, s.handleCharacters, "/api/v1/characters")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
}

func TestHandleCharacterDetail(t *testing.T) {
	s := testServer(t)

	rec, body := get(t, s.handleCharacterDetail, "/api/v1/character/chappie")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "character")
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "Chappie", profile["name"])

	rec, _ = get(t, s.handleCharacterDetail, "/api/v1/character/nobody")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, s.handleCharacterDetail, "/api/v1/character/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRelationshipDetail(t *testing.T) {
	s := testServer(t)

	rec, body := get(t, s.handleRelationshipDetail, "/api/v1/relationship/chappie/gemmy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "status")
	assert.Contains(t, body, "predictions")

	rec, _ = get(t, s.handleRelationshipDetail, "/api/v1/relationship/chappie")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDecisionsWithoutDB(t *testing.T) {
	s := testServer(t)
	require.NoError(t, s.Sim.Step(context.Background()))

	rec, body := get(t, s.handleDecisions, "/api/v1/decisions?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, body = get(t, s.handleDecisions, "/api/v1/decisions?character=chappie")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestHandleChronicle(t *testing.T) {
	s := testServer(t)
	require.NoError(t, s.Sim.Step(context.Background()))

	rec := httptest.NewRecorder()
	s.handleChronicle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chronicle", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "World Chronicle")
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=7&bad=oops&neg=-2", nil)
	assert.Equal(t, 7, queryInt(req, "limit", 50))
	assert.Equal(t, 50, queryInt(req, "bad", 50))
	assert.Equal(t, 50, queryInt(req, "neg", 50))
	assert.Equal(t, 50, queryInt(req, "absent", 50))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	ok, _ := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Positive(t, retry)

	// Other clients are tracked independently.
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chronicle", nil)
	req.RemoteAddr = "10.0.0.3:55000"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
