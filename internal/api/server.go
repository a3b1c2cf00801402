// Package api provides the HTTP API for observing the sandbox world.
// All endpoints are read-only; the simulation cannot be steered over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aistory/sandboxworld/internal/chronicle"
	"github.com/aistory/sandboxworld/internal/engine"
	"github.com/aistory/sandboxworld/internal/persistence"
)

const (
	maxStreamConns = 8
	streamInterval = time.Second
)

// Server serves the world state over HTTP.
type Server struct {
	Sim  *engine.Simulation
	DB   *persistence.DB // nil disables history queries
	Port int

	streamConns int32
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The stream carries no client input, so any origin may watch.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	chronicleLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/characters", s.handleCharacters)
	mux.HandleFunc("/api/v1/character/", s.handleCharacterDetail)
	mux.HandleFunc("/api/v1/relationships", s.handleRelationships)
	mux.HandleFunc("/api/v1/relationships/matrix", s.handleMatrix)
	mux.HandleFunc("/api/v1/relationship/", s.handleRelationshipDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/decisions", s.handleDecisions)
	mux.HandleFunc("/api/v1/chronicle", RateLimitMiddleware(chronicleLimiter, s.handleChronicle))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot())
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"characters": snap.Characters,
		"count":      len(snap.Characters),
	})
}

// handleCharacterDetail serves GET /api/v1/character/{id}: profile, current
// state, and the character's recent decisions.
func (s *Server) handleCharacterDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/character/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	view, ok := s.Sim.Character(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	resp := map[string]any{"character": view}
	for _, p := range s.Sim.Roster {
		if p.ID == id {
			resp["profile"] = p
			break
		}
	}
	if s.DB != nil {
		if ds, err := s.DB.RecentDecisions(id, 20); err == nil {
			resp["recent_decisions"] = ds
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"relationships": snap.Pairs,
		"count":         len(snap.Pairs),
	})
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Relationships.Matrix())
}

// handleRelationshipDetail serves GET /api/v1/relationship/{a}/{b}: the pair's
// status plus predicted next interactions.
func (s *Server) handleRelationshipDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/relationship/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, map[string]any{
		"status":      s.Sim.Relationships.Status(parts[0], parts[1]),
		"predictions": s.Sim.Relationships.Predict(parts[0], parts[1]),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	events := s.Sim.RecentEvents(limit)
	writeJSON(w, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	charID := r.URL.Query().Get("character")

	if s.DB != nil {
		ds, err := s.DB.RecentDecisions(charID, limit)
		if err != nil {
			http.Error(w, "decision query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"decisions": ds, "count": len(ds)})
		return
	}

	ds := s.Sim.Decisions.Recent(limit)
	if charID != "" {
		kept := ds[:0]
		for _, d := range ds {
			if d.CharacterID == charID {
				kept = append(kept, d)
			}
		}
		ds = kept
	}
	writeJSON(w, map[string]any{"decisions": ds, "count": len(ds)})
}

// handleChronicle renders recent world activity as an HTML story.
func (s *Server) handleChronicle(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()

	// Group in-memory history back into per-tick records.
	byTick := map[uint64]*engine.TickRecord{}
	var order []uint64
	record := func(tick uint64) *engine.TickRecord {
		rec, ok := byTick[tick]
		if !ok {
			rec = &engine.TickRecord{Tick: tick}
			byTick[tick] = rec
			order = append(order, tick)
		}
		return rec
	}
	for _, d := range s.Sim.Decisions.Recent(200) {
		rec := record(d.Tick)
		rec.Time = d.Timestamp
		rec.Decisions = append(rec.Decisions, d)
	}
	for _, e := range s.Sim.RecentEvents(0) {
		record(e.Tick).Events = append(record(e.Tick).Events, e)
	}

	records := make([]engine.TickRecord, 0, len(order))
	for _, tick := range order {
		rec := byTick[tick]
		rec.Weather = snap.Weather
		records = append(records, *rec)
	}

	html, err := chronicle.Render(chronicle.Build(records))
	if err != nil {
		http.Error(w, "chronicle render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// handleStream upgrades to a websocket and pushes a world snapshot after
// every tick until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&s.streamConns, 1) > maxStreamConns {
		atomic.AddInt32(&s.streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.streamConns, -1)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var lastTick uint64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := s.Sim.Snapshot()
			if snap.Tick == lastTick {
				continue
			}
			lastTick = snap.Tick

			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
