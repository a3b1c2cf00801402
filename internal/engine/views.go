package engine

import (
	"time"

	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/events"
	"github.com/aistory/sandboxworld/internal/relationship"
)

// CharacterView is one character's public snapshot.
type CharacterView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	State       character.State `json:"state"`
	CurrentGoal string          `json:"current_goal"`
}

// PairView is one relationship's public snapshot.
type PairView struct {
	A      string              `json:"a"`
	B      string              `json:"b"`
	Status relationship.Status `json:"status"`
}

// Summary is the whole-world snapshot served by the status endpoint.
type Summary struct {
	Tick        uint64                   `json:"tick"`
	Time        time.Time                `json:"time"`
	SchoolDay   bool                     `json:"school_day"`
	Weather     string                   `json:"weather"`
	GlobalMood  float64                  `json:"global_mood"`
	Characters  []CharacterView          `json:"characters"`
	Pairs       []PairView               `json:"relationships"`
	RecentEvent []events.ExecutionResult `json:"recent_events"`
}

// Snapshot returns a consistent view of the world between ticks.
func (s *Simulation) Snapshot() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chars := make([]CharacterView, 0, len(s.Roster))
	for _, p := range s.Roster {
		st := s.states[p.ID]
		chars = append(chars, CharacterView{
			ID:          p.ID,
			Name:        p.Name,
			State:       st,
			CurrentGoal: st.CurrentGoal,
		})
	}

	pairs := make([]PairView, 0)
	for _, key := range s.Relationships.Pairs() {
		pairs = append(pairs, PairView{
			A:      key.A,
			B:      key.B,
			Status: s.Relationships.Status(key.A, key.B),
		})
	}

	recent := s.results
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	out := make([]events.ExecutionResult, len(recent))
	copy(out, recent)

	return Summary{
		Tick:        s.clock.Tick,
		Time:        s.clock.Time,
		SchoolDay:   s.clock.SchoolDay,
		Weather:     s.clock.Weather.Name(),
		GlobalMood:  s.clock.GlobalMood,
		Characters:  chars,
		Pairs:       pairs,
		RecentEvent: out,
	}
}

// Character returns one character's view, false when the id is unknown.
func (s *Simulation) Character(id string) (CharacterView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.Roster {
		if p.ID != id {
			continue
		}
		st := s.states[p.ID]
		return CharacterView{ID: p.ID, Name: p.Name, State: st, CurrentGoal: st.CurrentGoal}, true
	}
	return CharacterView{}, false
}

// RecentEvents returns up to limit of the latest resolved events,
// oldest first.
func (s *Simulation) RecentEvents(limit int) []events.ExecutionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := s.results
	if limit > 0 && len(res) > limit {
		res = res[len(res)-limit:]
	}
	out := make([]events.ExecutionResult, len(res))
	copy(out, res)
	return out
}
