// Package relationship owns pairwise relationship state: compatibility
// computation, event-driven metric evolution, status classification, and
// forward-looking prediction. All metric math clamps and defaults rather than
// erroring; a broken lookup must never stall a simulation tick.
package relationship

import (
	"sort"

	"github.com/aistory/sandboxworld/internal/character"
)

// Metrics is the evolving social-bond scorecard for one unordered pair.
// Compatibility is fixed at creation; the rest evolve additively and clamp to
// [0, 100]. SharedExperiences is an unclamped non-negative counter.
type Metrics struct {
	Compatibility        float64 `json:"compatibility"`
	Intimacy             float64 `json:"intimacy"`
	Trust                float64 `json:"trust"`
	Understanding        float64 `json:"understanding"`
	ConflictResolution   float64 `json:"conflict_resolution"`
	CommunicationQuality float64 `json:"communication_quality"`
	SharedExperiences    int     `json:"shared_experiences"`
}

// Event is one append-only log entry describing a change to a pair's bond.
type Event struct {
	Tick            uint64             `json:"tick"`
	Type            string             `json:"type"`
	Participants    []string           `json:"participants"`
	Context         string             `json:"context"`
	EmotionalImpact float64            `json:"emotional_impact"`
	Changes         map[string]float64 `json:"changes"`
}

// Interaction is what the orchestrator feeds into Evolve after an event or a
// social action resolves. Type selects the delta table entry; Effects carries
// executor-computed deltas for types outside the table.
type Interaction struct {
	Type         string
	Participants []string
	Context      string
	Success      bool
	Effects      map[string]float64
}

// Interaction types with fixed delta-table entries.
const (
	TypeCooperation      = "cooperation"
	TypeConflict         = "conflict"
	TypeCasual           = "casual_interaction"
	TypeEmotionalSupport = "emotional_support"
	TypeFirstMeeting     = "first_meeting"
)

// Relationship levels, ordered from closest to most distant.
const (
	LevelBestFriends    = "best_friends"
	LevelCloseFriends   = "close_friends"
	LevelFriends        = "friends"
	LevelAcquaintances  = "acquaintances"
	LevelStrangers      = "strangers"
	LevelNoRelationship = "no_relationship"
)

// Engine manages all pairwise relationship records and their history.
// Not safe for concurrent use; the world loop is its only writer.
type Engine struct {
	metrics map[PairKey]*Metrics
	history []Event
}

// NewEngine creates an empty relationship engine.
func NewEngine() *Engine {
	return &Engine{metrics: make(map[PairKey]*Metrics)}
}

// Initialize creates the relationship record for a pair on first encounter.
// Idempotent: an existing record is returned unchanged, never re-derived.
func (e *Engine) Initialize(idA, idB string, profA, profB character.Profile, tick uint64) *Metrics {
	key := NewPair(idA, idB)
	if existing, ok := e.metrics[key]; ok {
		return existing
	}

	compat := Compatibility(profA, profB)

	// First impressions scale with compatibility, with small floors.
	m := &Metrics{
		Compatibility:        compat,
		Intimacy:             max2(5, compat*0.1),
		Trust:                max2(3, compat*0.05),
		Understanding:        max2(2, compat*0.03),
		ConflictResolution:   50,
		CommunicationQuality: compat * 0.6,
	}
	e.metrics[key] = m

	e.record(Event{
		Tick:            tick,
		Type:            TypeFirstMeeting,
		Participants:    []string{key.A, key.B},
		Context:         "first encounter",
		EmotionalImpact: compat / 100 * 0.3,
		Changes:         map[string]float64{"intimacy": m.Intimacy},
	})

	return m
}

// Get returns the metrics for a pair, if the pair has met.
func (e *Engine) Get(idA, idB string) (*Metrics, bool) {
	m, ok := e.metrics[NewPair(idA, idB)]
	return m, ok
}

// Pairs returns all known pair keys in canonical order.
func (e *Engine) Pairs() []PairKey {
	keys := make([]PairKey, 0, len(e.metrics))
	for k := range e.metrics {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// deltaFor returns the metric deltas for an interaction, from the fixed table
// when the type is known, otherwise from the interaction's explicit effects.
func deltaFor(inter Interaction) map[string]float64 {
	switch inter.Type {
	case TypeCooperation:
		if inter.Success {
			return map[string]float64{
				"trust":                 3,
				"understanding":         2,
				"shared_experiences":    1,
				"communication_quality": 1.5,
			}
		}
		return map[string]float64{
			"conflict_resolution": 2,
			"shared_experiences":  1,
		}
	case TypeConflict:
		changes := map[string]float64{
			"trust":    -2,
			"intimacy": -1,
		}
		if inter.Success { // resolved
			changes["understanding"] = 4
			changes["conflict_resolution"] = 3
		}
		return changes
	case TypeCasual:
		return map[string]float64{
			"intimacy":              1,
			"communication_quality": 0.5,
			"shared_experiences":    1,
		}
	case TypeEmotionalSupport:
		return map[string]float64{
			"trust":         4,
			"intimacy":      3,
			"understanding": 2,
		}
	default:
		return inter.Effects
	}
}

// Evolve applies an interaction to every participant pair that already has a
// relationship record, returning one Event per affected pair. Pairs that have
// never met are skipped, not created; first encounters go through Initialize.
func (e *Engine) Evolve(inter Interaction, tick uint64) []Event {
	var events []Event

	for i := 0; i < len(inter.Participants); i++ {
		for j := i + 1; j < len(inter.Participants); j++ {
			key := NewPair(inter.Participants[i], inter.Participants[j])
			m, ok := e.metrics[key]
			if !ok {
				continue
			}

			changes := deltaFor(inter)
			applyChanges(m, changes)

			impact := 0.0
			for _, v := range changes {
				impact += abs(v)
			}

			evt := Event{
				Tick:            tick,
				Type:            inter.Type,
				Participants:    []string{key.A, key.B},
				Context:         inter.Context,
				EmotionalImpact: impact / 10,
				Changes:         changes,
			}
			e.record(evt)
			events = append(events, evt)
		}
	}

	return events
}

// applyChanges adds deltas to the metrics. Numeric metrics clamp to [0, 100];
// shared_experiences accumulates and never goes negative.
func applyChanges(m *Metrics, changes map[string]float64) {
	for attr, delta := range changes {
		switch attr {
		case "shared_experiences":
			m.SharedExperiences += int(delta)
			if m.SharedExperiences < 0 {
				m.SharedExperiences = 0
			}
		case "intimacy":
			m.Intimacy = clamp100(m.Intimacy + delta)
		case "trust":
			m.Trust = clamp100(m.Trust + delta)
		case "understanding":
			m.Understanding = clamp100(m.Understanding + delta)
		case "conflict_resolution":
			m.ConflictResolution = clamp100(m.ConflictResolution + delta)
		case "communication_quality":
			m.CommunicationQuality = clamp100(m.CommunicationQuality + delta)
			// Unknown attributes are ignored: compatibility is fixed at
			// creation and unrecognized names must not break the tick.
		}
	}
}

// Status describes a pair's current relationship classification.
type Status struct {
	Level        string   `json:"level"`
	Metrics      *Metrics `json:"metrics,omitempty"`
	RecentEvents []Event  `json:"recent_events,omitempty"`
}

// Status classifies the pair by the average of intimacy, trust, and
// understanding. Pairs that have never met get the distinguished
// no_relationship level, never a fabricated zero-value record.
func (e *Engine) Status(idA, idB string) Status {
	key := NewPair(idA, idB)
	m, ok := e.metrics[key]
	if !ok {
		return Status{Level: LevelNoRelationship}
	}

	avg := (m.Intimacy + m.Trust + m.Understanding) / 3

	var level string
	switch {
	case avg >= 80:
		level = LevelBestFriends
	case avg >= 60:
		level = LevelCloseFriends
	case avg >= 40:
		level = LevelFriends
	case avg >= 20:
		level = LevelAcquaintances
	default:
		level = LevelStrangers
	}

	return Status{
		Level:        level,
		Metrics:      m,
		RecentEvents: e.recentPairEvents(key, 10),
	}
}

// recentPairEvents returns up to limit of the newest history entries
// involving exactly this pair.
func (e *Engine) recentPairEvents(key PairKey, limit int) []Event {
	var out []Event
	for i := len(e.history) - 1; i >= 0 && len(out) < limit; i-- {
		evt := e.history[i]
		if len(evt.Participants) == 2 &&
			NewPair(evt.Participants[0], evt.Participants[1]) == key {
			out = append(out, evt)
		}
	}
	return out
}

// History returns the full append-only relationship event log.
func (e *Engine) History() []Event {
	return e.history
}

func (e *Engine) record(evt Event) {
	e.history = append(e.history, evt)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
