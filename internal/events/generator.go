// Event generation: five sources combined each tick, filtered by template
// prerequisites, then prioritized by urgency and truncated to at most five.
package events

import (
	"fmt"
	"sort"

	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/condition"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

// Urgency orders candidates for the per-tick cap.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// MaxEventsPerTick caps how many candidates survive prioritization.
const MaxEventsPerTick = 5

// Candidate is a proposed event before execution.
type Candidate struct {
	TemplateID   string   `json:"template_id"`
	Initiator    string   `json:"initiator,omitempty"`
	Participants []string `json:"participants"`
	Location     string   `json:"location,omitempty"`
	Context      string   `json:"context"`
	Urgency      Urgency  `json:"urgency,omitempty"`
}

// encounterLocations are where chance meetings happen.
var encounterLocations = []string{
	"library", "school store", "hallway", "rooftop", "club room",
}

// Generator produces candidate events from the world context and roster.
type Generator struct {
	reg *Registry
	rng entropy.Source
}

// NewGenerator creates an event generator over a template registry.
func NewGenerator(reg *Registry, rng entropy.Source) *Generator {
	return &Generator{reg: reg, rng: rng}
}

// Generate combines all generation sources for one tick, filters candidates
// whose template prerequisites fail, and returns at most MaxEventsPerTick
// candidates ordered by urgency (high > medium > low/unset).
func (g *Generator) Generate(wctx world.Context, roster []character.Profile) []Candidate {
	var candidates []Candidate

	candidates = append(candidates, g.scheduled(wctx, roster)...)
	candidates = append(candidates, g.characterInitiated(wctx, roster)...)
	candidates = append(candidates, g.randomEncounters(roster)...)
	candidates = append(candidates, g.emergencies(wctx)...)
	candidates = append(candidates, g.seasonal(wctx)...)

	return Prioritize(g.filter(candidates, wctx), MaxEventsPerTick)
}

// scheduled proposes time-of-day routine events on school days.
func (g *Generator) scheduled(wctx world.Context, roster []character.Profile) []Candidate {
	if !wctx.SchoolDay || len(roster) < 2 {
		return nil
	}

	var out []Candidate
	switch wctx.Time.Hour() {
	case 8:
		if g.rng.Float64() < 0.7 {
			out = append(out, Candidate{
				TemplateID:   "morning_greeting",
				Participants: g.pickParticipants(roster, 2, ""),
				Context:      "a natural meeting on the way to school",
			})
		}
	case 12:
		if g.rng.Float64() < 0.5 {
			n := 2 + g.rng.Intn(3) // 2–4
			out = append(out, Candidate{
				TemplateID:   "lunch_together",
				Participants: g.pickParticipants(roster, n, ""),
				Context:      "lunch-break mingling",
			})
		}
	}
	return out
}

// characterInitiated proposes events triggered by strong traits.
func (g *Generator) characterInitiated(wctx world.Context, roster []character.Profile) []Candidate {
	if len(roster) < 2 {
		return nil
	}

	var out []Candidate
	for _, p := range roster {
		// Natural helpers propose study sessions.
		if p.Trait("helpfulness") > 80 && g.rng.Float64() < 0.3 {
			out = append(out, Candidate{
				TemplateID:   "study_session",
				Initiator:    p.ID,
				Participants: g.pickParticipants(roster, 2, p.ID),
				Context:      fmt.Sprintf("%s suggests a study session", p.Name),
			})
		}
		// The very curious go looking for deeper connection.
		if p.Trait("curiosity") > 85 && g.rng.Float64() < 0.2 {
			out = append(out, Candidate{
				TemplateID:   "heart_to_heart",
				Initiator:    p.ID,
				Participants: g.pickParticipants(roster, 2, p.ID),
				Context:      fmt.Sprintf("%s wants a real conversation", p.Name),
			})
		}
	}
	return out
}

// randomEncounters proposes flat-probability chance meetings.
func (g *Generator) randomEncounters(roster []character.Profile) []Candidate {
	if len(roster) < 2 || g.rng.Float64() >= 0.4 {
		return nil
	}

	location := encounterLocations[g.rng.Intn(len(encounterLocations))]
	n := 2 + g.rng.Intn(2) // 2–3
	return []Candidate{{
		TemplateID:   "random_encounter",
		Participants: g.pickParticipants(roster, n, ""),
		Location:     location,
		Context:      fmt.Sprintf("a chance meeting at the %s", location),
	}}
}

// emergencies proposes conflict-resolution opportunities when a pair's
// tension or misunderstanding (externally maintained signals) crosses a
// threshold. Emergencies carry high urgency.
func (g *Generator) emergencies(wctx world.Context) []Candidate {
	// Roll in canonical pair order; map iteration would consume the rng in
	// a different order on every run and break seeded replay.
	pairs := make([]relationship.PairKey, 0, len(wctx.Relationships))
	for pair := range wctx.Relationships {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	var out []Candidate
	for _, pair := range pairs {
		snap := wctx.Relationships[pair]
		if snap.Tension <= 30 && snap.Misunderstanding <= 40 {
			continue
		}
		if g.rng.Float64() < 0.6 {
			out = append(out, Candidate{
				TemplateID:   "conflict_resolution",
				Participants: []string{pair.A, pair.B},
				Context:      "a chance to repair the relationship",
				Urgency:      UrgencyHigh,
			})
		}
	}
	return out
}

// seasonal proposes calendar-matched entries from the fixed yearly table.
func (g *Generator) seasonal(wctx world.Context) []Candidate {
	season := world.Season(wctx.Time.Month())

	var out []Candidate
	for _, entry := range yearlyEvents[season] {
		if entry.Month != wctx.Time.Month() {
			continue
		}
		out = append(out, Candidate{
			TemplateID: "seasonal_event",
			Context:    fmt.Sprintf("%s special event: %s", season, entry.Name),
		})
	}
	return out
}

// filter drops candidates whose template is unknown or whose prerequisites
// fail against the world context. Unresolvable conditions exclude, never err.
func (g *Generator) filter(candidates []Candidate, wctx world.Context) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		tmpl, ok := g.reg.Get(c.TemplateID)
		if !ok {
			continue
		}
		env := candidateEnv{wctx: wctx, cand: c}
		if !condition.All(tmpl.Prerequisites, env) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// candidateEnv resolves event prerequisites: aggregate metrics plus, for
// two-participant candidates, the pair's snapshot variables.
type candidateEnv struct {
	wctx world.Context
	cand Candidate
}

func (e candidateEnv) Value(name string) (float64, bool) {
	if name == "friendship_level" {
		return e.wctx.Metric(world.MetricAvgFriendship, 30), true
	}
	if v, ok := e.wctx.Metrics[name]; ok {
		return v, true
	}
	if len(e.cand.Participants) == 2 {
		key := relationship.NewPair(e.cand.Participants[0], e.cand.Participants[1])
		snap, ok := e.wctx.Relationships[key]
		if ok {
			switch name {
			case "relationship_tension":
				return snap.Tension, true
			case "misunderstanding":
				return snap.Misunderstanding, true
			case "compatibility":
				return snap.Compatibility, true
			}
		}
	}
	return 0, false
}

func (e candidateEnv) FlagSet(name string) (bool, bool) {
	v, ok := e.wctx.Flags[name]
	return v, ok
}

// Prioritize orders candidates by urgency and truncates to the cap. The sort
// is stable: generation order breaks ties.
func Prioritize(candidates []Candidate, limit int) []Candidate {
	rank := func(u Urgency) int {
		switch u {
		case UrgencyHigh:
			return 3
		case UrgencyMedium:
			return 2
		default:
			return 1
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i].Urgency) > rank(candidates[j].Urgency)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// pickParticipants selects n distinct characters, always including the
// initiator when given.
func (g *Generator) pickParticipants(roster []character.Profile, n int, initiator string) []string {
	if n > len(roster) {
		n = len(roster)
	}

	picked := make([]string, 0, n)
	if initiator != "" {
		picked = append(picked, initiator)
	}

	// Partial shuffle over index space.
	idx := make([]int, len(roster))
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}

	for _, i := range idx {
		if len(picked) >= n {
			break
		}
		id := roster[i].ID
		if id == initiator {
			continue
		}
		picked = append(picked, id)
	}
	return picked
}
