// Package decision implements the autonomous decision engine: per character,
// filter the catalog by prerequisites, score the survivors, sample one via
// softmax, enrich it with narrative detail, and record the result.
package decision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/condition"
	"github.com/aistory/sandboxworld/internal/enrich"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/world"
)

// Decision is the full record of one character's choice for one tick.
type Decision struct {
	ID          string            `json:"id"`
	CharacterID string            `json:"character_id"`
	Tick        uint64            `json:"tick"`
	Timestamp   time.Time         `json:"timestamp"`
	ActionID    string            `json:"action_id"`
	Enrichment  enrich.Enrichment `json:"enrichment"`
	StateBefore character.State   `json:"state_before"`
}

// Engine makes decisions for any character against a shared action catalog.
type Engine struct {
	catalog  *catalog.Catalog
	enricher enrich.Enricher
	local    *enrich.Local
	rng      entropy.Source

	history []Decision
}

// NewEngine wires a decision engine. The enricher is typically an
// enrich.Chain; local backs the built-in default action.
func NewEngine(cat *catalog.Catalog, enricher enrich.Enricher, local *enrich.Local, rng entropy.Source) *Engine {
	return &Engine{
		catalog:  cat,
		enricher: enricher,
		local:    local,
		rng:      rng,
	}
}

// env adapts a character's state, profile, and the world context into the
// condition evaluator's name resolution: state fields first, then aggregate
// metrics, then personality traits declared by the profile.
type env struct {
	state   character.State
	profile character.Profile
	wctx    world.Context
}

func (e env) Value(name string) (float64, bool) {
	switch name {
	case "energy":
		return float64(e.state.Energy), true
	case "stress":
		return float64(e.state.Stress), true
	case "social_battery":
		return float64(e.state.SocialBattery), true
	case "friendship_level":
		return e.wctx.Metric(world.MetricAvgFriendship, 30), true
	}
	if v, ok := e.wctx.Metrics[name]; ok {
		return v, true
	}
	if v, ok := e.profile.Traits[name]; ok {
		return v, true
	}
	return 0, false
}

func (e env) FlagSet(name string) (bool, bool) {
	v, ok := e.wctx.Flags[name]
	return v, ok
}

// Decide runs the full pipeline for one character. It always returns a
// decision: when nothing is available, the built-in default action is chosen
// without scoring. Decide does not touch the history; the caller commits
// accepted decisions via Record, so an aborted tick leaves no trace.
func (e *Engine) Decide(ctx context.Context, charID string, profile character.Profile, state character.State, wctx world.Context) Decision {
	ev := env{state: state, profile: profile, wctx: wctx}

	var available []catalog.ActionOption
	for _, a := range e.catalog.List() {
		if condition.All(a.Prerequisites, ev) {
			available = append(available, a)
		}
	}

	if len(available) == 0 {
		return newDecision(charID, catalog.DefaultActionID, e.local.Observe(), state, wctx)
	}

	scores := make([]float64, len(available))
	for i, a := range available {
		scores[i] = Score(a, profile, state)
	}

	chosen := available[sampleSoftmax(scores, e.rng)]

	enr, err := e.enricher.Enrich(ctx, enrich.Request{
		CharacterID:       charID,
		CharacterName:     profile.Name,
		Personality:       profile.Traits,
		Mood:              state.Mood,
		Energy:            state.Energy,
		CurrentGoal:       state.CurrentGoal,
		ActionID:          chosen.ID,
		ActionName:        chosen.Name,
		ActionDescription: chosen.Description,
	})
	if err != nil {
		// The chain should never fail, but the pipeline must not either.
		enr, _ = e.local.Enrich(ctx, enrich.Request{
			CharacterID:       charID,
			CharacterName:     profile.Name,
			ActionID:          chosen.ID,
			ActionName:        chosen.Name,
			ActionDescription: chosen.Description,
		})
	}

	return newDecision(charID, chosen.ID, enr, state, wctx)
}

func newDecision(charID, actionID string, enr enrich.Enrichment, state character.State, wctx world.Context) Decision {
	return Decision{
		ID:          uuid.NewString(),
		CharacterID: charID,
		Tick:        wctx.Tick,
		Timestamp:   wctx.Time,
		ActionID:    actionID,
		Enrichment:  enr,
		StateBefore: state,
	}
}

// Record appends decisions to the history log, in order.
func (e *Engine) Record(ds ...Decision) {
	e.history = append(e.history, ds...)
}

// ApplyOutcome produces the post-action character state. An action id not in
// the catalog (including the default "observe") leaves the state unchanged.
func (e *Engine) ApplyOutcome(state character.State, d Decision) character.State {
	action, ok := e.catalog.Get(d.ActionID)
	if !ok {
		return state
	}

	next := state
	next.Energy = character.ClampLevel(state.Energy - action.EnergyCost)
	next.Mood = character.ClampMood(state.Mood + action.EmotionalReward*0.3)
	next.SocialBattery = character.ClampLevel(state.SocialBattery + roundSocial(action.SocialImpact))
	// Taking any action is decompression.
	next.Stress = state.Stress - 5
	if next.Stress < 0 {
		next.Stress = 0
	}

	return next.Remember(character.Memory{
		Tick:     d.Tick,
		ActionID: d.ActionID,
		Dialogue: d.Enrichment.Dialogue,
	})
}

// History returns the append-only decision log.
func (e *Engine) History() []Decision {
	return e.history
}

// Recent returns up to limit of the most recent decisions, newest first.
func (e *Engine) Recent(limit int) []Decision {
	n := len(e.history)
	if limit > n {
		limit = n
	}
	out := make([]Decision, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

func roundSocial(impact float64) int {
	scaled := impact * 10
	if scaled >= 0 {
		return int(scaled + 0.5)
	}
	return int(scaled - 0.5)
}
