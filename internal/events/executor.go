package events

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

const (
	baseSuccessChance = 0.7
	minSuccessChance  = 0.1
	maxSuccessChance  = 0.95

	successEffectScale = 1.2
	failureEffectScale = 0.5
)

// ExecutionResult records one resolved event. Effects are pre-scaled by the
// outcome, so callers can feed them straight into the relationship engine.
type ExecutionResult struct {
	EventID             string             `json:"event_id"`
	TemplateID          string             `json:"template_id"`
	Name                string             `json:"name"`
	Tick                uint64             `json:"tick"`
	Success             bool               `json:"success"`
	Error               string             `json:"error,omitempty"`
	Participants        []string           `json:"participants"`
	Location            string             `json:"location"`
	Duration            time.Duration      `json:"duration"`
	Interaction         string             `json:"interaction"`
	EmotionalImpact     float64            `json:"emotional_impact"`
	RelationshipEffects map[string]float64 `json:"relationship_effects,omitempty"`
	Narrative           string             `json:"narrative"`
}

// Executor resolves candidates into outcomes. It never mutates character or
// relationship state; the caller applies the returned effects.
type Executor struct {
	reg *Registry
	rng entropy.Source
}

func NewExecutor(reg *Registry, rng entropy.Source) *Executor {
	return &Executor{reg: reg, rng: rng}
}

// Execute rolls the outcome for a single candidate. Unknown templates produce
// a failed result rather than an error so a bad candidate cannot stall a tick.
func (ex *Executor) Execute(c Candidate, wctx world.Context) ExecutionResult {
	res := ExecutionResult{
		EventID:      uuid.NewString(),
		TemplateID:   c.TemplateID,
		Tick:         wctx.Tick,
		Participants: c.Participants,
		Location:     c.Location,
	}

	tpl, ok := ex.reg.Get(c.TemplateID)
	if !ok {
		res.Error = "unknown event template"
		slog.Warn("event skipped", "template", c.TemplateID, "error", res.Error)
		return res
	}

	res.Name = tpl.Name
	res.Duration = tpl.Duration
	res.Interaction = tpl.Interaction
	if res.Location == "" {
		res.Location = tpl.Location
	}

	chance := ex.successChance(c, wctx)
	res.Success = ex.rng.Float64() < chance

	scale := failureEffectScale
	if res.Success {
		scale = successEffectScale
	}
	res.EmotionalImpact = tpl.EmotionalImpact * scale
	if len(tpl.RelationshipEffects) > 0 {
		res.RelationshipEffects = make(map[string]float64, len(tpl.RelationshipEffects))
		for attr, delta := range tpl.RelationshipEffects {
			res.RelationshipEffects[attr] = delta * scale
		}
	}
	res.Narrative = ex.narrative(tpl, res)
	return res
}

// successChance adjusts the base rate by pair compatibility. Only two-party
// events carry the adjustment; group events stay at the base rate.
func (ex *Executor) successChance(c Candidate, wctx world.Context) float64 {
	chance := baseSuccessChance
	if len(c.Participants) == 2 {
		compat := 0.5
		key := relationship.NewPair(c.Participants[0], c.Participants[1])
		if snap, ok := wctx.Relationships[key]; ok {
			compat = snap.Compatibility / 100
		}
		chance += (compat - 0.5) * 0.4
	}
	if chance < minSuccessChance {
		chance = minSuccessChance
	}
	if chance > maxSuccessChance {
		chance = maxSuccessChance
	}
	return chance
}

func (ex *Executor) narrative(tpl Template, res ExecutionResult) string {
	names := strings.Join(res.Participants, " and ")
	if len(res.Participants) > 2 {
		names = fmt.Sprintf("%s and %d others", res.Participants[0], len(res.Participants)-1)
	}
	if res.Success {
		return fmt.Sprintf("%s at the %s: %s. It went well.", tpl.Name, res.Location, names)
	}
	return fmt.Sprintf("%s at the %s: %s. It did not go as hoped.", tpl.Name, res.Location, names)
}
