// Package enrich turns a bare chosen action into narrative detail: dialogue,
// internal thought, concrete sub-actions, and reasoning. Enrichment is a
// capability with two implementations, a remote generative service and a
// deterministic local fallback, selected by configuration and chained so a
// slow or failing remote call degrades to local behavior instead of stalling
// the tick.
package enrich

import (
	"context"
	"log/slog"
	"time"
)

// Request carries the character summary and chosen action handed to the
// collaborator.
type Request struct {
	CharacterID   string             `json:"character_id"`
	CharacterName string             `json:"character_name"`
	Personality   map[string]float64 `json:"personality"`
	Mood          float64            `json:"mood"`
	Energy        int                `json:"energy"`
	CurrentGoal   string             `json:"current_goal"`

	ActionID          string `json:"action_id"`
	ActionName        string `json:"action_name"`
	ActionDescription string `json:"action_description"`
}

// Outcomes summarizes expected consequences of the enriched action.
type Outcomes struct {
	EmotionalChange    string `json:"emotional_change"`
	RelationshipImpact string `json:"relationship_impact"`
}

// Enrichment is the collaborator's response payload.
type Enrichment struct {
	Dialogue         string   `json:"dialogue"`
	InternalThought  string   `json:"internal_thought"`
	SpecificActions  []string `json:"specific_actions"`
	Reasoning        string   `json:"reasoning"`
	ExpectedOutcomes Outcomes `json:"expected_outcomes"`
}

// Enricher is the narrative-enrichment capability.
type Enricher interface {
	Enrich(ctx context.Context, req Request) (Enrichment, error)
}

// Chain tries a remote enricher under a deadline and falls back to the local
// one on any failure. The chain itself never fails: Local is infallible.
type Chain struct {
	Remote  Enricher // may be nil (feature disabled)
	Local   *Local
	Timeout time.Duration
}

// NewChain builds the standard remote-with-local-fallback enricher. A nil
// remote produces a purely local chain.
func NewChain(remote Enricher, local *Local, timeout time.Duration) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chain{Remote: remote, Local: local, Timeout: timeout}
}

// Enrich implements Enricher. Remote failures are logged as warnings and
// answered locally; they are never fatal to the tick.
func (c *Chain) Enrich(ctx context.Context, req Request) (Enrichment, error) {
	if c.Remote != nil {
		rctx, cancel := context.WithTimeout(ctx, c.Timeout)
		enr, err := c.Remote.Enrich(rctx, req)
		cancel()
		if err == nil {
			return enr, nil
		}
		slog.Warn("remote enrichment failed, using local fallback",
			"character", req.CharacterID,
			"action", req.ActionID,
			"error", err,
		)
	}
	return c.Local.Enrich(ctx, req)
}
