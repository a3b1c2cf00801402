// Local rule-based enrichment: the deterministic fallback when the remote
// collaborator is unavailable, slow, or returns garbage.
package enrich

import (
	"context"
	"fmt"

	"github.com/aistory/sandboxworld/internal/entropy"
)

// dialogueTemplates are canned lines keyed by action id.
var dialogueTemplates = map[string][]string{
	"approach_friend": {
		"Morning! Let's make today a good one.",
		"Hey, got a minute to chat?",
		"What's everyone up to?",
	},
	"help_classmate": {
		"You okay? Anything I can help with?",
		"If something's bugging you, just say so — I'll sort it out.",
		"Let's do it together, it's more fun that way.",
	},
	"start_conversation": {
		"So, how did that test go for you?",
		"Any plans for the school festival yet?",
		"Oh, that actually sounds really interesting!",
	},
	"study_quietly": {
		"Okay. Focus time.",
		"Just a few more pages before the test.",
	},
	"take_break": {
		"Phew... I need a minute.",
		"A short rest won't hurt.",
	},
	"seek_advice": {
		"Can I ask you about something? It's been on my mind.",
	},
}

const genericDialogue = "Hmm, let's see..."

// Local produces templated enrichment. It never fails.
type Local struct {
	rng entropy.Source
}

// NewLocal creates the local fallback enricher.
func NewLocal(rng entropy.Source) *Local {
	return &Local{rng: rng}
}

// Enrich implements Enricher with templated lines keyed by action id and a
// reasoning string synthesized from the action description.
func (l *Local) Enrich(_ context.Context, req Request) (Enrichment, error) {
	dialogue := genericDialogue
	if lines, ok := dialogueTemplates[req.ActionID]; ok && len(lines) > 0 {
		dialogue = lines[l.rng.Intn(len(lines))]
	}

	return Enrichment{
		Dialogue:        dialogue,
		InternalThought: fmt.Sprintf("Maybe I'll %s today.", req.ActionDescription),
		SpecificActions: []string{req.ActionDescription},
		Reasoning:       fmt.Sprintf("a natural choice for %s", req.CharacterName),
		ExpectedOutcomes: Outcomes{
			EmotionalChange:    "a modest lift in mood",
			RelationshipImpact: "friendly, low-stakes contact",
		},
	}, nil
}

// Observe returns the enrichment for the built-in default action, used when
// no catalog action is available.
func (l *Local) Observe() Enrichment {
	return Enrichment{
		Dialogue:        "Hmm, what should I do...",
		InternalThought: "Nothing in particular to do right now.",
		SpecificActions: []string{"watch what everyone else is doing"},
		Reasoning:       "no suitable action was available",
		ExpectedOutcomes: Outcomes{
			EmotionalChange:    "none expected",
			RelationshipImpact: "no change",
		},
	}
}
