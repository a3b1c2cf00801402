// Package catalog provides the static registry of actions a character can
// take. The catalog is built once at startup and immutable afterwards; all
// components share it by reference.
package catalog

import (
	"github.com/aistory/sandboxworld/internal/condition"
)

// ActionOption describes one possible action and its attributes. Immutable.
type ActionOption struct {
	ID          string
	Name        string
	Description string

	// EnergyCost is subtracted from the actor's energy; negative values are
	// recovery actions.
	EnergyCost      int
	EmotionalReward float64 // -1.0 to 1.0
	SocialImpact    float64 // -1.0 to 1.0, effect on others

	Prerequisites []condition.Condition

	// PersonalityAlignment maps trait name → weight in [0, 1]; actions appeal
	// to characters whose traits align.
	PersonalityAlignment map[string]float64
}

// DefaultActionID is the built-in fallback when no action is available.
const DefaultActionID = "observe"

// Catalog is an ordered, immutable set of actions.
type Catalog struct {
	order []ActionOption
	index map[string]int
}

// New builds the built-in action catalog.
func New() *Catalog {
	return fromOptions(builtinActions())
}

// FromOptions builds a catalog from an explicit action list. Used by tests
// and by configuration-driven setups.
func FromOptions(actions []ActionOption) *Catalog {
	return fromOptions(actions)
}

func fromOptions(actions []ActionOption) *Catalog {
	c := &Catalog{
		order: make([]ActionOption, len(actions)),
		index: make(map[string]int, len(actions)),
	}
	copy(c.order, actions)
	for i, a := range c.order {
		c.index[a.ID] = i
	}
	return c
}

// List returns all actions in definition order. Callers must not mutate the
// returned slice.
func (c *Catalog) List() []ActionOption {
	return c.order
}

// Get looks up an action by id.
func (c *Catalog) Get(id string) (ActionOption, bool) {
	i, ok := c.index[id]
	if !ok {
		return ActionOption{}, false
	}
	return c.order[i], true
}

// SocialActionIDs are the actions that initiate an interaction with another
// character; the world loop follows each up with a casual-interaction event.
var SocialActionIDs = map[string]bool{
	"approach_friend":    true,
	"help_classmate":     true,
	"start_conversation": true,
}

func builtinActions() []ActionOption {
	return []ActionOption{
		// Social actions.
		{
			ID:              "approach_friend",
			Name:            "Approach a friend",
			Description:     "walk up to a nearby friend and start chatting",
			EnergyCost:      2,
			EmotionalReward: 0.4,
			SocialImpact:    0.3,
			Prerequisites:   []condition.Condition{condition.GE("friendship_level", 20)},
			PersonalityAlignment: map[string]float64{
				"helpfulness": 0.8,
				"charisma":    0.6,
			},
		},
		{
			ID:              "help_classmate",
			Name:            "Help a classmate",
			Description:     "find someone who is struggling and lend a hand",
			EnergyCost:      4,
			EmotionalReward: 0.7,
			SocialImpact:    0.5,
			Prerequisites:   []condition.Condition{condition.Flag("someone_needs_help")},
			PersonalityAlignment: map[string]float64{
				"helpfulness": 0.9,
				"curiosity":   0.4,
			},
		},
		{
			ID:              "start_conversation",
			Name:            "Start a conversation",
			Description:     "bring up an interesting topic or a recent happening",
			EnergyCost:      3,
			EmotionalReward: 0.3,
			SocialImpact:    0.4,
			Prerequisites:   []condition.Condition{condition.GE("social_battery", 30)},
			PersonalityAlignment: map[string]float64{
				"charisma": 0.7,
				"humor":    0.5,
			},
		},

		// Study and growth actions.
		{
			ID:              "study_quietly",
			Name:            "Study quietly",
			Description:     "sit alone and concentrate on coursework",
			EnergyCost:      6,
			EmotionalReward: 0.2,
			SocialImpact:    -0.1,
			Prerequisites:   []condition.Condition{condition.Flag("test_approaching")},
			PersonalityAlignment: map[string]float64{
				"perfectionism":  0.8,
				"self_awareness": 0.6,
			},
		},
		{
			ID:              "practice_hobby",
			Name:            "Practice a hobby",
			Description:     "work on dance moves or another personal skill",
			EnergyCost:      5,
			EmotionalReward: 0.6,
			SocialImpact:    0.1,
			Prerequisites:   []condition.Condition{condition.Flag("free_time")},
			PersonalityAlignment: map[string]float64{
				"curiosity": 0.7,
			},
		},

		// Emotional management actions.
		{
			ID:              "take_break",
			Name:            "Take a break",
			Description:     "rest for a while and recharge",
			EnergyCost:      -3, // recovery
			EmotionalReward: 0.2,
			SocialImpact:    0.0,
			Prerequisites:   []condition.Condition{condition.LT("energy", 30)},
			PersonalityAlignment: map[string]float64{
				"self_awareness": 0.8,
			},
		},
		{
			ID:              "seek_advice",
			Name:            "Seek advice",
			Description:     "confide in someone trustworthy about a worry",
			EnergyCost:      3,
			EmotionalReward: 0.5,
			SocialImpact:    0.2,
			Prerequisites: []condition.Condition{
				condition.GT("stress", 50),
				condition.Flag("trusted_friend_available"),
			},
			PersonalityAlignment: map[string]float64{
				"trust":    0.8,
				"openness": 0.6,
			},
		},

		// Exploration actions.
		{
			ID:              "explore_school",
			Name:            "Explore the school",
			Description:     "poke around places not usually visited",
			EnergyCost:      4,
			EmotionalReward: 0.4,
			SocialImpact:    0.1,
			Prerequisites:   []condition.Condition{condition.GE("curiosity", 70)},
			PersonalityAlignment: map[string]float64{
				"curiosity":       0.9,
				"adventurousness": 0.7,
			},
		},
	}
}
