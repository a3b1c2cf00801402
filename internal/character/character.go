// Package character provides the character data model: static profiles
// (personality traits, interests, communication style, goals) and the
// volatile per-tick State.
package character

import (
	"github.com/aistory/sandboxworld/internal/entropy"
)

// NeutralTrait is the value assumed for any trait a profile does not define.
// Relationship and decision math must always be computable; lookup failures
// default to a neutral constant, never an error.
const NeutralTrait = 50.0

// CommStyle describes how a character communicates. Levels are 0–10.
type CommStyle struct {
	Chattiness int `yaml:"chattiness" json:"chattiness"`
	Casualness int `yaml:"casualness" json:"casualness"`
	Politeness int `yaml:"politeness" json:"politeness"`
}

// Profile is the static description of a character, consumed read-only by the
// decision and relationship engines.
type Profile struct {
	ID             string             `yaml:"id" json:"id"`
	Name           string             `yaml:"name" json:"name"`
	Traits         map[string]float64 `yaml:"traits" json:"traits"` // trait name → growth value 0–100
	FavoriteTopics []string           `yaml:"favorite_topics" json:"favorite_topics"`
	Comm           CommStyle          `yaml:"communication" json:"communication"`
	GrowthGoals    []string           `yaml:"growth_goals" json:"growth_goals"`
}

// Trait returns the named trait's growth value, or NeutralTrait when the
// profile does not define it.
func (p Profile) Trait(name string) float64 {
	if v, ok := p.Traits[name]; ok {
		return v
	}
	return NeutralTrait
}

// TraitNorm returns the named trait normalized to [0, 1].
func (p Profile) TraitNorm(name string) float64 {
	return p.Trait(name) / 100.0
}

// Memory is one entry in a character's append-only decision record stream.
type Memory struct {
	Tick     uint64 `json:"tick"`
	ActionID string `json:"action_id"`
	Dialogue string `json:"dialogue,omitempty"`
}

// MaxMemories bounds the retained memory stream (oldest entries fall off).
const MaxMemories = 50

// State holds a character's volatile simulation attributes. It is a value
// type: each tick produces a new State, and only the world's character-state
// map owns the current one.
type State struct {
	Energy         int      `json:"energy"`         // 0–100
	Mood           float64  `json:"mood"`           // -1.0 to 1.0
	Stress         int      `json:"stress"`         // 0–100
	SocialBattery  int      `json:"social_battery"` // 0–100
	CurrentGoal    string   `json:"current_goal"`
	ActiveEmotions []string `json:"active_emotions"`
	RecentMemories []Memory `json:"recent_memories"`
}

// Remember appends a memory, keeping at most MaxMemories recent entries.
func (s State) Remember(m Memory) State {
	mem := make([]Memory, 0, len(s.RecentMemories)+1)
	mem = append(mem, s.RecentMemories...)
	mem = append(mem, m)
	if len(mem) > MaxMemories {
		mem = mem[len(mem)-MaxMemories:]
	}
	s.RecentMemories = mem
	return s
}

// InitialState synthesizes a plausible starting state for a character:
// moderately rested, slightly positive, with a goal drawn from the profile's
// growth goals.
func InitialState(p Profile, rng entropy.Source) State {
	goal := "enjoy the day"
	if len(p.GrowthGoals) > 0 {
		goal = p.GrowthGoals[rng.Intn(len(p.GrowthGoals))]
	}
	return State{
		Energy:         60 + rng.Intn(31), // 60–90
		Mood:           0.2,
		Stress:         10 + rng.Intn(21), // 10–30
		SocialBattery:  50 + rng.Intn(41), // 50–90
		CurrentGoal:    goal,
		ActiveEmotions: []string{"neutral"},
	}
}

// ClampLevel bounds an integer gauge to [0, 100].
func ClampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampMood bounds a mood value to [-1, 1].
func ClampMood(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
