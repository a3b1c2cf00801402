// Package events generates candidate situations each tick from five sources
// (scheduled, character-initiated, random encounter, emergency, seasonal),
// filters and prioritizes them, and resolves execution into narrative and
// relationship deltas. The executor never mutates relationship state itself.
package events

import (
	"time"

	"github.com/aistory/sandboxworld/internal/condition"
	"github.com/aistory/sandboxworld/internal/relationship"
)

// Category classifies an event template's generation source.
type Category string

const (
	CategoryDailyRoutine       Category = "daily_routine"
	CategoryRandomEncounter    Category = "random_encounter"
	CategoryScheduled          Category = "scheduled_event"
	CategoryCharacterInitiated Category = "character_initiated"
	CategorySeasonal           Category = "seasonal_event"
	CategoryEmergency          Category = "emergency_event"
)

// Template is a reusable blueprint for a category of situation. Static.
type Template struct {
	ID          string
	Name        string
	Description string
	Category    Category

	MinParticipants int
	MaxParticipants int
	Duration        time.Duration
	Location        string

	Prerequisites []condition.Condition

	EmotionalImpact     float64            // -1.0 to 1.0 base
	RelationshipEffects map[string]float64 // attribute → delta

	// Interaction is the relationship delta-table category this event maps
	// to when fed into relationship.Evolve.
	Interaction string
}

// Registry is the immutable event template catalog, built once at startup.
type Registry struct {
	order []Template
	index map[string]int
}

// NewRegistry builds the built-in template registry.
func NewRegistry() *Registry {
	return registryFrom(builtinTemplates())
}

// RegistryFrom builds a registry from an explicit template list (tests).
func RegistryFrom(templates []Template) *Registry {
	return registryFrom(templates)
}

func registryFrom(templates []Template) *Registry {
	r := &Registry{
		order: make([]Template, len(templates)),
		index: make(map[string]int, len(templates)),
	}
	copy(r.order, templates)
	for i, t := range r.order {
		r.index[t.ID] = i
	}
	return r
}

// Get looks up a template by id.
func (r *Registry) Get(id string) (Template, bool) {
	i, ok := r.index[id]
	if !ok {
		return Template{}, false
	}
	return r.order[i], true
}

// List returns all templates in definition order.
func (r *Registry) List() []Template {
	return r.order
}

func builtinTemplates() []Template {
	return []Template{
		{
			ID:              "morning_greeting",
			Name:            "Morning greeting",
			Description:     "a natural meet-and-greet on the way in",
			Category:        CategoryDailyRoutine,
			MinParticipants: 2,
			MaxParticipants: 4,
			Duration:        5 * time.Minute,
			Location:        "school gate",
			EmotionalImpact: 0.2,
			RelationshipEffects: map[string]float64{
				"intimacy":              0.5,
				"communication_quality": 1.0,
			},
			Interaction: relationship.TypeCasual,
		},
		{
			ID:              "lunch_together",
			Name:            "Lunch together",
			Description:     "sharing lunch boxes over break",
			Category:        CategoryRandomEncounter,
			MinParticipants: 2,
			MaxParticipants: 6,
			Duration:        25 * time.Minute,
			Location:        "classroom",
			Prerequisites:   []condition.Condition{condition.GE("friendship_level", 20)},
			EmotionalImpact: 0.4,
			RelationshipEffects: map[string]float64{
				"intimacy":           2.0,
				"shared_experiences": 1,
			},
			Interaction: relationship.TypeCasual,
		},
		{
			ID:              "study_session",
			Name:            "Study session",
			Description:     "group study ahead of the test",
			Category:        CategoryCharacterInitiated,
			MinParticipants: 2,
			MaxParticipants: 5,
			Duration:        90 * time.Minute,
			Location:        "library",
			Prerequisites:   []condition.Condition{condition.Flag("test_approaching")},
			EmotionalImpact: 0.3,
			RelationshipEffects: map[string]float64{
				"trust":         2.5,
				"understanding": 2.0,
			},
			Interaction: relationship.TypeCooperation,
		},
		{
			ID:              "random_encounter",
			Name:            "Chance meeting",
			Description:     "bumping into each other unexpectedly",
			Category:        CategoryRandomEncounter,
			MinParticipants: 2,
			MaxParticipants: 3,
			Duration:        10 * time.Minute,
			Location:        "hallway",
			EmotionalImpact: 0.2,
			RelationshipEffects: map[string]float64{
				"intimacy":           1.0,
				"shared_experiences": 1,
			},
			Interaction: relationship.TypeCasual,
		},
		{
			ID:              "conflict_resolution",
			Name:            "Clearing the air",
			Description:     "a chance to untangle a misunderstanding",
			Category:        CategoryEmergency,
			MinParticipants: 2,
			MaxParticipants: 2,
			Duration:        20 * time.Minute,
			Location:        "after-school classroom",
			Prerequisites:   []condition.Condition{condition.GT("relationship_tension", 30)},
			EmotionalImpact: 0.8,
			RelationshipEffects: map[string]float64{
				"understanding":       5.0,
				"trust":               3.0,
				"conflict_resolution": 4.0,
			},
			Interaction: relationship.TypeConflict,
		},
		{
			ID:              "heart_to_heart",
			Name:            "Heart-to-heart",
			Description:     "a rare honest talk about real feelings",
			Category:        CategoryCharacterInitiated,
			MinParticipants: 2,
			MaxParticipants: 2,
			Duration:        30 * time.Minute,
			Location:        "rooftop",
			EmotionalImpact: 0.9,
			RelationshipEffects: map[string]float64{
				"understanding": 6.0,
				"intimacy":      4.0,
				"trust":         3.0,
			},
			Interaction: relationship.TypeEmotionalSupport,
		},
		{
			ID:              "seasonal_event",
			Name:            "Seasonal event",
			Description:     "a schoolwide occasion on the calendar",
			Category:        CategorySeasonal,
			MinParticipants: 2,
			MaxParticipants: 10,
			Duration:        2 * time.Hour,
			Location:        "schoolwide",
			EmotionalImpact: 0.6,
			RelationshipEffects: map[string]float64{
				"shared_experiences": 2,
				"trust":              2.0,
			},
			Interaction: relationship.TypeCooperation,
		},
	}
}

// seasonalEntry is one row of the fixed yearly event table.
type seasonalEntry struct {
	Name         string
	Month        time.Month
	DurationDays int
}

// yearlyEvents is the fixed school-calendar table, matched by month.
var yearlyEvents = map[string][]seasonalEntry{
	"spring": {
		{Name: "entrance ceremony", Month: time.April, DurationDays: 1},
		{Name: "new student welcome", Month: time.April, DurationDays: 3},
		{Name: "spring excursion", Month: time.May, DurationDays: 1},
	},
	"summer": {
		{Name: "final exams", Month: time.July, DurationDays: 5},
		{Name: "summer festival prep", Month: time.July, DurationDays: 10},
		{Name: "summer break", Month: time.August, DurationDays: 30},
	},
	"autumn": {
		{Name: "culture festival", Month: time.October, DurationDays: 3},
		{Name: "sports day", Month: time.October, DurationDays: 1},
		{Name: "school trip", Month: time.November, DurationDays: 3},
	},
	"winter": {
		{Name: "winter break", Month: time.December, DurationDays: 14},
		{Name: "graduation prep", Month: time.February, DurationDays: 7},
		{Name: "graduation ceremony", Month: time.March, DurationDays: 1},
	},
}
