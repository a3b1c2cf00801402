package relationship_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/relationship"
)

func chappie() character.Profile {
	return character.Profile{
		ID:   "chappie",
		Name: "Chappie",
		Traits: map[string]float64{
			"curiosity":   90,
			"helpfulness": 95,
			"charisma":    90,
			"humor":       85,
		},
		FavoriteTopics: []string{"dance", "social media", "chatting", "giving advice"},
		Comm:           character.CommStyle{Chattiness: 10, Casualness: 9},
		GrowthGoals:    []string{"deepen my friendship with Gemmy"},
	}
}

func gemmy() character.Profile {
	return character.Profile{
		ID:   "gemmy",
		Name: "Gemmy",
		Traits: map[string]float64{
			"curiosity":      70,
			"helpfulness":    85,
			"perfectionism":  90,
			"self_awareness": 80,
		},
		FavoriteTopics: []string{"rules", "accuracy", "learning", "systems"},
		Comm:           character.CommStyle{Chattiness: 4, Casualness: 3, Politeness: 9},
		GrowthGoals:    []string{"give accurate answers in class"},
	}
}

func TestCompatibilitySymmetricAndBounded(t *testing.T) {
	a, b := chappie(), gemmy()

	ab := relationship.Compatibility(a, b)
	ba := relationship.Compatibility(b, a)

	assert.InDelta(t, ab, ba, 1e-9, "compatibility is symmetric")
	assert.GreaterOrEqual(t, ab, 0.0)
	assert.LessOrEqual(t, ab, 100.0)
}

func TestCompatibilityOfBlankProfiles(t *testing.T) {
	c := relationship.Compatibility(character.Profile{ID: "a"}, character.Profile{ID: "b"})
	assert.GreaterOrEqual(t, c, 0.0)
	assert.LessOrEqual(t, c, 100.0)
}

func TestInitialize(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)

	// First impressions scale with compatibility but never below the floors.
	assert.GreaterOrEqual(t, m.Intimacy, 5.0)
	assert.GreaterOrEqual(t, m.Trust, 3.0)
	assert.GreaterOrEqual(t, m.Understanding, 2.0)
	assert.Equal(t, 50.0, m.ConflictResolution)
	assert.InDelta(t, m.Compatibility*0.6, m.CommunicationQuality, 1e-9)
	assert.Zero(t, m.SharedExperiences)

	history := e.History()
	require.Len(t, history, 1)
	assert.Equal(t, relationship.TypeFirstMeeting, history[0].Type)
	assert.InDelta(t, m.Compatibility/100*0.3, history[0].EmotionalImpact, 1e-9)
}

func TestInitializeIdempotent(t *testing.T) {
	e := relationship.NewEngine()
	first := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	first.Trust = 77 // later evolution

	again := e.Initialize("gemmy", "chappie", gemmy(), chappie(), 9)
	assert.Same(t, first, again, "pair order must not matter")
	assert.Equal(t, 77.0, again.Trust, "existing record is never re-derived")
	assert.Len(t, e.History(), 1, "no second first_meeting event")
}

func TestEvolveCooperationSuccess(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	trust, und, comm := m.Trust, m.Understanding, m.CommunicationQuality

	evts := e.Evolve(relationship.Interaction{
		Type:         relationship.TypeCooperation,
		Participants: []string{"chappie", "gemmy"},
		Context:      "study session",
		Success:      true,
	}, 2)

	require.Len(t, evts, 1)
	assert.Equal(t, trust+3, m.Trust)
	assert.Equal(t, und+2, m.Understanding)
	assert.Equal(t, comm+1.5, m.CommunicationQuality)
	assert.Equal(t, 1, m.SharedExperiences)
}

func TestEvolveCooperationFailure(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	trust := m.Trust

	e.Evolve(relationship.Interaction{
		Type:         relationship.TypeCooperation,
		Participants: []string{"chappie", "gemmy"},
		Success:      false,
	}, 2)

	assert.Equal(t, trust, m.Trust, "failed cooperation does not move trust")
	assert.Equal(t, 52.0, m.ConflictResolution)
	assert.Equal(t, 1, m.SharedExperiences)
}

func TestEvolveConflict(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	trust, intimacy, und := m.Trust, m.Intimacy, m.Understanding

	e.Evolve(relationship.Interaction{
		Type:         relationship.TypeConflict,
		Participants: []string{"chappie", "gemmy"},
		Success:      true, // resolved
	}, 2)

	assert.Equal(t, trust-2, m.Trust)
	assert.Equal(t, intimacy-1, m.Intimacy)
	assert.Equal(t, und+4, m.Understanding)
	assert.Equal(t, 53.0, m.ConflictResolution)
}

func TestEvolveEmotionalSupport(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	trust, intimacy := m.Trust, m.Intimacy

	e.Evolve(relationship.Interaction{
		Type:         relationship.TypeEmotionalSupport,
		Participants: []string{"chappie", "gemmy"},
		Success:      true,
	}, 2)

	assert.Equal(t, trust+4, m.Trust)
	assert.Equal(t, intimacy+3, m.Intimacy)
}

func TestEvolveSkipsUnmetPairs(t *testing.T) {
	e := relationship.NewEngine()
	e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)

	evts := e.Evolve(relationship.Interaction{
		Type:         relationship.TypeCasual,
		Participants: []string{"chappie", "gemmy", "stranger"},
		Success:      true,
	}, 2)

	// Only the one established pair evolves; unmet pairs are not created.
	require.Len(t, evts, 1)
	assert.ElementsMatch(t, []string{"chappie", "gemmy"}, evts[0].Participants)
	_, ok := e.Get("chappie", "stranger")
	assert.False(t, ok)
}

func TestEvolveCustomEffectsIgnoreUnknownAttrs(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	compat := m.Compatibility

	e.Evolve(relationship.Interaction{
		Type:         "festival",
		Participants: []string{"chappie", "gemmy"},
		Success:      true,
		Effects: map[string]float64{
			"intimacy":      2.4,
			"compatibility": 50, // fixed at creation, must be ignored
			"bogus_metric":  99,
		},
	}, 2)

	assert.Equal(t, compat, m.Compatibility)
}

func TestMetricsClampAtBounds(t *testing.T) {
	e := relationship.NewEngine()
	m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)

	e.Evolve(relationship.Interaction{
		Type:         "overload",
		Participants: []string{"chappie", "gemmy"},
		Effects: map[string]float64{
			"trust":              500,
			"intimacy":           -500,
			"shared_experiences": -3,
		},
	}, 2)

	assert.Equal(t, 100.0, m.Trust)
	assert.Equal(t, 0.0, m.Intimacy)
	assert.Equal(t, 0, m.SharedExperiences)
}

func TestStatusLevels(t *testing.T) {
	cases := []struct {
		name  string
		push  float64 // raises intimacy, trust, and understanding to this value
		level string
	}{
		{"best friends at 80", 80, relationship.LevelBestFriends},
		{"close friends just below 80", 79.999, relationship.LevelCloseFriends},
		{"friends at 40", 40, relationship.LevelFriends},
		{"acquaintances at 20", 20, relationship.LevelAcquaintances},
		{"strangers below 20", 5, relationship.LevelStrangers},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := relationship.NewEngine()
			m := e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
			e.Evolve(relationship.Interaction{
				Type:         "setup",
				Participants: []string{"chappie", "gemmy"},
				Effects: map[string]float64{
					"intimacy":      tc.push - m.Intimacy,
					"trust":         tc.push - m.Trust,
					"understanding": tc.push - m.Understanding,
				},
			}, 2)

			assert.Equal(t, tc.level, e.Status("chappie", "gemmy").Level)
		})
	}
}

func TestStatusOfUnmetPair(t *testing.T) {
	e := relationship.NewEngine()
	st := e.Status("nobody", "anybody")
	assert.Equal(t, relationship.LevelNoRelationship, st.Level)
	assert.Nil(t, st.Metrics)
	assert.Empty(t, st.RecentEvents)
}

func TestPredictFirstMeeting(t *testing.T) {
	e := relationship.NewEngine()
	preds := e.Predict("chappie", "gemmy")

	require.NotEmpty(t, preds)
	assert.Equal(t, "first_meeting", preds[0].Event)
	assert.InDelta(t, 0.8, preds[0].Probability, 1e-9)
}

func TestPredictSortedByProbability(t *testing.T) {
	e := relationship.NewEngine()
	e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)
	e.Evolve(relationship.Interaction{
		Type:         "setup",
		Participants: []string{"chappie", "gemmy"},
		Effects: map[string]float64{
			"trust":              75,
			"intimacy":           65,
			"shared_experiences": 6,
		},
	}, 2)

	preds := e.Predict("chappie", "gemmy")
	for i := 1; i < len(preds); i++ {
		assert.GreaterOrEqual(t, preds[i-1].Probability, preds[i].Probability)
	}
}

func TestMatrixMirrorsBothDirections(t *testing.T) {
	e := relationship.NewEngine()
	e.Initialize("chappie", "gemmy", chappie(), gemmy(), 1)

	m := e.Matrix()
	require.Contains(t, m, "chappie")
	require.Contains(t, m, "gemmy")
	assert.Equal(t, m["chappie"]["gemmy"].Intimacy, m["gemmy"]["chappie"].Intimacy)
}

func TestPairKeyCanonical(t *testing.T) {
	assert.Equal(t, relationship.NewPair("b", "a"), relationship.NewPair("a", "b"))
	assert.True(t, relationship.NewPair("a", "b").Contains("a"))
	assert.False(t, relationship.NewPair("a", "b").Contains("c"))
	assert.Equal(t, "a_b", relationship.NewPair("b", "a").String())
}
