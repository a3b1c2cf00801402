package persistence_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/enrich"
	"github.com/aistory/sandboxworld/internal/persistence"
	"github.com/aistory/sandboxworld/internal/relationship"
)

func openTestDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testDecision(characterID string, tick uint64, actionID string) decision.Decision {
	return decision.Decision{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		Tick:        tick,
		Timestamp:   time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC),
		ActionID:    actionID,
		Enrichment: enrich.Enrichment{
			Dialogue:        "Let's get started.",
			InternalThought: "Feeling good about today.",
		},
		StateBefore: character.State{Energy: 80, Mood: 0.5, Stress: 20, SocialBattery: 70},
	}
}

func TestDecisionRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveDecisions([]decision.Decision{
		testDecision("chappie", 1, "study_quietly"),
		testDecision("gemmy", 1, "approach_friend"),
		testDecision("chappie", 2, "take_break"),
	}))

	rows, err := db.RecentDecisions("", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(2), rows[0].Tick)
	assert.Equal(t, "take_break", rows[0].ActionID)
	assert.Equal(t, "Let's get started.", rows[0].Dialogue)

	chappie, err := db.RecentDecisions("chappie", 10)
	require.NoError(t, err)
	require.Len(t, chappie, 2)
	for _, r := range chappie {
		assert.Equal(t, "chappie", r.CharacterID)
	}

	limited, err := db.RecentDecisions("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveDecisionsEmptySliceIsNoop(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveDecisions(nil))

	rows, err := db.RecentDecisions("", 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSaveRelationshipEvents(t *testing.T) {
	db := openTestDB(t)

	err := db.SaveRelationshipEvents([]relationship.Event{
		{
			Tick:            3,
			Type:            "cooperation",
			Participants:    []string{"chappie", "gemmy"},
			Context:         "group project",
			EmotionalImpact: 0.6,
			Changes:         map[string]float64{"trust": 3},
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.SaveRelationshipEvents(nil))
}

func TestSaveSnapshotUpsert(t *testing.T) {
	db := openTestDB(t)

	states := map[string]character.State{
		"chappie": {Energy: 75, Mood: 0.4, Stress: 15, SocialBattery: 60, CurrentGoal: "deepen friendships"},
	}
	require.NoError(t, db.SaveSnapshot(1, states))

	// Writing the same tick again replaces the row instead of failing.
	states["chappie"] = character.State{Energy: 70, Mood: 0.3, Stress: 20, SocialBattery: 55}
	require.NoError(t, db.SaveSnapshot(1, states))
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveMeta("last_tick", "42"))
	require.NoError(t, db.SaveMeta("last_tick", "43"))

	v, err := db.GetMeta("last_tick")
	require.NoError(t, err)
	assert.Equal(t, "43", v)

	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}
