package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/engine"
	"github.com/aistory/sandboxworld/internal/enrich"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/events"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

func testRoster() []character.Profile {
	return []character.Profile{
		{
			ID:   "chappie",
			Name: "Chappie",
			Traits: map[string]float64{
				"curiosity": 90, "helpfulness": 95, "charisma": 90, "humor": 85,
			},
			FavoriteTopics: []string{"dance", "chatting"},
			Comm:           character.CommStyle{Chattiness: 10, Casualness: 9},
			GrowthGoals:    []string{"grow as the dance club leader"},
		},
		{
			ID:   "gemmy",
			Name: "Gemmy",
			Traits: map[string]float64{
				"curiosity": 70, "helpfulness": 85, "perfectionism": 90,
			},
			FavoriteTopics: []string{"rules", "learning"},
			Comm:           character.CommStyle{Chattiness: 4, Politeness: 9},
		},
		{
			// Deliberately threadbare: no traits, no topics, no goals.
			ID:   "blank",
			Name: "Blank",
		},
	}
}

func newTestSim(t *testing.T, seed int64) *engine.Simulation {
	t.Helper()

	rng := entropy.Seeded(seed)
	local := enrich.NewLocal(rng)
	reg := events.NewRegistry()

	sim, err := engine.NewSimulation(
		testRoster(),
		world.NewState(world.SchoolYearStart()),
		world.NewWeatherField(seed),
		decision.NewEngine(catalog.New(), local, local, rng),
		relationship.NewEngine(),
		events.NewGenerator(reg, rng),
		events.NewExecutor(reg, rng),
		rng,
		nil,
		nil,
	)
	require.NoError(t, err)
	return sim
}

func TestNewSimulationInitializesAllPairs(t *testing.T) {
	sim := newTestSim(t, 1)
	snap := sim.Snapshot()

	assert.Len(t, snap.Characters, 3)
	assert.Len(t, snap.Pairs, 3, "every pair is introduced at startup")
	for _, p := range snap.Pairs {
		assert.NotEqual(t, relationship.LevelNoRelationship, p.Status.Level)
	}
}

func TestNewSimulationRejectsEmptyRoster(t *testing.T) {
	rng := entropy.Seeded(1)
	local := enrich.NewLocal(rng)
	reg := events.NewRegistry()

	_, err := engine.NewSimulation(nil,
		world.NewState(world.SchoolYearStart()),
		world.NewWeatherField(1),
		decision.NewEngine(catalog.New(), local, local, rng),
		relationship.NewEngine(),
		events.NewGenerator(reg, rng),
		events.NewExecutor(reg, rng),
		rng, nil, nil)
	assert.Error(t, err)
}

func TestStepMaintainsInvariants(t *testing.T) {
	sim := newTestSim(t, 7)
	ctx := context.Background()

	for i := 0; i < 72; i++ { // three simulated days
		require.NoError(t, sim.Step(ctx))

		snap := sim.Snapshot()
		assert.Equal(t, uint64(i+1), snap.Tick)
		for _, c := range snap.Characters {
			assert.GreaterOrEqual(t, c.State.Energy, 0, "%s energy at tick %d", c.ID, snap.Tick)
			assert.LessOrEqual(t, c.State.Energy, 100)
			assert.GreaterOrEqual(t, c.State.Mood, -1.0)
			assert.LessOrEqual(t, c.State.Mood, 1.0)
			assert.GreaterOrEqual(t, c.State.Stress, 0)
			assert.LessOrEqual(t, c.State.Stress, 100)
			assert.GreaterOrEqual(t, c.State.SocialBattery, 0)
			assert.LessOrEqual(t, c.State.SocialBattery, 100)
			assert.LessOrEqual(t, len(c.State.RecentMemories), character.MaxMemories)
		}
		assert.GreaterOrEqual(t, snap.GlobalMood, 0.0)
		assert.LessOrEqual(t, snap.GlobalMood, 1.0)
	}

	// Every character decided every tick.
	assert.Len(t, sim.Decisions.History(), 72*3)
}

func TestStepDeterministicForSeed(t *testing.T) {
	a := newTestSim(t, 42)
	b := newTestSim(t, 42)
	ctx := context.Background()

	for i := 0; i < 24; i++ {
		require.NoError(t, a.Step(ctx))
		require.NoError(t, b.Step(ctx))
	}

	da, db := a.Decisions.History(), b.Decisions.History()
	require.Equal(t, len(da), len(db))
	for i := range da {
		assert.Equal(t, da[i].CharacterID, db[i].CharacterID, "decision %d", i)
		assert.Equal(t, da[i].ActionID, db[i].ActionID, "decision %d", i)
	}

	assert.Equal(t, a.Snapshot().Weather, b.Snapshot().Weather)
}

func TestStepCancelledContext(t *testing.T) {
	sim := newTestSim(t, 3)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, sim.Step(ctx))
	before := sim.Snapshot()

	cancel()
	assert.Error(t, sim.Step(ctx))
	assert.Equal(t, before.Tick, sim.Snapshot().Tick, "a cancelled step commits nothing")
}

// expiringContext reports healthy for a fixed number of Err calls, then
// cancelled, so a tick can be interrupted partway through the character loop.
type expiringContext struct {
	context.Context
	remaining int
}

func (c *expiringContext) Err() error {
	if c.remaining <= 0 {
		return context.Canceled
	}
	c.remaining--
	return nil
}

func TestStepMidTickCancellationCommitsNothing(t *testing.T) {
	sim := newTestSim(t, 11)
	require.NoError(t, sim.Step(context.Background()))

	before := sim.Snapshot()
	decisionsBefore := len(sim.Decisions.History())
	relBefore := len(sim.Relationships.History())
	statesBefore := map[string]character.State{}
	for _, c := range before.Characters {
		statesBefore[c.ID] = c.State
	}

	// Survives the entry check and one character turn, then expires with
	// the rest of the roster still undecided.
	ctx := &expiringContext{Context: context.Background(), remaining: 2}
	require.ErrorIs(t, sim.Step(ctx), context.Canceled)

	after := sim.Snapshot()
	assert.Equal(t, before.Tick, after.Tick)
	assert.Equal(t, decisionsBefore, len(sim.Decisions.History()),
		"no decision from the aborted tick is recorded")
	assert.Equal(t, relBefore, len(sim.Relationships.History()),
		"no relationship change from the aborted tick is applied")
	for _, c := range after.Characters {
		assert.Equal(t, statesBefore[c.ID], c.State, "state of %s", c.ID)
	}
}

func TestCharacterLookup(t *testing.T) {
	sim := newTestSim(t, 5)

	v, ok := sim.Character("gemmy")
	require.True(t, ok)
	assert.Equal(t, "Gemmy", v.Name)

	_, ok = sim.Character("nobody")
	assert.False(t, ok)
}

func TestRelationshipsEvolveOverTime(t *testing.T) {
	sim := newTestSim(t, 9)
	ctx := context.Background()

	before, ok := sim.Relationships.Get("chappie", "gemmy")
	require.True(t, ok)
	startIntimacy := before.Intimacy

	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Step(ctx))
	}

	after, _ := sim.Relationships.Get("chappie", "gemmy")
	assert.Greater(t, after.Intimacy+float64(after.SharedExperiences), startIntimacy,
		"two hundred ticks of shared life leave a trace")
	assert.NotEmpty(t, sim.Relationships.History())
}

func TestRecentEventsWindow(t *testing.T) {
	sim := newTestSim(t, 13)
	ctx := context.Background()
	for i := 0; i < 48; i++ {
		require.NoError(t, sim.Step(ctx))
	}

	all := sim.RecentEvents(0)
	limited := sim.RecentEvents(3)
	assert.LessOrEqual(t, len(limited), 3)
	if len(all) > 3 {
		assert.Equal(t, all[len(all)-1].EventID, limited[len(limited)-1].EventID)
	}
}
