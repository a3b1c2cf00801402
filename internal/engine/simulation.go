// Package engine runs the world loop: each tick it assembles the situational
// context, generates and resolves events, lets every character decide and act,
// evolves relationships from what happened, and advances world time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/events"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

const (
	// Stress past this level marks a character as needing help.
	helpThreshold = 60

	// Trust past this level makes a friend "trusted" for advice-seeking.
	trustedFriendLevel = 60

	// Chance that a social action leads to a follow-up casual interaction
	// with the actor's closest companion.
	followUpChance = 0.8

	keepResults = 200
)

// pairSignal tracks short-lived friction between two characters. It feeds
// emergency-event detection and decays a little every tick.
type pairSignal struct {
	Tension          float64
	Misunderstanding float64
}

// Store persists per-tick output. A nil Store disables persistence.
type Store interface {
	SaveDecisions(ds []decision.Decision) error
	SaveRelationshipEvents(evts []relationship.Event) error
	SaveSnapshot(tick uint64, states map[string]character.State) error
}

// Journal appends the per-tick record to an archive stream. A nil Journal
// disables journaling.
type Journal interface {
	Append(rec TickRecord) error
}

// TickRecord is everything one tick produced, in archive form.
type TickRecord struct {
	Tick      uint64                   `json:"tick"`
	Time      time.Time                `json:"time"`
	Weather   string                   `json:"weather"`
	Decisions []decision.Decision      `json:"decisions"`
	Events    []events.ExecutionResult `json:"events"`
	RelEvents []relationship.Event     `json:"relationship_events"`
}

// Simulation owns all mutable world state. Step is the only writer; read
// accessors take the lock so the API can observe a consistent snapshot.
type Simulation struct {
	mu sync.RWMutex

	clock   *world.State
	weather *world.WeatherField
	rng     entropy.Source

	Roster []character.Profile
	states map[string]character.State

	Decisions     *decision.Engine
	Relationships *relationship.Engine
	generator     *events.Generator
	executor      *events.Executor

	signals map[relationship.PairKey]*pairSignal
	results []events.ExecutionResult

	store   Store
	journal Journal
}

// NewSimulation wires a simulation and introduces every character pair.
// Store and journal may be nil.
func NewSimulation(
	roster []character.Profile,
	clock *world.State,
	wf *world.WeatherField,
	dec *decision.Engine,
	rel *relationship.Engine,
	gen *events.Generator,
	exec *events.Executor,
	rng entropy.Source,
	store Store,
	journal Journal,
) (*Simulation, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("simulation needs at least one character")
	}

	s := &Simulation{
		clock:         clock,
		weather:       wf,
		rng:           rng,
		Roster:        roster,
		states:        make(map[string]character.State, len(roster)),
		Decisions:     dec,
		Relationships: rel,
		generator:     gen,
		executor:      exec,
		signals:       make(map[relationship.PairKey]*pairSignal),
		store:         store,
		journal:       journal,
	}

	for _, p := range roster {
		s.states[p.ID] = character.InitialState(p, rng)
	}
	for i := range roster {
		for j := i + 1; j < len(roster); j++ {
			s.Relationships.Initialize(roster[i].ID, roster[j].ID, roster[i], roster[j], clock.Tick)
		}
	}
	return s, nil
}

// Step advances the world by one tick. All state mutation is staged on local
// copies and committed together at the end, so a cancelled context leaves the
// previous tick's state intact.
func (s *Simulation) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.clock.Tick + 1
	wctx := s.buildContext(tick)

	relBefore := len(s.Relationships.History())

	// Events first: what happens around a character colors its decision
	// context for the same tick. Relationship deltas are collected here and
	// applied only in the commit block below.
	candidates := s.generator.Generate(wctx, s.Roster)
	results := make([]events.ExecutionResult, 0, len(candidates))
	interactions := make([]relationship.Interaction, 0, len(candidates))
	for _, c := range candidates {
		res := s.executor.Execute(c, wctx)
		results = append(results, res)
		if res.Error != "" {
			continue
		}
		interactions = append(interactions, relationship.Interaction{
			Type:         res.Interaction,
			Participants: res.Participants,
			Context:      res.Name,
			Success:      res.Success,
			Effects:      res.RelationshipEffects,
		})
	}

	// Character turns in stable id order so a fixed seed replays exactly.
	// Every character sees the world as of the start of the tick.
	ids := make([]string, 0, len(s.Roster))
	for _, p := range s.Roster {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	staged := make(map[string]character.State, len(ids))
	decisions := make([]decision.Decision, 0, len(ids))
	for _, id := range ids {
		profile := s.profileOf(id)
		st := s.states[id]

		cctx := s.characterContext(wctx, id)
		d := s.Decisions.Decide(ctx, id, profile, st, cctx)
		decisions = append(decisions, d)
		st = s.Decisions.ApplyOutcome(st, d)

		if catalog.SocialActionIDs[d.ActionID] && s.rng.Float64() < followUpChance {
			if companion := s.closestCompanion(id); companion != "" {
				interactions = append(interactions, relationship.Interaction{
					Type:         relationship.TypeCasual,
					Participants: []string{id, companion},
					Context:      d.ActionID,
					Success:      true,
				})
			}
		}

		// Idle recovery at the end of the turn.
		st.Energy = character.ClampLevel(st.Energy + 2 + s.rng.Intn(7))
		staged[id] = st

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	// Commit. Nothing shared mutates before this point.
	for id, st := range staged {
		s.states[id] = st
	}
	for _, in := range interactions {
		s.Relationships.Evolve(in, tick)
	}
	for _, res := range results {
		if res.Error == "" {
			s.adjustSignals(res)
		}
	}
	s.Decisions.Record(decisions...)
	s.decaySignals()
	s.clock.Advance()
	s.clock.Weather = s.weather.At(tick, world.Season(s.clock.Time.Month()) == "winter")
	s.clock.GlobalMood = s.averageMoodNorm()
	s.results = append(s.results, results...)
	if len(s.results) > keepResults {
		s.results = s.results[len(s.results)-keepResults:]
	}

	relEvents := s.Relationships.History()[relBefore:]
	s.persist(tick, decisions, results, relEvents)

	slog.Debug("tick complete",
		"tick", tick,
		"time", s.clock.Time.Format("Mon 15:04"),
		"weather", s.clock.Weather.Name(),
		"events", len(results),
		"decisions", len(decisions),
	)
	return nil
}

// buildContext assembles the shared situational view for one tick.
func (s *Simulation) buildContext(tick uint64) world.Context {
	flags := map[string]bool{
		world.FlagFreeTime:        !s.clock.SchoolDay || s.clock.Time.Hour() >= 16,
		world.FlagTestApproaching: s.clock.SchoolDay && s.clock.Time.Day() >= 24,
	}
	for _, p := range s.Roster {
		if s.states[p.ID].Stress > helpThreshold {
			flags[world.FlagSomeoneNeedsHelp] = true
			break
		}
	}

	metrics := map[string]float64{}
	if avg, ok := s.averageIntimacy(); ok {
		metrics[world.MetricAvgFriendship] = avg
	}

	rels := make(map[relationship.PairKey]world.RelSnapshot)
	for _, key := range s.Relationships.Pairs() {
		m, ok := s.Relationships.Get(key.A, key.B)
		if !ok {
			continue
		}
		snap := world.RelSnapshot{Compatibility: m.Compatibility}
		if sig, ok := s.signals[key]; ok {
			snap.Tension = sig.Tension
			snap.Misunderstanding = sig.Misunderstanding
		}
		rels[key] = snap
	}

	return world.Context{
		Tick:          tick,
		Time:          s.clock.Time,
		SchoolDay:     s.clock.SchoolDay,
		Weather:       s.clock.Weather,
		Flags:         flags,
		Metrics:       metrics,
		Relationships: rels,
	}
}

// characterContext narrows the shared context to one character's point of
// view: their own friendship average and whether a trusted friend exists.
func (s *Simulation) characterContext(base world.Context, id string) world.Context {
	flags := make(map[string]bool, len(base.Flags)+1)
	for k, v := range base.Flags {
		flags[k] = v
	}
	metrics := make(map[string]float64, len(base.Metrics)+1)
	for k, v := range base.Metrics {
		metrics[k] = v
	}

	sum, n := 0.0, 0
	for _, key := range s.Relationships.Pairs() {
		if !key.Contains(id) {
			continue
		}
		m, ok := s.Relationships.Get(key.A, key.B)
		if !ok {
			continue
		}
		sum += m.Intimacy
		n++
		if m.Trust > trustedFriendLevel {
			flags[world.FlagTrustedFriendAvailable] = true
		}
	}
	if n > 0 {
		metrics[world.MetricAvgFriendship] = sum / float64(n)
	}

	cctx := base
	cctx.Flags = flags
	cctx.Metrics = metrics
	return cctx
}

// closestCompanion picks the peer with the highest intimacy toward id.
// Returns "" when id has no established relationships.
func (s *Simulation) closestCompanion(id string) string {
	best, bestIntimacy := "", -1.0
	for _, key := range s.Relationships.Pairs() {
		if !key.Contains(id) {
			continue
		}
		m, ok := s.Relationships.Get(key.A, key.B)
		if !ok {
			continue
		}
		other := key.A
		if other == id {
			other = key.B
		}
		if m.Intimacy > bestIntimacy || (m.Intimacy == bestIntimacy && other < best) {
			best, bestIntimacy = other, m.Intimacy
		}
	}
	return best
}

// adjustSignals updates pair friction from an event outcome. Conflict that
// goes badly raises tension, resolved conflict clears it, failed cooperative
// moments breed misunderstanding, and emotional support dissolves it.
func (s *Simulation) adjustSignals(res events.ExecutionResult) {
	if len(res.Participants) != 2 {
		return
	}
	key := relationship.NewPair(res.Participants[0], res.Participants[1])
	sig := s.signals[key]
	if sig == nil {
		sig = &pairSignal{}
		s.signals[key] = sig
	}

	switch res.Interaction {
	case relationship.TypeConflict:
		if res.Success {
			sig.Tension = floor0(sig.Tension - 20)
		} else {
			sig.Tension = cap100(sig.Tension + 10)
		}
	case relationship.TypeCooperation, relationship.TypeCasual:
		if !res.Success {
			sig.Misunderstanding = cap100(sig.Misunderstanding + 5)
		}
	case relationship.TypeEmotionalSupport:
		if res.Success {
			sig.Misunderstanding = floor0(sig.Misunderstanding - 10)
		}
	}
}

func (s *Simulation) decaySignals() {
	for key, sig := range s.signals {
		sig.Tension = floor0(sig.Tension - 0.5)
		sig.Misunderstanding = floor0(sig.Misunderstanding - 0.5)
		if sig.Tension == 0 && sig.Misunderstanding == 0 {
			delete(s.signals, key)
		}
	}
}

func (s *Simulation) persist(tick uint64, ds []decision.Decision, evs []events.ExecutionResult, rels []relationship.Event) {
	if s.store != nil {
		if err := s.store.SaveDecisions(ds); err != nil {
			slog.Error("persist decisions", "tick", tick, "error", err)
		}
		if err := s.store.SaveRelationshipEvents(rels); err != nil {
			slog.Error("persist relationship events", "tick", tick, "error", err)
		}
		if err := s.store.SaveSnapshot(tick, s.states); err != nil {
			slog.Error("persist snapshot", "tick", tick, "error", err)
		}
	}
	if s.journal != nil {
		rec := TickRecord{
			Tick:      tick,
			Time:      s.clock.Time,
			Weather:   s.clock.Weather.Name(),
			Decisions: ds,
			Events:    evs,
			RelEvents: rels,
		}
		if err := s.journal.Append(rec); err != nil {
			slog.Error("journal append", "tick", tick, "error", err)
		}
	}
}

func (s *Simulation) profileOf(id string) character.Profile {
	for _, p := range s.Roster {
		if p.ID == id {
			return p
		}
	}
	return character.Profile{ID: id, Name: id}
}

func (s *Simulation) averageIntimacy() (float64, bool) {
	sum, n := 0.0, 0
	for _, key := range s.Relationships.Pairs() {
		if m, ok := s.Relationships.Get(key.A, key.B); ok {
			sum += m.Intimacy
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// averageMoodNorm maps the roster's mean mood from [-1,1] to [0,1].
func (s *Simulation) averageMoodNorm() float64 {
	if len(s.states) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, st := range s.states {
		sum += st.Mood
	}
	return (sum/float64(len(s.states)) + 1) / 2
}

func floor0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func cap100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
