// Command sandboxd runs the sandbox world: a handful of characters living,
// deciding, and building relationships on a real-time tick.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aistory/sandboxworld/internal/api"
	"github.com/aistory/sandboxworld/internal/catalog"
	"github.com/aistory/sandboxworld/internal/character"
	"github.com/aistory/sandboxworld/internal/config"
	"github.com/aistory/sandboxworld/internal/decision"
	"github.com/aistory/sandboxworld/internal/engine"
	"github.com/aistory/sandboxworld/internal/enrich"
	"github.com/aistory/sandboxworld/internal/entropy"
	"github.com/aistory/sandboxworld/internal/events"
	"github.com/aistory/sandboxworld/internal/journal"
	"github.com/aistory/sandboxworld/internal/persistence"
	"github.com/aistory/sandboxworld/internal/relationship"
	"github.com/aistory/sandboxworld/internal/world"
)

// tickJournal narrows the generic journal writer to tick records.
type tickJournal struct {
	w *journal.Writer
}

func (j tickJournal) Append(rec engine.TickRecord) error {
	return j.w.Append(rec)
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*cfgPath); err != nil {
		slog.Error("sandboxd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	roster, err := character.LoadRoster(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	slog.Info("roster loaded", "characters", len(roster), "path", cfg.RosterPath)

	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	var jw *journal.Writer
	if cfg.JournalPath != "" {
		jw, err = journal.NewWriter(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer jw.Close()
		slog.Info("tick journal enabled", "path", cfg.JournalPath)
	}

	// Seed 0 means an unseeded, non-reproducible run.
	var rng entropy.Source
	if cfg.Seed == 0 {
		rng = entropy.Crypto()
	} else {
		rng = entropy.Locked(entropy.Seeded(cfg.Seed))
	}

	remote := enrich.NewClient(os.Getenv("ANTHROPIC_API_KEY"))
	var remoteEnricher enrich.Enricher
	if remote.Enabled() {
		remoteEnricher = remote
		slog.Info("narrative enrichment enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set, dialogue falls back to templates")
	}
	local := enrich.NewLocal(rng)
	chain := enrich.NewChain(remoteEnricher, local, cfg.Enrichment.Timeout)

	cat := catalog.New()
	dec := decision.NewEngine(cat, chain, local, rng)
	rel := relationship.NewEngine()
	reg := events.NewRegistry()
	gen := events.NewGenerator(reg, rng)
	exec := events.NewExecutor(reg, rng)
	clock := world.NewState(world.SchoolYearStart())
	wf := world.NewWeatherField(cfg.Seed)

	var jnl engine.Journal
	if jw != nil {
		jnl = tickJournal{jw}
	}

	sim, err := engine.NewSimulation(roster, clock, wf, dec, rel, gen, exec, rng, db, jnl)
	if err != nil {
		return err
	}

	apiServer := &api.Server{Sim: sim, DB: db, Port: cfg.APIPort}
	apiServer.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nThe sandbox world is alive: %d characters.\n", len(roster))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Println("Starting world loop... (Ctrl+C to stop)")

	runner := engine.NewRunner(sim, cfg.TickInterval)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.Snapshot().Tick)); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("World stopped.")
	return nil
}
