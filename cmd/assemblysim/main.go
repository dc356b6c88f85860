// Command assemblysim runs the parliamentary simulation, either live behind
// the HTTP API or headless for a fixed number of years.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/api"
	"github.com/talgya/assembly/internal/config"
	"github.com/talgya/assembly/internal/engine"
	"github.com/talgya/assembly/internal/persistence"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "assemblysim",
		Short:        "A federation's parliament, day by day",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	load := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		level, _ := config.ParseLevel(cfg.LogLevel)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
		return cfg, nil
	}

	root.AddCommand(runCmd(load), simulateCmd(load))
	return root
}

func runCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the live simulation and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	slog.Info("Assembly: a parliamentary simulation", "seed", cfg.Seed)

	// ── World Map ─────────────────────────────────────────────────────
	geo, err := cfg.Geography()
	if err != nil {
		return fmt.Errorf("seat table: %w", err)
	}
	slog.Info("seat table ready", "seats", geo.SeatCount(), "regions", len(geo.Regions()),
		"electorate", humanize.Comma(int64(geo.TotalElectorate())))

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Create World State ────────────────────────────────────
	var sim *engine.Simulation
	if db.HasWorldState() {
		slog.Info("found saved world state, loading...")
		if sim, err = db.LoadWorldState(geo, social.SeedAffiliations()); err != nil {
			return fmt.Errorf("load world: %w", err)
		}
		slog.Info("world state restored", "date", sim.Date.Format(time.DateOnly),
			"living", sim.Living(), "elections", len(sim.History))
	} else {
		slog.Info("no saved state found, founding a new federation...")
		if sim, err = engine.New(scenario(cfg, geo)); err != nil {
			return fmt.Errorf("new world: %w", err)
		}
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sim.Metrics = engine.NewMetrics(reg)

	// ── Simulation ────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Speed = cfg.Speed
	eng.Interval = cfg.Interval
	eng.Autopilot = cfg.Autopilot

	save := func(reason string) {
		if err := db.SaveWorldState(eng.Sim); err != nil {
			slog.Error("save failed", "reason", reason, "error", err)
		}
	}
	days := 0
	eng.OnDay = func(r *engine.DayReport) {
		days++
		if cfg.SaveEvery > 0 && days%cfg.SaveEvery == 0 {
			save("autosave")
		}
	}
	eng.OnElection = func(r *engine.DayReport) {
		slog.Info("general election held", "date", r.Date.Format(time.DateOnly),
			"government", eng.Sim.Government != nil)
		save("election")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("ASSEMBLY_ADMIN_KEY not set; admin POST endpoints will be disabled")
	}
	srv := &api.Server{
		Eng:      eng,
		DB:       db,
		Gatherer: reg,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nThe house sits: %s politicians contesting %d seats.\n",
		humanize.Comma(int64(sim.Living())), geo.SeatCount())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	err = g.Wait()

	slog.Info("final save...")
	eng.Do(func(s *engine.Simulation) error {
		save("shutdown")
		return nil
	})
	fmt.Println("Simulation stopped. World state saved.")
	return err
}

func simulateCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		years int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run headless for a number of years and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if years <= 0 {
				return fmt.Errorf("--years must be positive")
			}
			return simulate(cmd.Context(), cfg, years, out)
		},
	}
	cmd.Flags().IntVarP(&years, "years", "y", 10, "years to simulate")
	cmd.Flags().StringVarP(&out, "out", "o", "", "save the final world to this database")
	return cmd
}

func simulate(ctx context.Context, cfg config.Config, years int, out string) error {
	geo, err := cfg.Geography()
	if err != nil {
		return fmt.Errorf("seat table: %w", err)
	}
	sim, err := engine.New(scenario(cfg, geo))
	if err != nil {
		return err
	}
	if err := sim.Resume(); err != nil {
		return err
	}

	start := time.Now()
	end := sim.Date.AddDate(years, 0, 0)
	n := int(end.Sub(sim.Date).Hours() / 24)
	if _, err := sim.RunDays(ctx, n); err != nil {
		return err
	}
	slog.Info("simulation finished", "days", humanize.Comma(int64(n)), "took", time.Since(start).Round(time.Millisecond))

	printSummary(sim)

	if out != "" {
		db, err := persistence.Open(out)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveWorldState(sim); err != nil {
			return err
		}
		fmt.Printf("World saved to %s\n", out)
	}
	return nil
}

func printSummary(sim *engine.Simulation) {
	fmt.Printf("\n%s, %d general elections held, %s politicians living.\n",
		sim.Date.Format("2 January 2006"), len(sim.History), humanize.Comma(int64(sim.Living())))

	totals := sim.Results.SeatTotals()
	parties := append([]*social.Party(nil), sim.Parties...)
	sort.Slice(parties, func(i, j int) bool {
		if totals[parties[i].ID] != totals[parties[j].ID] {
			return totals[parties[i].ID] > totals[parties[j].ID]
		}
		return parties[i].ID < parties[j].ID
	})
	for _, p := range parties {
		marker := " "
		if sim.Government.InCoalition(p.ID) {
			marker = "*"
		}
		fmt.Printf(" %s %-40s %3d seats  unity %3.0f\n", marker, p.Name, totals[p.ID], p.Unity)
	}
	if sim.Government == nil {
		fmt.Println("No government commands a majority.")
	} else if chief := sim.Character(sim.Government.ChiefExecutiveID); chief != nil {
		fmt.Printf("Chief Minister: %s, in office since %s.\n", chief.Name, sim.Government.FormedOn.Format(time.DateOnly))
	}
	if latest := sim.History.Latest(); latest != nil {
		turnout := float64(latest.TotalVotes) / float64(max(latest.TotalElectorate, 1))
		fmt.Printf("Last poll %s: %s votes, turnout %.1f%%.\n", latest.Date.Format(time.DateOnly),
			humanize.Comma(int64(latest.TotalVotes)), turnout*100)
	}
}

func scenario(cfg config.Config, geo *world.Geography) engine.Scenario {
	sc := engine.DefaultScenario(cfg.Seed, geo)
	sc.Start = cfg.Start.Time
	sc.FirstElection = cfg.FirstElection.Time
	if cfg.Player != nil {
		sc.Player = &engine.PlayerSpec{
			Name:          cfg.Player.Name,
			AffiliationID: agents.AffiliationID(cfg.Player.AffiliationID),
			SeatCode:      cfg.Player.Seat,
		}
	}
	return sc
}
