// Package engine provides the day-by-day political simulation loop and the
// wall-clock driver that advances it.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Engine drives a Simulation in wall-clock time and serialises every other
// caller against the tick.
type Engine struct {
	Sim      *Simulation
	Speed    float64       // Days per interval: 1.0 = one day per Interval, 0 = paused
	Interval time.Duration // Base interval between days (default 1 second)

	// Autopilot resolves events and votes without waiting for the player.
	Autopilot bool

	// Callbacks run after a day completes, still holding the lock.
	OnDay      func(r *DayReport)
	OnElection func(r *DayReport)

	mu sync.Mutex
}

// NewEngine creates a driver for sim with default settings.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:      sim,
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Do runs fn with exclusive access to the simulation.
func (e *Engine) Do(fn func(s *Simulation) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.Sim)
}

// SetSpeed changes the clock rate. Zero or less pauses the driver.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	e.Speed = v
	e.mu.Unlock()
}

// Run advances the simulation until ctx is cancelled. A day in progress
// always completes before cancellation is honoured.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "date", e.Sim.Date.Format(time.DateOnly), "speed", e.Speed)
	defer slog.Info("simulation engine stopped", "date", e.Sim.Date.Format(time.DateOnly))

	for {
		start := time.Now()
		wait, err := e.step()
		if err != nil {
			return err
		}
		if wait <= 0 {
			wait = 100 * time.Millisecond
		} else if elapsed := time.Since(start); elapsed < wait {
			wait -= elapsed
		} else {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// step advances one day if the clock is running and returns how long to
// wait before the next. A zero wait means the driver is idle.
func (e *Engine) step() (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Autopilot {
		if err := e.Sim.AutoResolve(); err != nil {
			return 0, err
		}
	}
	if e.Speed <= 0 || e.Sim.Phase != PhaseRunning {
		return 0, nil
	}
	r, err := e.Sim.AdvanceDay()
	if err != nil && !errors.Is(err, ErrNotRunning) {
		return 0, err
	}
	if r != nil {
		if e.OnDay != nil {
			e.OnDay(r)
		}
		if r.Election && e.OnElection != nil {
			e.OnElection(r)
		}
	}
	return time.Duration(float64(e.Interval) / e.Speed), nil
}

// RunDays advances the simulation by up to n days as fast as possible,
// settling every interruption the way an absent player would. It returns the
// number of days advanced.
func (s *Simulation) RunDays(ctx context.Context, n int) (int, error) {
	done := 0
	for done < n {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.AutoResolve(); err != nil {
			return done, err
		}
		if _, err := s.AdvanceDay(); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
