package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/social"
)

// DayReport summarises one tick.
type DayReport struct {
	Date       time.Time
	Event      *events.Event
	Deaths     []agents.CharacterID
	Successors []agents.CharacterID
	Vacancies  []social.Vacancy
	Collapsed  bool
	Election   bool
}

// AdvanceDay runs one tick: the date moves forward one day, a monthly event
// may interrupt, then mortality, AI decisions, succession and vacancy cleanup
// run in that order, and finally a due election is held.
func (s *Simulation) AdvanceDay() (*DayReport, error) {
	if s.Phase != PhaseRunning {
		return nil, ErrNotRunning
	}
	s.Date = s.Date.AddDate(0, 0, 1)
	s.touch()
	defer s.Metrics.day(s)
	report := &DayReport{Date: s.Date}

	if s.Date.Day() == 1 {
		if e := events.Check(s.Date, s.eventState(), s.eventRNG); e != nil {
			s.PendingEvent = e
			s.Phase = PhaseEvent
			report.Event = e
			s.Metrics.event(string(e.Kind))
			slog.Info("world event", "date", s.Date.Format(time.DateOnly), "kind", e.Kind, "title", e.Title)
			return report, nil
		}
	}

	dead := s.applyMortality()
	changed := s.runAI()
	for _, c := range dead {
		report.Deaths = append(report.Deaths, c.ID)
	}
	for _, succ := range s.succeed(dead) {
		report.Successors = append(report.Successors, succ.ID)
	}
	s.Metrics.died(len(dead))

	if len(dead) > 0 || changed {
		report.Vacancies, report.Collapsed = s.cleanup()
	}
	if len(dead) > 0 {
		slog.Info("daily report",
			"date", s.Date.Format(time.DateOnly),
			"deaths", len(dead),
			"vacancies", len(report.Vacancies),
			"living", s.Living(),
		)
	}

	if !s.Date.Before(s.NextElection) {
		if _, err := s.RunGeneralElection(); err != nil {
			s.Phase = PhasePaused
			return report, err
		}
		report.Election = true
	}
	return report, nil
}

// applyMortality rolls each living character's death and returns the dead.
func (s *Simulation) applyMortality() []*agents.Character {
	var dead []*agents.Character
	for _, c := range s.Characters {
		if !c.Alive {
			continue
		}
		age := c.Age(s.Date)
		if !agents.DiesAtAge(age, s.mortality) {
			continue
		}
		c.Alive = false
		c.Record(s.Date, fmt.Sprintf("Died at the age of %d.", age))
		title := "Obituary"
		if c.IsPlayer {
			title = "Your Character Has Died"
		}
		s.record(LogDeath, title, fmt.Sprintf("%s (%s) has passed away at the age of %d.", c.Name, c.SeatCode, age))
		dead = append(dead, c)
	}
	return dead
}

// succeed spawns a successor for each dead character. A dead player's
// successor becomes the new player character.
func (s *Simulation) succeed(dead []*agents.Character) []*agents.Character {
	var out []*agents.Character
	for _, c := range dead {
		succ := s.spawner.Successor(c, s.Date)
		if c.IsPlayer {
			succ.IsPlayer = true
			s.PlayerID = succ.ID
			s.record(LogPersonal, "A New Beginning",
				fmt.Sprintf("You carry on the work of %s as %s.", c.Name, succ.Name))
		}
		s.Characters = append(s.Characters, succ)
		out = append(out, succ)
	}
	return out
}

// cleanup refills dead office-holders and prunes the government. An empty
// chief executive slot brings the government down.
func (s *Simulation) cleanup() ([]social.Vacancy, bool) {
	parties, vacancies := social.CleanupVacancies(s.Parties, s.Characters)
	s.Parties = parties
	for _, v := range vacancies {
		if v.Filled == "" {
			continue
		}
		if c := s.Character(v.Filled); c != nil {
			p := s.Party(v.PartyID)
			name := string(v.PartyID)
			if p != nil {
				name = p.Name
			}
			c.Record(s.Date, fmt.Sprintf("Assumed the %s for %s.", v.Post, name))
		}
	}

	living := agents.LivingIDs(s.Characters)
	if s.Speaker != "" && !living[s.Speaker] {
		s.Speaker = ""
	}
	gov, changed := social.CleanupGovernment(s.Government, living)
	if !changed {
		return vacancies, false
	}
	if gov.ChiefExecutiveID == "" {
		s.Government = nil
		s.record(LogMajorEvent, "Government Crisis", "The Chief Minister position is vacant. Government has collapsed.")
		s.Metrics.collapse()
		slog.Warn("government collapsed", "date", s.Date.Format(time.DateOnly), "cause", "vacancy")
		return vacancies, true
	}
	s.Government = gov
	return vacancies, false
}
