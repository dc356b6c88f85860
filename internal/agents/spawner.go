// Character spawning: the founding population at game start and successors
// for politicians who die in office.
package agents

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/world"
)

// MinPresencePercent is the community share a seat needs before an
// affiliation of that community fields a local politician.
const MinPresencePercent = 2.0

// Successor age bounds: [SuccessorMinAge, SuccessorMaxAge).
const (
	SuccessorMinAge = 25
	SuccessorMaxAge = 50
)

// Founding describes an affiliation for population seeding.
type Founding struct {
	AffiliationID AffiliationID
	Ethnicity     world.Ethnicity
	Ideology      Ideology
}

// Spawner creates characters from a random source.
type Spawner struct {
	rng entropy.Source
}

// NewSpawner creates a spawner with a seeded source.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{rng: entropy.Derive(seed, 300)}
}

// NewSpawnerFrom creates a spawner drawing from src.
func NewSpawnerFrom(src entropy.Source) *Spawner {
	return &Spawner{rng: src}
}

// newID draws a UUID from the spawner's own stream so seeded runs repeat.
func (s *Spawner) newID(prefix string) CharacterID {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// Only a failing reader can get here; fall back to a counter-free draw.
		return CharacterID(fmt.Sprintf("%s-%08x", prefix, s.rng.Intn(1<<31)))
	}
	return CharacterID(prefix + "-" + id.String())
}

// Populate spawns one politician per (seat, affiliation) pair where the
// affiliation's community makes up at least MinPresencePercent of the seat.
func (s *Spawner) Populate(geo *world.Geography, foundings []Founding, start time.Time) []*Character {
	var out []*Character
	for _, seat := range geo.Seats {
		demo := geo.Demographic(seat.Code)
		if demo == nil {
			continue
		}
		for _, f := range foundings {
			if demo.Share(f.Ethnicity) < MinPresencePercent {
				continue
			}
			age := 25 + s.rng.Intn(30)
			out = append(out, &Character{
				ID:            s.newID("npc"),
				Name:          RandomName(f.Ethnicity, s.rng.Intn),
				Ethnicity:     f.Ethnicity,
				Region:        seat.Region,
				SeatCode:      seat.Code,
				Alive:         true,
				BirthDate:     start.AddDate(-age, -s.rng.Intn(12), -s.rng.Intn(28)),
				Charisma:      float64(15 + s.rng.Intn(50)),
				Influence:     float64(10 + s.rng.Intn(40)),
				Recognition:   float64(5 + s.rng.Intn(30)),
				Ideology:      f.Ideology,
				AffiliationID: f.AffiliationID,
			})
		}
	}
	return out
}

// Successor creates a new politician to replace the deceased: same seat,
// region, community and affiliation, aged in [25, 50) on date, with fresh
// (generally lower) traits and up to ±10 ideological drift on each axis.
// The successor does not inherit the MP seat.
func (s *Spawner) Successor(deceased *Character, date time.Time) *Character {
	years := SuccessorMinAge + s.rng.Intn(SuccessorMaxAge-SuccessorMinAge)
	// 1–360 days before the birthday anniversary keeps the age exactly years,
	// leap days included.
	birth := date.AddDate(-years, 0, -(1 + s.rng.Intn(360)))

	drift := Ideology{
		Economic:   deceased.Ideology.Economic + entropy.Between(s.rng, -10, 10),
		Governance: deceased.Ideology.Governance + entropy.Between(s.rng, -10, 10),
	}

	c := &Character{
		ID:            s.newID("npc"),
		Name:          RandomName(deceased.Ethnicity, s.rng.Intn),
		Ethnicity:     deceased.Ethnicity,
		Region:        deceased.Region,
		SeatCode:      deceased.SeatCode,
		Alive:         true,
		BirthDate:     birth,
		Charisma:      float64(20 + s.rng.Intn(60)),
		Influence:     float64(10 + s.rng.Intn(40)),
		Recognition:   float64(5 + s.rng.Intn(20)),
		Ideology:      drift.Clamp(),
		AffiliationID: deceased.AffiliationID,
	}
	c.Record(date, fmt.Sprintf("Emerged as a new voice for %s in %s, succeeding %s.",
		deceased.AffiliationID, deceased.SeatCode, deceased.Name))
	return c
}

// NewPlayer creates the player's character.
func (s *Spawner) NewPlayer(name string, f Founding, seat world.Seat, start time.Time) *Character {
	c := &Character{
		ID:            s.newID("player"),
		Name:          name,
		Ethnicity:     f.Ethnicity,
		Region:        seat.Region,
		SeatCode:      seat.Code,
		Alive:         true,
		BirthDate:     start.AddDate(-38, 0, 0),
		Charisma:      50,
		Influence:     30,
		Recognition:   20,
		Ideology:      f.Ideology,
		AffiliationID: f.AffiliationID,
		IsPlayer:      true,
	}
	if c.Name == "" {
		c.Name = RandomName(f.Ethnicity, s.rng.Intn)
	}
	return c
}
