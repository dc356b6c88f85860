// Package agents provides the politician model: traits, ideology, ages,
// the mortality table, and spawning of the founding population and successors.
package agents

import (
	"math"
	"time"

	"github.com/talgya/assembly/internal/world"
)

// CharacterID is a unique identifier for a politician.
type CharacterID string

// AffiliationID identifies the faction a character belongs to.
type AffiliationID string

// Ideology is a two-axis political position. Both axes run 0–100.
type Ideology struct {
	Economic   float64 `json:"economic" yaml:"economic"`     // 0 left, 100 right
	Governance float64 `json:"governance" yaml:"governance"` // 0 liberal, 100 authoritarian
}

// Clamp bounds both axes to [0, 100].
func (i Ideology) Clamp() Ideology {
	return Ideology{
		Economic:   clamp(i.Economic, 0, 100),
		Governance: clamp(i.Governance, 0, 100),
	}
}

// Distance is the euclidean distance between two positions.
func (i Ideology) Distance(o Ideology) float64 {
	de := i.Economic - o.Economic
	dg := i.Governance - o.Governance
	return math.Sqrt(de*de + dg*dg)
}

// HistoryEntry is one line of a character's biography.
type HistoryEntry struct {
	Date  time.Time `json:"date"`
	Event string    `json:"event"`
}

// Character is a politician.
type Character struct {
	ID        CharacterID     `json:"id"`
	Name      string          `json:"name"`
	Ethnicity world.Ethnicity `json:"ethnicity"`
	Region    string          `json:"region"`
	SeatCode  string          `json:"seat_code"`

	Alive     bool      `json:"alive"`
	BirthDate time.Time `json:"birth_date"`

	// Traits, each 0–100.
	Charisma    float64 `json:"charisma"`
	Influence   float64 `json:"influence"`
	Recognition float64 `json:"recognition"`

	Ideology      Ideology      `json:"ideology"`
	AffiliationID AffiliationID `json:"affiliation_id"`

	IsMP                bool `json:"is_mp"`
	IsPlayer            bool `json:"is_player"`
	IsAffiliationLeader bool `json:"is_affiliation_leader,omitempty"`

	// Append-only.
	History []HistoryEntry `json:"history"`
}

// Age returns the character's age in whole calendar years on the given date.
func (c *Character) Age(on time.Time) int {
	return AgeOn(c.BirthDate, on)
}

// Record appends a history entry.
func (c *Character) Record(date time.Time, event string) {
	c.History = append(c.History, HistoryEntry{Date: date, Event: event})
}

// AdjustTraits adds deltas to the three traits, keeping each within [0, 100].
func (c *Character) AdjustTraits(charisma, influence, recognition float64) {
	c.Charisma = clamp(c.Charisma+charisma, 0, 100)
	c.Influence = clamp(c.Influence+influence, 0, 100)
	c.Recognition = clamp(c.Recognition+recognition, 0, 100)
}

// Clone returns a deep copy.
func (c *Character) Clone() *Character {
	cp := *c
	cp.History = append([]HistoryEntry(nil), c.History...)
	return &cp
}

// AgeOn returns whole calendar years elapsed between birth and on.
func AgeOn(birth, on time.Time) int {
	years := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		years--
	}
	return years
}

// LivingIDs returns the set of living character IDs.
func LivingIDs(chars []*Character) map[CharacterID]bool {
	out := make(map[CharacterID]bool, len(chars))
	for _, c := range chars {
		if c.Alive {
			out[c.ID] = true
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
