// Strongholds are a per-seat, per-affiliation bonus reflecting historical
// dominance, recomputed whenever ownership or results change.
package influence

import (
	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

const (
	// MaxStrongholdBonus caps the multiplicative bonus (1 + bonus).
	MaxStrongholdBonus = 0.5

	presenceWeight  = 0.25
	incumbencyBonus = 0.25
)

// StrongholdMap maps seat code → affiliation → bonus in [0, MaxStrongholdBonus].
type StrongholdMap map[string]map[agents.AffiliationID]float64

// Bonus returns the stronghold bonus, zero when absent.
func (m StrongholdMap) Bonus(seat string, aff agents.AffiliationID) float64 {
	if m == nil {
		return 0
	}
	return m[seat][aff]
}

// Clone returns a deep copy.
func (m StrongholdMap) Clone() StrongholdMap {
	out := make(StrongholdMap, len(m))
	for seat, row := range m {
		cp := make(map[agents.AffiliationID]float64, len(row))
		for aff, v := range row {
			cp[aff] = v
		}
		out[seat] = cp
	}
	return out
}

// StrongholdInput is the state strongholds are derived from.
type StrongholdInput struct {
	Geography  *world.Geography
	Characters []*agents.Character
	Registry   *social.Registry

	// Latest seat winners; nil before the first election.
	Results map[string]social.PartyID
}

// BuildStrongholds computes the map for every seat.
func BuildStrongholds(in StrongholdInput) StrongholdMap {
	m := make(StrongholdMap, in.Geography.SeatCount())
	m.Recompute(in.Geography.SeatCodes(), in)
	return m
}

// Recompute refreshes the rows for the given seats in place.
//
// An affiliation's bonus is its share of the seat's living politicians
// (weighted by presenceWeight), plus incumbencyBonus when its party holds the
// seat and has allocated the seat to it.
func (m StrongholdMap) Recompute(seats []string, in StrongholdInput) {
	bySeat := make(map[string][]*agents.Character)
	want := make(map[string]bool, len(seats))
	for _, code := range seats {
		want[code] = true
	}
	for _, c := range in.Characters {
		if c.Alive && want[c.SeatCode] {
			bySeat[c.SeatCode] = append(bySeat[c.SeatCode], c)
		}
	}

	for _, code := range seats {
		row := make(map[agents.AffiliationID]float64)
		local := bySeat[code]
		if len(local) > 0 {
			counts := make(map[agents.AffiliationID]int)
			for _, c := range local {
				counts[c.AffiliationID]++
			}
			for aff, n := range counts {
				row[aff] = presenceWeight * float64(n) / float64(len(local))
			}
		}

		if winner, ok := in.Results[code]; ok && in.Registry != nil {
			if p := in.Registry.Party(winner); p != nil {
				if cs, ok := p.ContestedSeats[code]; ok && p.Owns(cs.AllocatedAffiliationID) {
					row[cs.AllocatedAffiliationID] += incumbencyBonus
				}
			}
		}

		for aff, v := range row {
			row[aff] = min(v, MaxStrongholdBonus)
		}
		if len(row) == 0 {
			delete(m, code)
			continue
		}
		m[code] = row
	}
}
