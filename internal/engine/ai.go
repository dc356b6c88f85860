package engine

import (
	"fmt"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/social"
)

// Daily odds of each AI move.
const (
	rallyChance      = 0.01
	tourChance       = 0.004
	deputyChance     = 0.005
	branchChance     = 0.004
	executiveChance  = 0.003
	groundworkChance = 0.002
	relocateChance   = 0.0005

	rallyUnityCap = 80.0
)

// runAI lets every living non-player character act according to the role
// their party currently gives them. It reports whether anything changed.
func (s *Simulation) runAI() bool {
	reg := s.Registry()
	var presence map[string]map[agents.AffiliationID]int
	changed := false
	for _, c := range s.Characters {
		if !c.Alive || c.IsPlayer {
			continue
		}
		p := reg.PartyOfCharacter(c)
		switch social.RoleOf(c.ID, p) {
		case social.RoleNationalLeader:
			if p.Unity < rallyUnityCap && entropy.Chance(s.ai, rallyChance) {
				p.AdjustUnity(1)
				changed = true
			}
			if entropy.Chance(s.ai, tourChance) {
				c.AdjustTraits(0, 1, 1)
				changed = true
			}
		case social.RoleNationalDeputy:
			if entropy.Chance(s.ai, deputyChance) {
				c.AdjustTraits(0, 1, 0)
				changed = true
			}
		case social.RoleRegionalLeader:
			if entropy.Chance(s.ai, branchChance) {
				c.AdjustTraits(0, 0, 1)
				changed = true
			}
		case social.RoleRegionalExecutive:
			if entropy.Chance(s.ai, executiveChance) {
				c.AdjustTraits(0, 1, 0)
				changed = true
			}
		default:
			if entropy.Chance(s.ai, groundworkChance) {
				c.AdjustTraits(0, 1, 0)
				changed = true
			}
			if entropy.Chance(s.ai, relocateChance) {
				if presence == nil {
					presence = s.presence()
				}
				if s.relocate(c, p, presence) {
					changed = true
				}
			}
		}
	}
	return changed
}

// presence counts living characters per seat and affiliation.
func (s *Simulation) presence() map[string]map[agents.AffiliationID]int {
	out := make(map[string]map[agents.AffiliationID]int)
	for _, c := range s.Characters {
		if !c.Alive {
			continue
		}
		if out[c.SeatCode] == nil {
			out[c.SeatCode] = make(map[agents.AffiliationID]int)
		}
		out[c.SeatCode][c.AffiliationID]++
	}
	return out
}

// relocate moves a rank-and-file member to the seat in their region where
// their affiliation is thinnest on the ground, provided their community lives
// there. Official candidates stay put.
func (s *Simulation) relocate(c *agents.Character, p *social.Party, presence map[string]map[agents.AffiliationID]int) bool {
	if p != nil {
		if cs, ok := p.ContestedSeats[c.SeatCode]; ok && cs.CandidateID == c.ID {
			return false
		}
	}
	here := presence[c.SeatCode][c.AffiliationID]
	best, bestCount := "", here-1
	for _, seat := range s.Geography.Seats {
		if seat.Region != c.Region || seat.Code == c.SeatCode {
			continue
		}
		if s.Geography.Demographic(seat.Code).Share(c.Ethnicity) < agents.MinPresencePercent {
			continue
		}
		if n := presence[seat.Code][c.AffiliationID]; n < bestCount {
			best, bestCount = seat.Code, n
		}
	}
	if best == "" {
		return false
	}
	presence[c.SeatCode][c.AffiliationID]--
	if presence[best] == nil {
		presence[best] = make(map[agents.AffiliationID]int)
	}
	presence[best][c.AffiliationID]++
	c.Record(s.Date, fmt.Sprintf("Moved from %s to build support in %s.", c.SeatCode, best))
	c.SeatCode = best
	return true
}
