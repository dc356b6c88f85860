package lifecycle

import (
	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/influence"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// AllocateSeats designates, for every party and every given seat, an
// official candidate: the living member with the highest effective
// influence there, the sitting official candidate counting with
// influence.OfficialCandidateMultiplier. The seat is allocated to the
// candidate's affiliation. Parties without members in a seat withdraw from
// it. Returns updated copies of the parties.
func AllocateSeats(geo *world.Geography, parties []*social.Party, chars []*agents.Character, ctx influence.Context, seats []string) ([]*social.Party, error) {
	out := social.CloneParties(parties)
	if err := allocate(geo, out, chars, ctx, seats, true); err != nil {
		return nil, err
	}
	return out, nil
}

// allocate edits parties in place. Unless reselect is set, existing
// candidacies are kept and only missing ones are filled.
func allocate(geo *world.Geography, parties []*social.Party, chars []*agents.Character, ctx influence.Context, seats []string, reselect bool) error {
	reg := social.NewRegistry(parties)
	local := make(map[string]map[social.PartyID][]*agents.Character)
	want := make(map[string]bool, len(seats))
	for _, code := range seats {
		want[code] = true
	}
	for _, c := range chars {
		if !c.Alive || !want[c.SeatCode] {
			continue
		}
		pid, err := reg.Owner(c.AffiliationID)
		if err != nil {
			return &influence.DataConsistencyError{CharacterID: c.ID, AffiliationID: c.AffiliationID, Err: err}
		}
		if local[c.SeatCode] == nil {
			local[c.SeatCode] = make(map[social.PartyID][]*agents.Character)
		}
		local[c.SeatCode][pid] = append(local[c.SeatCode][pid], c)
	}

	for _, p := range parties {
		if p.ContestedSeats == nil {
			p.ContestedSeats = make(map[string]social.ContestedSeat)
		}
		for _, code := range seats {
			seat, ok := geo.Seat(code)
			if !ok {
				continue
			}
			current, has := p.ContestedSeats[code]
			if has && !reselect {
				continue
			}
			best, err := strongest(local[code][p.ID], seat, geo.Demographic(code), ctx, current)
			if err != nil {
				return err
			}
			if best == nil {
				delete(p.ContestedSeats, code)
				continue
			}
			p.ContestedSeats[code] = social.ContestedSeat{CandidateID: best.ID, AllocatedAffiliationID: best.AffiliationID}
		}
	}
	return nil
}

// strongest returns the member with the highest effective influence in the
// seat, ties to the lower ID.
func strongest(members []*agents.Character, seat world.Seat, demo *world.Demographics, ctx influence.Context, current social.ContestedSeat) (*agents.Character, error) {
	var best *agents.Character
	bestScore := -1.0
	cand := influence.Candidacy{OfficialCandidateID: current.CandidateID}
	for _, c := range members {
		score, err := influence.Effective(c, seat, demo, ctx, cand)
		if err != nil {
			return nil, err
		}
		if score > bestScore || (score == bestScore && c.ID < best.ID) {
			best, bestScore = c, score
		}
	}
	return best, nil
}
