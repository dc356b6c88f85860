package influence

import (
	"errors"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// ProjectedControl returns, for each seat, the party whose resident
// politician has the highest effective influence. Official candidacies count
// with OfficialCandidateMultiplier. Seats without a positive score are
// omitted. Ties go to the lower party ID.
func ProjectedControl(geo *world.Geography, chars []*agents.Character, ctx Context) (map[string]social.PartyID, error) {
	if ctx.Registry == nil {
		return nil, &DataConsistencyError{Err: errNoRegistry}
	}
	bySeat := make(map[string][]*agents.Character)
	for _, c := range chars {
		if c.Alive {
			bySeat[c.SeatCode] = append(bySeat[c.SeatCode], c)
		}
	}

	out := make(map[string]social.PartyID)
	for _, seat := range geo.Seats {
		demo := geo.Demographic(seat.Code)
		var bestParty social.PartyID
		bestScore := 0.0

		for _, c := range bySeat[seat.Code] {
			pid, err := ctx.Registry.Owner(c.AffiliationID)
			if err != nil {
				return nil, &DataConsistencyError{CharacterID: c.ID, AffiliationID: c.AffiliationID, Err: err}
			}
			var cand Candidacy
			if cs, ok := ctx.Registry.Party(pid).ContestedSeats[seat.Code]; ok {
				cand = Candidacy{OfficialCandidateID: cs.CandidateID, AllocatedAffiliationID: cs.AllocatedAffiliationID}
			}
			score, err := Effective(c, seat, demo, ctx, cand)
			if err != nil {
				return nil, err
			}
			if score > bestScore || (score == bestScore && score > 0 && pid < bestParty) {
				bestScore = score
				bestParty = pid
			}
		}
		if bestScore > 0 {
			out[seat.Code] = bestParty
		}
	}
	return out, nil
}

var errNoRegistry = errors.New("projection requires a party registry")
