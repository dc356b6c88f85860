// Package influence computes a politician's effective influence in a seat.
// The model is pure: the same inputs always give the same score, so map
// projections and election scoring never diverge.
package influence

import (
	"errors"
	"fmt"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

const (
	// OfficialCandidateMultiplier applies to a party's designated candidate
	// in seat-level selection and projections.
	OfficialCandidateMultiplier = 1.5

	// AllocationMultiplier applies to members of the affiliation a seat is
	// allocated to.
	AllocationMultiplier = 1.1

	// HomeAreaMultiplier applies when the seat lies in the affiliation's home region.
	HomeAreaMultiplier = 1.05

	recognitionWeight = 0.2
)

// DataConsistencyError means a character's affiliation is missing from the
// reference table or is not owned by exactly one party. It is fatal to the
// operation that hit it, not to the simulation.
type DataConsistencyError struct {
	CharacterID   agents.CharacterID
	AffiliationID agents.AffiliationID
	Err           error
}

func (e *DataConsistencyError) Error() string {
	return fmt.Sprintf("data consistency: character %q affiliation %q: %v", e.CharacterID, e.AffiliationID, e.Err)
}

func (e *DataConsistencyError) Unwrap() error {
	return e.Err
}

// ErrUnknownAffiliation is wrapped when an affiliation is not in the table.
var ErrUnknownAffiliation = errors.New("affiliation not in reference table")

// Context carries the reference data every influence computation reads.
type Context struct {
	Affiliations social.AffiliationTable
	Strongholds  StrongholdMap

	// Optional. When set, ownership is verified as well.
	Registry *social.Registry
}

// Candidacy names the party's official candidate and allocated affiliation
// for the seat being scored. Zero values mean "none".
type Candidacy struct {
	OfficialCandidateID    agents.CharacterID
	AllocatedAffiliationID agents.AffiliationID
}

// Effective returns the non-negative effective influence of c in seat.
// Missing demographics give the neutral factor 1.0.
func Effective(c *agents.Character, seat world.Seat, demo *world.Demographics, ctx Context, cand Candidacy) (float64, error) {
	aff, err := resolve(c, ctx)
	if err != nil {
		return 0, err
	}

	score := c.Influence + c.Recognition*recognitionWeight
	score *= demographicFactor(c.Ethnicity, demo)

	if aff.Area != "" && aff.Area == seat.Region {
		score *= HomeAreaMultiplier
	}

	score *= 1 + ctx.Strongholds.Bonus(seat.Code, c.AffiliationID)

	if cand.OfficialCandidateID != "" && cand.OfficialCandidateID == c.ID {
		score *= OfficialCandidateMultiplier
	}
	if cand.AllocatedAffiliationID != "" && cand.AllocatedAffiliationID == c.AffiliationID {
		score *= AllocationMultiplier
	}

	if score < 0 {
		return 0, nil
	}
	return score, nil
}

func resolve(c *agents.Character, ctx Context) (*social.Affiliation, error) {
	aff, ok := ctx.Affiliations[c.AffiliationID]
	if !ok {
		return nil, &DataConsistencyError{CharacterID: c.ID, AffiliationID: c.AffiliationID, Err: ErrUnknownAffiliation}
	}
	if ctx.Registry != nil {
		if _, err := ctx.Registry.Owner(c.AffiliationID); err != nil {
			return nil, &DataConsistencyError{CharacterID: c.ID, AffiliationID: c.AffiliationID, Err: err}
		}
	}
	return aff, nil
}

// demographicFactor scales with the share of the seat belonging to the
// character's community: 0.5 with no co-ethnics, 1.5 in a homogeneous seat.
func demographicFactor(e world.Ethnicity, demo *world.Demographics) float64 {
	if demo == nil || len(demo.Composition) == 0 {
		return 1.0
	}
	return 0.5 + demo.Share(e)/100
}
