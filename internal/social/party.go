// Package social provides parties, affiliations, alliances, governments, and
// the organisational bookkeeping that ties politicians to them.
package social

import (
	"slices"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/world"
)

// PartyID is a unique identifier for a party.
type PartyID string

// Affiliation is a faction inside a party with its own community and ideology.
type Affiliation struct {
	ID           agents.AffiliationID `json:"id" yaml:"id"`
	Name         string               `json:"name" yaml:"name"`
	Ethnicity    world.Ethnicity      `json:"ethnicity" yaml:"ethnicity"`
	BaseIdeology agents.Ideology      `json:"base_ideology" yaml:"base_ideology"`
	Area         string               `json:"area" yaml:"area"` // Home region
}

// AffiliationTable is the static affiliation reference data.
type AffiliationTable map[agents.AffiliationID]*Affiliation

// Branch is a party's organisation in one region.
type Branch struct {
	Region       string               `json:"region"`
	LeaderID     agents.CharacterID   `json:"leader_id,omitempty"`
	ExecutiveIDs []agents.CharacterID `json:"executive_ids"`
}

// ContestedSeat designates a party's official candidate for a seat and the
// affiliation the seat is allocated to.
type ContestedSeat struct {
	CandidateID            agents.CharacterID   `json:"candidate_id"`
	AllocatedAffiliationID agents.AffiliationID `json:"allocated_affiliation_id"`
}

// Party is the top-level electoral organisation.
type Party struct {
	ID    PartyID `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`

	Unity          float64         `json:"unity"` // 0–100
	Ideology       agents.Ideology `json:"ideology"`
	EthnicityFocus world.Ethnicity `json:"ethnicity_focus,omitempty"` // Empty = multi-ethnic

	LeaderID       agents.CharacterID `json:"leader_id,omitempty"`
	DeputyLeaderID agents.CharacterID `json:"deputy_leader_id,omitempty"`

	AffiliationIDs []agents.AffiliationID `json:"affiliation_ids"`
	Branches       []Branch               `json:"branches"`

	// Seat code → official candidacy.
	ContestedSeats map[string]ContestedSeat `json:"contested_seats"`
}

// Owns reports whether the party owns the affiliation.
func (p *Party) Owns(aff agents.AffiliationID) bool {
	return slices.Contains(p.AffiliationIDs, aff)
}

// Branch returns the party's branch in a region, or nil.
func (p *Party) Branch(region string) *Branch {
	for i := range p.Branches {
		if p.Branches[i].Region == region {
			return &p.Branches[i]
		}
	}
	return nil
}

// AdjustUnity adds delta to unity, keeping it within [0, 100].
func (p *Party) AdjustUnity(delta float64) {
	p.Unity = min(100, max(0, p.Unity+delta))
}

// Clone returns a deep copy.
func (p *Party) Clone() *Party {
	cp := *p
	cp.AffiliationIDs = slices.Clone(p.AffiliationIDs)
	cp.Branches = make([]Branch, len(p.Branches))
	for i, b := range p.Branches {
		cp.Branches[i] = Branch{
			Region:       b.Region,
			LeaderID:     b.LeaderID,
			ExecutiveIDs: slices.Clone(b.ExecutiveIDs),
		}
	}
	cp.ContestedSeats = make(map[string]ContestedSeat, len(p.ContestedSeats))
	for code, cs := range p.ContestedSeats {
		cp.ContestedSeats[code] = cs
	}
	return &cp
}

// CloneParties deep-copies a party list.
func CloneParties(parties []*Party) []*Party {
	out := make([]*Party, len(parties))
	for i, p := range parties {
		out[i] = p.Clone()
	}
	return out
}

// AllianceKind distinguishes electoral pacts from governing coalitions.
type AllianceKind string

const (
	AllianceElectoral AllianceKind = "electoral_pact"
	AllianceGoverning AllianceKind = "governing_coalition"
)

// Alliance is a named grouping of parties.
type Alliance struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Kind           AllianceKind `json:"kind"`
	MemberPartyIDs []PartyID    `json:"member_party_ids"`
}

// Has reports whether the party is a member.
func (a *Alliance) Has(pid PartyID) bool {
	return slices.Contains(a.MemberPartyIDs, pid)
}

// Clone returns a deep copy.
func (a *Alliance) Clone() *Alliance {
	cp := *a
	cp.MemberPartyIDs = slices.Clone(a.MemberPartyIDs)
	return &cp
}

// CloneAlliances deep-copies an alliance list.
func CloneAlliances(alliances []*Alliance) []*Alliance {
	out := make([]*Alliance, len(alliances))
	for i, a := range alliances {
		out[i] = a.Clone()
	}
	return out
}

// AllianceOf returns the first alliance containing the party, or nil.
func AllianceOf(alliances []*Alliance, pid PartyID) *Alliance {
	for _, a := range alliances {
		if a.Has(pid) {
			return a
		}
	}
	return nil
}

// Government is the ruling executive. A nil *Government means no government.
type Government struct {
	ChiefExecutiveID  agents.CharacterID   `json:"chief_executive_id"`
	Cabinet           []agents.CharacterID `json:"cabinet"`
	CoalitionPartyIDs []PartyID            `json:"coalition_party_ids"`
	FormedOn          time.Time            `json:"formed_on"`
}

// InCoalition reports whether the party is part of the ruling coalition.
func (g *Government) InCoalition(pid PartyID) bool {
	return g != nil && slices.Contains(g.CoalitionPartyIDs, pid)
}

// Clone returns a deep copy.
func (g *Government) Clone() *Government {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Cabinet = slices.Clone(g.Cabinet)
	cp.CoalitionPartyIDs = slices.Clone(g.CoalitionPartyIDs)
	return &cp
}
