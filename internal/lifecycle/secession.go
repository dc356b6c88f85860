package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
)

// Focus nudges a newly founded party's ideology away from its founding
// affiliation's.
type Focus string

const (
	FocusNone         Focus = ""
	FocusLeft         Focus = "left"
	FocusRight        Focus = "right"
	FocusLiberal      Focus = "liberal"
	FocusConservative Focus = "conservative"
)

const focusShift = 15.0

// Apply shifts an ideology in the focus direction.
func (f Focus) Apply(i agents.Ideology) agents.Ideology {
	switch f {
	case FocusLeft:
		i.Economic -= focusShift
	case FocusRight:
		i.Economic += focusShift
	case FocusLiberal:
		i.Governance -= focusShift
	case FocusConservative:
		i.Governance += focusShift
	}
	return i.Clamp()
}

// Valid reports whether f is a known focus.
func (f Focus) Valid() bool {
	switch f {
	case FocusNone, FocusLeft, FocusRight, FocusLiberal, FocusConservative:
		return true
	}
	return false
}

// SecessionSpec describes an affiliation leaving its party. Exactly one of
// TargetPartyID (join an existing party) or NewPartyID (found one) is set.
type SecessionSpec struct {
	AffiliationID agents.AffiliationID
	LeaderID      agents.CharacterID // The politician leading the walkout

	TargetPartyID social.PartyID

	NewPartyID social.PartyID
	Name       string
	Color      string
	Focus      Focus
}

var (
	ErrLastAffiliation = errors.New("a party cannot lose its only affiliation")
	ErrBadSecession    = errors.New("secession needs exactly one of a target party or a new party")
)

// foundingUnity is a new party's unity; a walkout is a cohesive act.
const foundingUnity = 70.0

// Secede detaches one affiliation, with all its members and the seats
// allocated to it, from its party. The affiliation joins the target party or
// founds a new one led by the seceding politician.
func Secede(in Input, spec SecessionSpec) (*Outcome, error) {
	if (spec.TargetPartyID == "") == (spec.NewPartyID == "") {
		return nil, ErrBadSecession
	}
	if !spec.Focus.Valid() {
		return nil, fmt.Errorf("secession: unknown focus %q", spec.Focus)
	}

	parties := social.CloneParties(in.Parties)
	chars := cloneChars(in.Characters)
	reg := social.NewRegistry(parties)

	from, ok := reg.PartyOf(spec.AffiliationID)
	if !ok {
		return nil, fmt.Errorf("secession: %s: %w", spec.AffiliationID, ErrUnknownAffiliation)
	}
	if len(from.AffiliationIDs) == 1 {
		return nil, fmt.Errorf("secession from %s: %w", from.ID, ErrLastAffiliation)
	}

	var to *social.Party
	if spec.TargetPartyID != "" {
		to = reg.Party(spec.TargetPartyID)
		if to == nil {
			return nil, fmt.Errorf("secession: target %s: %w", spec.TargetPartyID, ErrUnknownParty)
		}
		if to.ID == from.ID {
			return nil, fmt.Errorf("secession: %s already owns %s", to.ID, spec.AffiliationID)
		}
	} else {
		if reg.Party(spec.NewPartyID) != nil {
			return nil, fmt.Errorf("secession: party %s already exists", spec.NewPartyID)
		}
		aff := in.Affiliations[spec.AffiliationID]
		if aff == nil {
			return nil, fmt.Errorf("secession: %s: %w", spec.AffiliationID, ErrUnknownAffiliation)
		}
		to = &social.Party{
			ID:             spec.NewPartyID,
			Name:           spec.Name,
			Color:          spec.Color,
			Unity:          foundingUnity,
			Ideology:       spec.Focus.Apply(aff.BaseIdeology),
			EthnicityFocus: aff.Ethnicity,
			LeaderID:       spec.LeaderID,
			ContestedSeats: make(map[string]social.ContestedSeat),
		}
		parties = append(parties, to)
	}

	touched := seatsOf(in, []agents.AffiliationID{spec.AffiliationID}, from)

	from.AffiliationIDs = slices.DeleteFunc(from.AffiliationIDs, func(id agents.AffiliationID) bool { return id == spec.AffiliationID })
	to.AffiliationIDs = append(to.AffiliationIDs, spec.AffiliationID)
	for code, cs := range from.ContestedSeats {
		if cs.AllocatedAffiliationID == spec.AffiliationID {
			delete(from.ContestedSeats, code)
			mergeContest(to, code, cs, chars, in)
		}
	}

	out, err := finalize(in, parties, chars, touched, nil)
	if err != nil {
		return nil, fmt.Errorf("secession: %w", err)
	}
	out.PartyID = to.ID
	for _, c := range out.Characters {
		if c.ID != spec.LeaderID {
			continue
		}
		c.IsAffiliationLeader = true
		if spec.NewPartyID != "" {
			c.Record(in.Date, fmt.Sprintf("Led the %s faction out of %s to found %s.", spec.AffiliationID, from.Name, to.Name))
		} else {
			c.Record(in.Date, fmt.Sprintf("Led the %s faction out of %s into %s.", spec.AffiliationID, from.Name, to.Name))
		}
	}
	logOutcome("secession", out)
	return out, nil
}
