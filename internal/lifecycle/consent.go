package lifecycle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/social"
)

// AcceptanceChance is the probability that an invited party or affiliation
// accepts a merger, absorption or alliance proposal.
const AcceptanceChance = 0.6

// Acceptance splits invitees into those who accepted and those who refused.
type Acceptance struct {
	AcceptedParties      []social.PartyID       `json:"accepted_parties"`
	RejectedParties      []social.PartyID       `json:"rejected_parties"`
	AcceptedAffiliations []agents.AffiliationID `json:"accepted_affiliations"`
	RejectedAffiliations []agents.AffiliationID `json:"rejected_affiliations"`
}

// Empty reports whether nobody accepted.
func (a Acceptance) Empty() bool {
	return len(a.AcceptedParties) == 0 && len(a.AcceptedAffiliations) == 0
}

// Consent asks each invitee independently, parties first, in the order given.
func Consent(rng entropy.Source, parties []social.PartyID, affs []agents.AffiliationID) Acceptance {
	var a Acceptance
	for _, pid := range parties {
		if entropy.Chance(rng, AcceptanceChance) {
			a.AcceptedParties = append(a.AcceptedParties, pid)
		} else {
			a.RejectedParties = append(a.RejectedParties, pid)
		}
	}
	for _, aff := range affs {
		if entropy.Chance(rng, AcceptanceChance) {
			a.AcceptedAffiliations = append(a.AcceptedAffiliations, aff)
		} else {
			a.RejectedAffiliations = append(a.RejectedAffiliations, aff)
		}
	}
	return a
}

// FormAlliance invites parties to join the initiator in a new alliance.
// When at least one accepts, the alliance is created and its members leave
// any other alliance of the same kind; alliances left with fewer than two
// members dissolve. Otherwise the alliances are returned unchanged and the
// new alliance is nil.
func FormAlliance(rng entropy.Source, initiator social.PartyID, invited []social.PartyID, name string,
	kind social.AllianceKind, alliances []*social.Alliance) ([]*social.Alliance, *social.Alliance, Acceptance) {

	acc := Consent(rng, invited, nil)
	if acc.Empty() {
		return alliances, nil, acc
	}

	members := append([]social.PartyID{initiator}, acc.AcceptedParties...)
	created := &social.Alliance{
		ID:             allianceID(name, alliances),
		Name:           name,
		Kind:           kind,
		MemberPartyIDs: members,
	}

	out := make([]*social.Alliance, 0, len(alliances)+1)
	for _, a := range alliances {
		a = a.Clone()
		if a.Kind == kind {
			a.MemberPartyIDs = slices.DeleteFunc(a.MemberPartyIDs, func(pid social.PartyID) bool { return slices.Contains(members, pid) })
		}
		if len(a.MemberPartyIDs) >= 2 {
			out = append(out, a)
		}
	}
	return append(out, created), created, acc
}

// PruneAlliances replaces retired party IDs with their successors and drops
// alliances left with fewer than two members.
func PruneAlliances(alliances []*social.Alliance, retired map[social.PartyID]social.PartyID) []*social.Alliance {
	out := make([]*social.Alliance, 0, len(alliances))
	for _, a := range alliances {
		a = a.Clone()
		var members []social.PartyID
		for _, pid := range a.MemberPartyIDs {
			if to, ok := retired[pid]; ok {
				pid = to
			}
			if !slices.Contains(members, pid) {
				members = append(members, pid)
			}
		}
		a.MemberPartyIDs = members
		if len(members) >= 2 {
			out = append(out, a)
		}
	}
	return out
}

func allianceID(name string, existing []*social.Alliance) string {
	base := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if base == "" {
		base = "alliance"
	}
	id := base
	for n := 2; slices.ContainsFunc(existing, func(a *social.Alliance) bool { return a.ID == id }); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}
