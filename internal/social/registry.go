package social

import (
	"fmt"
	"sort"

	"github.com/talgya/assembly/internal/agents"
)

// OwnershipError reports an affiliation owned by no party or by several.
type OwnershipError struct {
	AffiliationID agents.AffiliationID
	Owners        []PartyID
}

func (e *OwnershipError) Error() string {
	if len(e.Owners) == 0 {
		return fmt.Sprintf("affiliation %q is owned by no party", e.AffiliationID)
	}
	return fmt.Sprintf("affiliation %q is owned by %d parties %v", e.AffiliationID, len(e.Owners), e.Owners)
}

// Registry indexes affiliation ownership and parties by ID.
type Registry struct {
	parties []*Party
	byID    map[PartyID]*Party
	owners  map[agents.AffiliationID][]PartyID
}

// NewRegistry builds an index over the given parties. The registry reads the
// parties it was built from; rebuild it after restructuring.
func NewRegistry(parties []*Party) *Registry {
	r := &Registry{
		parties: parties,
		byID:    make(map[PartyID]*Party, len(parties)),
		owners:  make(map[agents.AffiliationID][]PartyID),
	}
	for _, p := range parties {
		r.byID[p.ID] = p
		for _, aff := range p.AffiliationIDs {
			r.owners[aff] = append(r.owners[aff], p.ID)
		}
	}
	return r
}

// Parties returns the indexed parties in their original order.
func (r *Registry) Parties() []*Party {
	return r.parties
}

// Party looks up a party by ID.
func (r *Registry) Party(id PartyID) *Party {
	return r.byID[id]
}

// Owner returns the single party owning aff, or an *OwnershipError.
func (r *Registry) Owner(aff agents.AffiliationID) (PartyID, error) {
	owners := r.owners[aff]
	if len(owners) != 1 {
		return "", &OwnershipError{AffiliationID: aff, Owners: owners}
	}
	return owners[0], nil
}

// PartyOf returns the party owning aff when ownership is well-formed.
func (r *Registry) PartyOf(aff agents.AffiliationID) (*Party, bool) {
	id, err := r.Owner(aff)
	if err != nil {
		return nil, false
	}
	return r.byID[id], true
}

// PartyOfCharacter returns the character's party, or nil.
func (r *Registry) PartyOfCharacter(c *agents.Character) *Party {
	p, _ := r.PartyOf(c.AffiliationID)
	return p
}

// Validate checks that every affiliation in the table, and every affiliation
// any party lists, is owned by exactly one party.
func (r *Registry) Validate(table AffiliationTable) error {
	ids := make(map[agents.AffiliationID]bool)
	for id := range table {
		ids[id] = true
	}
	for id := range r.owners {
		ids[id] = true
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, string(id))
	}
	sort.Strings(sorted)
	for _, id := range sorted {
		if _, err := r.Owner(agents.AffiliationID(id)); err != nil {
			return err
		}
	}
	return nil
}

// Members groups characters by owning party. Characters whose affiliation
// has no single owner are skipped.
func (r *Registry) Members(chars []*agents.Character, livingOnly bool) map[PartyID][]*agents.Character {
	out := make(map[PartyID][]*agents.Character)
	for _, c := range chars {
		if livingOnly && !c.Alive {
			continue
		}
		if pid, err := r.Owner(c.AffiliationID); err == nil {
			out[pid] = append(out[pid], c)
		}
	}
	return out
}

// SortedPartyIDs returns party IDs in ascending order, the canonical
// iteration and tie-break order.
func SortedPartyIDs(parties []*Party) []PartyID {
	ids := make([]PartyID, len(parties))
	for i, p := range parties {
		ids[i] = p.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedAffiliationIDs returns the table's IDs in ascending order.
func SortedAffiliationIDs(table AffiliationTable) []agents.AffiliationID {
	ids := make([]agents.AffiliationID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
