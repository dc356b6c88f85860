package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// mergerUnityCost is the unity a newly merged party loses to infighting.
const mergerUnityCost = 10.0

var (
	ErrUnknownParty       = errors.New("unknown party")
	ErrUnknownAffiliation = errors.New("affiliation not owned by any party")
	ErrNothingToCombine   = errors.New("no parties or affiliations to combine")
)

// MergerSpec describes a merger. PartyIDs and AffiliationIDs are the
// counterparties that accepted; affiliations are detached from whatever party
// owns them.
type MergerSpec struct {
	InitiatorID    social.PartyID
	PartyIDs       []social.PartyID
	AffiliationIDs []agents.AffiliationID
	Name           string

	// When KeepLineage is set the merged party keeps the initiator's ID and
	// leadership. Otherwise it takes NewID and is led by LeaderID, or by
	// the strongest of the former leaders when LeaderID is empty.
	KeepLineage bool
	NewID       social.PartyID
	LeaderID    agents.CharacterID
}

// Merge combines the initiator with the accepted parties and affiliations
// into one renamed party.
func Merge(in Input, spec MergerSpec) (*Outcome, error) {
	if !spec.KeepLineage && spec.NewID == "" {
		return nil, errors.New("merger without lineage needs a new party id")
	}
	return combine(in, spec.InitiatorID, spec.PartyIDs, spec.AffiliationIDs, func(merged *social.Party, before []*social.Party, chars []*agents.Character) {
		merged.Name = spec.Name
		merged.Ideology = averageIdeology(before)
		merged.EthnicityFocus = commonFocus(before)
		merged.Unity = max(0, averageUnity(before)-mergerUnityCost)
		if spec.KeepLineage {
			return
		}
		var leaders []agents.CharacterID
		for _, p := range before {
			leaders = append(leaders, p.LeaderID)
		}
		ranked := rankLeaders(leaders, chars)
		merged.ID = spec.NewID
		merged.LeaderID, merged.DeputyLeaderID = "", ""
		if spec.LeaderID != "" {
			merged.LeaderID = spec.LeaderID
			ranked = slices.DeleteFunc(ranked, func(id agents.CharacterID) bool { return id == spec.LeaderID })
		} else if len(ranked) > 0 {
			merged.LeaderID, ranked = ranked[0], ranked[1:]
		}
		if len(ranked) > 0 {
			merged.DeputyLeaderID = ranked[0]
		}
	}, "merger")
}

// Absorb folds the accepted parties and affiliations into the absorber,
// whose identity, leadership and ideology are unchanged.
func Absorb(in Input, absorberID social.PartyID, partyIDs []social.PartyID, affIDs []agents.AffiliationID) (*Outcome, error) {
	return combine(in, absorberID, partyIDs, affIDs, nil, "absorption")
}

// combine moves the affiliations, candidacies and branches of the given
// parties, and the given loose affiliations, into the initiator. rename,
// when set, adjusts the initiator's identity afterwards; it receives the
// initiator and absorbed parties as they were before combining.
func combine(in Input, initiatorID social.PartyID, partyIDs []social.PartyID, affIDs []agents.AffiliationID,
	rename func(merged *social.Party, before []*social.Party, chars []*agents.Character), op string) (*Outcome, error) {

	parties := social.CloneParties(in.Parties)
	chars := cloneChars(in.Characters)
	reg := social.NewRegistry(parties)

	init := reg.Party(initiatorID)
	if init == nil {
		return nil, fmt.Errorf("%s: initiator %s: %w", op, initiatorID, ErrUnknownParty)
	}

	var absorbed []*social.Party
	for _, pid := range partyIDs {
		p := reg.Party(pid)
		if p == nil {
			return nil, fmt.Errorf("%s: %s: %w", op, pid, ErrUnknownParty)
		}
		if p.ID != init.ID && !slices.Contains(absorbed, p) {
			absorbed = append(absorbed, p)
		}
	}

	var loose []agents.AffiliationID
	for _, aff := range affIDs {
		owner, ok := reg.PartyOf(aff)
		if !ok {
			return nil, fmt.Errorf("%s: %s: %w", op, aff, ErrUnknownAffiliation)
		}
		if owner.ID == init.ID || slices.Contains(absorbed, owner) || slices.Contains(loose, aff) {
			continue
		}
		loose = append(loose, aff)
	}
	// An owner losing every affiliation is absorbed whole.
	for _, aff := range slices.Clone(loose) {
		owner, _ := reg.PartyOf(aff)
		if slices.Contains(absorbed, owner) {
			continue
		}
		all := true
		for _, id := range owner.AffiliationIDs {
			if !slices.Contains(loose, id) {
				all = false
			}
		}
		if all {
			absorbed = append(absorbed, owner)
			loose = slices.DeleteFunc(loose, func(id agents.AffiliationID) bool { return owner.Owns(id) })
		}
	}
	if len(absorbed) == 0 && len(loose) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingToCombine)
	}

	before := social.CloneParties(append([]*social.Party{init}, absorbed...))
	moved := slices.Clone(loose)
	for _, p := range absorbed {
		moved = append(moved, p.AffiliationIDs...)
	}
	touched := seatsOf(in, moved, append([]*social.Party{init}, absorbed...)...)

	// Detach loose affiliations from their owners.
	for _, aff := range loose {
		owner, _ := reg.PartyOf(aff)
		owner.AffiliationIDs = slices.DeleteFunc(owner.AffiliationIDs, func(id agents.AffiliationID) bool { return id == aff })
		for code, cs := range owner.ContestedSeats {
			if cs.AllocatedAffiliationID == aff {
				delete(owner.ContestedSeats, code)
				mergeContest(init, code, cs, chars, in)
			}
		}
		init.AffiliationIDs = append(init.AffiliationIDs, aff)
	}

	for _, p := range absorbed {
		init.AffiliationIDs = append(init.AffiliationIDs, p.AffiliationIDs...)
		for code, cs := range p.ContestedSeats {
			mergeContest(init, code, cs, chars, in)
		}
		for _, b := range p.Branches {
			mergeBranch(init, b)
		}
	}

	oldID := init.ID
	if rename != nil {
		rename(init, before, chars)
	}

	retired := make(map[social.PartyID]social.PartyID)
	for _, p := range absorbed {
		retired[p.ID] = init.ID
	}
	if oldID != init.ID {
		retired[oldID] = init.ID
	}
	parties = slices.DeleteFunc(parties, func(p *social.Party) bool { return slices.Contains(absorbed, p) })

	out, err := finalize(in, parties, chars, touched, retired)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out.PartyID = init.ID
	for _, c := range out.Characters {
		if c.ID == init.LeaderID {
			c.Record(in.Date, fmt.Sprintf("Leads %s after the %s.", init.Name, op))
		}
	}
	logOutcome(op, out)
	return out, nil
}

// mergeContest adds a candidacy to p. When p already contests the seat the
// candidate with more influence keeps it.
func mergeContest(p *social.Party, code string, cs social.ContestedSeat, chars []*agents.Character, in Input) {
	if p.ContestedSeats == nil {
		p.ContestedSeats = make(map[string]social.ContestedSeat)
	}
	existing, ok := p.ContestedSeats[code]
	if !ok {
		p.ContestedSeats[code] = cs
		return
	}
	if influenceOf(cs.CandidateID, chars) > influenceOf(existing.CandidateID, chars) {
		p.ContestedSeats[code] = cs
	}
}

func influenceOf(id agents.CharacterID, chars []*agents.Character) float64 {
	for _, c := range chars {
		if c.ID == id && c.Alive {
			return c.Influence + c.Recognition/5
		}
	}
	return -1
}

// mergeBranch adds a branch to p. An existing branch keeps its leader and
// takes the other branch's leadership as executives.
func mergeBranch(p *social.Party, b social.Branch) {
	own := p.Branch(b.Region)
	if own == nil {
		p.Branches = append(p.Branches, social.Branch{Region: b.Region, LeaderID: b.LeaderID, ExecutiveIDs: slices.Clone(b.ExecutiveIDs)})
		return
	}
	if own.LeaderID == "" {
		own.LeaderID = b.LeaderID
	} else if b.LeaderID != "" && len(own.ExecutiveIDs) < social.ExecutivesPerBranch {
		own.ExecutiveIDs = append(own.ExecutiveIDs, b.LeaderID)
	}
	for _, id := range b.ExecutiveIDs {
		if len(own.ExecutiveIDs) >= social.ExecutivesPerBranch {
			break
		}
		own.ExecutiveIDs = append(own.ExecutiveIDs, id)
	}
}

func rankLeaders(ids []agents.CharacterID, chars []*agents.Character) []agents.CharacterID {
	var pool []*agents.Character
	for _, c := range chars {
		if c.Alive && slices.Contains(ids, c.ID) {
			pool = append(pool, c)
		}
	}
	slices.SortStableFunc(pool, func(a, b *agents.Character) int {
		sa, sb := social.Standing(a), social.Standing(b)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	out := make([]agents.CharacterID, len(pool))
	for i, c := range pool {
		out[i] = c.ID
	}
	return out
}

// averageIdeology weights each party by the number of affiliations it brings.
func averageIdeology(parties []*social.Party) agents.Ideology {
	var eco, gov, n float64
	for _, p := range parties {
		w := float64(max(1, len(p.AffiliationIDs)))
		eco += p.Ideology.Economic * w
		gov += p.Ideology.Governance * w
		n += w
	}
	if n == 0 {
		return agents.Ideology{Economic: 50, Governance: 50}
	}
	return agents.Ideology{Economic: eco / n, Governance: gov / n}.Clamp()
}

func averageUnity(parties []*social.Party) float64 {
	if len(parties) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range parties {
		sum += p.Unity
	}
	return sum / float64(len(parties))
}

// commonFocus keeps an ethnic focus only when every party shares it.
func commonFocus(parties []*social.Party) world.Ethnicity {
	if len(parties) == 0 {
		return ""
	}
	focus := parties[0].EthnicityFocus
	for _, p := range parties[1:] {
		if p.EthnicityFocus != focus {
			return ""
		}
	}
	return focus
}
