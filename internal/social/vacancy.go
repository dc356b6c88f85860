// Vacancy cleanup reconciles leadership, branch, candidacy and cabinet
// posts against the set of living politicians.
package social

import (
	"fmt"
	"slices"
	"sort"

	"github.com/talgya/assembly/internal/agents"
)

// ExecutivesPerBranch is the number of executive seats in a regional branch.
const ExecutivesPerBranch = 2

// Vacancy records a post that was emptied or refilled by cleanup.
type Vacancy struct {
	PartyID PartyID
	Post    string
	Vacated agents.CharacterID
	Filled  agents.CharacterID // Empty if nobody could be found
}

func (v Vacancy) String() string {
	if v.Filled == "" {
		return fmt.Sprintf("%s: %s left vacant", v.PartyID, v.Post)
	}
	return fmt.Sprintf("%s: %s passes to %s", v.PartyID, v.Post, v.Filled)
}

// Standing ranks politicians for promotion.
func Standing(c *agents.Character) float64 {
	return c.Influence + c.Recognition + c.Charisma/2
}

// rankByStanding sorts best-first; ties go to the lower ID.
func rankByStanding(chars []*agents.Character) []*agents.Character {
	out := slices.Clone(chars)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := Standing(out[i]), Standing(out[j])
		if si != sj {
			return si > sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// best returns the highest-standing candidate passing keep, or nil.
func best(chars []*agents.Character, keep func(*agents.Character) bool) *agents.Character {
	for _, c := range rankByStanding(chars) {
		if keep == nil || keep(c) {
			return c
		}
	}
	return nil
}

// AppointLeadership fills every empty national, regional and candidacy post
// from living members. Existing living office-holders are kept.
func AppointLeadership(parties []*Party, chars []*agents.Character, regions []string) {
	reg := NewRegistry(parties)
	members := reg.Members(chars, true)
	for _, p := range parties {
		fillPosts(p, members[p.ID], regions)
	}
}

// CleanupVacancies returns copies of the parties with dead office-holders
// removed and posts refilled from living members: the deputy succeeds a dead
// leader, the strongest executive succeeds a dead regional leader, and dead
// official candidates are replaced from the allocated affiliation in the seat.
func CleanupVacancies(parties []*Party, chars []*agents.Character) ([]*Party, []Vacancy) {
	out := CloneParties(parties)
	living := agents.LivingIDs(chars)
	reg := NewRegistry(out)
	members := reg.Members(chars, true)

	var vacancies []Vacancy
	for _, p := range out {
		vacancies = append(vacancies, cleanupParty(p, living, members[p.ID])...)
	}
	return out, vacancies
}

func cleanupParty(p *Party, living map[agents.CharacterID]bool, members []*agents.Character) []Vacancy {
	var vs []Vacancy
	dead := func(id agents.CharacterID) bool { return id != "" && !living[id] }

	if dead(p.LeaderID) {
		v := Vacancy{PartyID: p.ID, Post: "party leadership", Vacated: p.LeaderID}
		p.LeaderID = ""
		if p.DeputyLeaderID != "" && living[p.DeputyLeaderID] {
			p.LeaderID = p.DeputyLeaderID
			p.DeputyLeaderID = ""
		}
		vs = append(vs, v)
	}
	if dead(p.DeputyLeaderID) {
		vs = append(vs, Vacancy{PartyID: p.ID, Post: "deputy leadership", Vacated: p.DeputyLeaderID})
		p.DeputyLeaderID = ""
	}

	for i := range p.Branches {
		b := &p.Branches[i]
		var vacated agents.CharacterID
		if dead(b.LeaderID) {
			vacated = b.LeaderID
			b.LeaderID = ""
		}
		execs := b.ExecutiveIDs[:0]
		for _, id := range b.ExecutiveIDs {
			if living[id] {
				execs = append(execs, id)
			}
		}
		b.ExecutiveIDs = execs
		if vacated != "" {
			if len(b.ExecutiveIDs) > 0 {
				promoted := bestOf(b.ExecutiveIDs, members)
				b.LeaderID = promoted
				b.ExecutiveIDs = slices.DeleteFunc(b.ExecutiveIDs, func(id agents.CharacterID) bool { return id == promoted })
			}
			vs = append(vs, Vacancy{PartyID: p.ID, Post: b.Region + " branch leadership", Vacated: vacated})
		}
	}

	for code, cs := range p.ContestedSeats {
		if living[cs.CandidateID] {
			continue
		}
		vs = append(vs, Vacancy{PartyID: p.ID, Post: "candidacy in " + code, Vacated: cs.CandidateID})
		cs.CandidateID = ""
		p.ContestedSeats[code] = cs
	}

	fillPosts(p, members, nil)

	// A candidacy nobody could take over is withdrawn.
	for code, cs := range p.ContestedSeats {
		if cs.CandidateID == "" {
			delete(p.ContestedSeats, code)
		}
	}

	after := snapshotPosts(p)
	for i := range vs {
		vs[i].Filled = after[vs[i].Post]
	}
	return vs
}

// bestOf picks the highest-standing living member among ids.
func bestOf(ids []agents.CharacterID, members []*agents.Character) agents.CharacterID {
	var pool []*agents.Character
	for _, m := range members {
		if slices.Contains(ids, m.ID) {
			pool = append(pool, m)
		}
	}
	if c := best(pool, nil); c != nil {
		return c.ID
	}
	return ids[0]
}

func snapshotPosts(p *Party) map[string]agents.CharacterID {
	out := map[string]agents.CharacterID{
		"party leadership":  p.LeaderID,
		"deputy leadership": p.DeputyLeaderID,
	}
	for _, b := range p.Branches {
		out[b.Region+" branch leadership"] = b.LeaderID
	}
	for code, cs := range p.ContestedSeats {
		out["candidacy in "+code] = cs.CandidateID
	}
	return out
}

// fillPosts appoints living members to empty posts. When regions is non-nil,
// missing branches for those regions are created.
func fillPosts(p *Party, members []*agents.Character, regions []string) {
	holds := func(id agents.CharacterID) bool {
		if id == p.LeaderID || id == p.DeputyLeaderID {
			return true
		}
		for _, b := range p.Branches {
			if b.LeaderID == id || slices.Contains(b.ExecutiveIDs, id) {
				return true
			}
		}
		return false
	}

	if p.LeaderID == "" {
		if c := best(members, func(c *agents.Character) bool { return !holds(c.ID) }); c != nil {
			p.LeaderID = c.ID
		}
	}
	if p.DeputyLeaderID == "" {
		if c := best(members, func(c *agents.Character) bool { return !holds(c.ID) }); c != nil {
			p.DeputyLeaderID = c.ID
		}
	}

	for _, region := range regions {
		if p.Branch(region) != nil {
			continue
		}
		for _, m := range members {
			if m.Region == region {
				p.Branches = append(p.Branches, Branch{Region: region})
				break
			}
		}
	}

	for i := range p.Branches {
		b := &p.Branches[i]
		inRegion := func(c *agents.Character) bool { return c.Region == b.Region && !holds(c.ID) }
		if b.LeaderID == "" {
			if c := best(members, inRegion); c != nil {
				b.LeaderID = c.ID
			}
		}
		for len(b.ExecutiveIDs) < ExecutivesPerBranch {
			c := best(members, inRegion)
			if c == nil {
				break
			}
			b.ExecutiveIDs = append(b.ExecutiveIDs, c.ID)
		}
	}

	if p.ContestedSeats == nil {
		p.ContestedSeats = make(map[string]ContestedSeat)
	}
	for code, cs := range p.ContestedSeats {
		if cs.CandidateID != "" {
			continue
		}
		if c := best(members, func(c *agents.Character) bool {
			return c.SeatCode == code && c.AffiliationID == cs.AllocatedAffiliationID
		}); c != nil {
			cs.CandidateID = c.ID
			p.ContestedSeats[code] = cs
		}
	}
}

// CleanupGovernment removes dead ministers. It returns the cleaned copy and
// whether anything changed; an empty ChiefExecutiveID in the result means the
// government has collapsed.
func CleanupGovernment(g *Government, living map[agents.CharacterID]bool) (*Government, bool) {
	if g == nil {
		return nil, false
	}
	out := g.Clone()
	changed := false
	if out.ChiefExecutiveID != "" && !living[out.ChiefExecutiveID] {
		out.ChiefExecutiveID = ""
		changed = true
	}
	cabinet := out.Cabinet[:0]
	for _, id := range out.Cabinet {
		if living[id] {
			cabinet = append(cabinet, id)
		} else {
			changed = true
		}
	}
	out.Cabinet = cabinet
	return out, changed
}
