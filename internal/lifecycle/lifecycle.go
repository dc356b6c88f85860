// Package lifecycle restructures parties: merger, absorption, secession and
// alliance formation, plus the seat allocation that keeps every contested
// seat pointing at an affiliation its party actually owns.
//
// Every operation works on copies and returns the new state; nothing in the
// input is modified, so a failed operation leaves the world untouched.
package lifecycle

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/influence"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// Input is the world state a lifecycle operation reads.
type Input struct {
	Date         time.Time
	Geography    *world.Geography
	Parties      []*social.Party
	Characters   []*agents.Character
	Results      election.Results
	Affiliations social.AffiliationTable
	Strongholds  influence.StrongholdMap
}

// Outcome is the restructured world.
type Outcome struct {
	Parties     []*social.Party
	Characters  []*agents.Character
	Results     election.Results
	Strongholds influence.StrongholdMap

	// The party the operation produced or enlarged.
	PartyID social.PartyID

	// Parties that no longer exist, mapped to their successor.
	Retired map[social.PartyID]social.PartyID

	// Seats whose contests, results or strongholds were recomputed.
	Touched []string
}

// NewPartyID draws a party identifier from r. A seeded reader gives
// reproducible IDs.
func NewPartyID(r io.Reader) (social.PartyID, error) {
	u, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("party id: %w", err)
	}
	return social.PartyID("party-" + u.String()[:8]), nil
}

// Check verifies the ownership invariants: every affiliation is owned by
// exactly one party, and every contested seat is allocated to an affiliation
// its party owns.
func Check(parties []*social.Party, table social.AffiliationTable) error {
	reg := social.NewRegistry(parties)
	if err := reg.Validate(table); err != nil {
		return err
	}
	for _, p := range parties {
		for code, cs := range p.ContestedSeats {
			if !p.Owns(cs.AllocatedAffiliationID) {
				return fmt.Errorf("party %s contests %s for affiliation %s it does not own", p.ID, code, cs.AllocatedAffiliationID)
			}
		}
	}
	return nil
}

func cloneChars(chars []*agents.Character) []*agents.Character {
	out := make([]*agents.Character, len(chars))
	for i, c := range chars {
		out[i] = c.Clone()
	}
	return out
}

// seatsOf lists the seats where members of the given affiliations live, plus
// every seat the given parties contest.
func seatsOf(in Input, affs []agents.AffiliationID, parties ...*social.Party) []string {
	set := make(map[string]bool)
	for _, c := range in.Characters {
		if c.Alive && slices.Contains(affs, c.AffiliationID) {
			set[c.SeatCode] = true
		}
	}
	for _, p := range parties {
		if p == nil {
			continue
		}
		for code := range p.ContestedSeats {
			set[code] = true
		}
	}
	out := make([]string, 0, len(set))
	for code := range set {
		if _, ok := in.Geography.Seat(code); ok {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// finalize brings restructured parties back into a consistent state:
// posts and candidacies held by non-members are vacated, empty posts are
// refilled, touched seats are re-allocated, seat results follow their MPs,
// and strongholds are recomputed for touched seats.
func finalize(in Input, parties []*social.Party, chars []*agents.Character, touched []string, retired map[social.PartyID]social.PartyID) (*Outcome, error) {
	reg := social.NewRegistry(parties)
	members := reg.Members(chars, true)
	for _, p := range parties {
		evict(p, members[p.ID])
	}
	social.AppointLeadership(parties, chars, in.Geography.Regions())

	ctx := influence.Context{Affiliations: in.Affiliations, Strongholds: in.Strongholds}
	if err := allocate(in.Geography, parties, chars, ctx, touched, false); err != nil {
		return nil, err
	}

	results := in.Results.Remap(retired)
	mps := make(map[string]*agents.Character)
	for _, c := range chars {
		if c.Alive && c.IsMP {
			mps[c.SeatCode] = c
		}
	}
	for _, code := range touched {
		if _, won := results[code]; !won {
			continue
		}
		if mp := mps[code]; mp != nil {
			if pid, err := reg.Owner(mp.AffiliationID); err == nil {
				results[code] = pid
			}
		}
	}

	strongholds := in.Strongholds.Clone()
	strongholds.Recompute(touched, influence.StrongholdInput{
		Geography:  in.Geography,
		Characters: chars,
		Registry:   reg,
		Results:    results,
	})

	if err := Check(parties, in.Affiliations); err != nil {
		return nil, fmt.Errorf("restructuring left inconsistent ownership: %w", err)
	}
	return &Outcome{
		Parties:     parties,
		Characters:  chars,
		Results:     results,
		Strongholds: strongholds,
		Retired:     retired,
		Touched:     touched,
	}, nil
}

// evict vacates posts and candidacies held by anyone who is not a living
// member, and drops candidacies for affiliations the party no longer owns.
func evict(p *social.Party, members []*agents.Character) {
	ok := make(map[agents.CharacterID]bool, len(members))
	for _, m := range members {
		ok[m.ID] = true
	}
	if !ok[p.LeaderID] {
		p.LeaderID = ""
	}
	if !ok[p.DeputyLeaderID] {
		p.DeputyLeaderID = ""
	}
	if p.LeaderID == "" && p.DeputyLeaderID != "" {
		p.LeaderID, p.DeputyLeaderID = p.DeputyLeaderID, ""
	}
	for i := range p.Branches {
		b := &p.Branches[i]
		if !ok[b.LeaderID] {
			b.LeaderID = ""
		}
		b.ExecutiveIDs = slices.DeleteFunc(b.ExecutiveIDs, func(id agents.CharacterID) bool { return !ok[id] })
	}
	for code, cs := range p.ContestedSeats {
		if !ok[cs.CandidateID] || !p.Owns(cs.AllocatedAffiliationID) {
			delete(p.ContestedSeats, code)
		}
	}
}

func logOutcome(op string, out *Outcome) {
	slog.Info("party restructuring",
		"op", op,
		"party", out.PartyID,
		"retired", len(out.Retired),
		"seats_touched", len(out.Touched),
	)
}
