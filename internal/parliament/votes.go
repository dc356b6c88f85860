package parliament

import (
	"math"
	"sort"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/social"
)

// Direction is how a member votes.
type Direction string

const (
	Aye     Direction = "Aye"
	Nay     Direction = "Nay"
	Abstain Direction = "Abstain"
)

// Valid reports whether d is one of the three directions.
func (d Direction) Valid() bool {
	return d == Aye || d == Nay || d == Abstain
}

// Tally counts votes by direction.
type Tally struct {
	Aye     int `json:"aye"`
	Nay     int `json:"nay"`
	Abstain int `json:"abstain"`
}

// Total is the number of votes cast, abstentions included.
func (t Tally) Total() int {
	return t.Aye + t.Nay + t.Abstain
}

func (t *Tally) add(d Direction) {
	switch d {
	case Aye:
		t.Aye++
	case Nay:
		t.Nay++
	default:
		t.Abstain++
	}
}

// SpeakerCandidatesLimit caps the speaker shortlist.
const SpeakerCandidatesLimit = 3

// SpeakerCandidates shortlists sitting MPs of the ruling coalition who hold
// no ministerial or party leadership post, strongest first. Without a
// government the largest party's backbenchers stand instead.
func SpeakerCandidates(results election.Results, parties []*social.Party, gov *social.Government, chars []*agents.Character) []*agents.Character {
	reg := social.NewRegistry(parties)
	eligible := func(pid social.PartyID) bool {
		if gov != nil {
			return gov.InCoalition(pid)
		}
		return pid == largestParty(results)
	}
	busy := make(map[agents.CharacterID]bool)
	if gov != nil {
		busy[gov.ChiefExecutiveID] = true
		for _, id := range gov.Cabinet {
			busy[id] = true
		}
	}
	for _, p := range parties {
		busy[p.LeaderID] = true
		busy[p.DeputyLeaderID] = true
	}

	var pool []*agents.Character
	for _, c := range chars {
		if !c.Alive || !c.IsMP || busy[c.ID] {
			continue
		}
		if p := reg.PartyOfCharacter(c); p != nil && eligible(p.ID) {
			pool = append(pool, c)
		}
	}
	pool = rankByStanding(pool)
	if len(pool) > SpeakerCandidatesLimit {
		pool = pool[:SpeakerCandidatesLimit]
	}
	return pool
}

func largestParty(results election.Results) social.PartyID {
	var best social.PartyID
	n := 0
	for pid, seats := range results.SeatTotals() {
		if seats > n || (seats == n && pid < best) {
			best, n = pid, seats
		}
	}
	return best
}

// SpeakerResult is the outcome of a speaker election.
type SpeakerResult struct {
	WinnerID  agents.CharacterID                    `json:"winner_id"`
	Tally     map[agents.CharacterID]int            `json:"tally"`
	Breakdown map[social.PartyID]agents.CharacterID `json:"breakdown"` // Each bloc's choice
}

// SpeakerVote runs the speaker election. Each party votes as a bloc, one
// vote per seat, for its own candidate when it has one and otherwise for the
// candidate from the ideologically closest party. The player's ballot, when
// playerVote names a candidate, replaces one of the player's party's votes.
// Ties go to the lower candidate ID.
func SpeakerVote(results election.Results, parties []*social.Party, candidates []*agents.Character,
	playerPartyID social.PartyID, playerVote agents.CharacterID) SpeakerResult {

	res := SpeakerResult{
		Tally:     make(map[agents.CharacterID]int, len(candidates)),
		Breakdown: make(map[social.PartyID]agents.CharacterID),
	}
	if len(candidates) == 0 {
		return res
	}
	reg := social.NewRegistry(parties)
	valid := make(map[agents.CharacterID]bool, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = true
		res.Tally[c.ID] = 0
	}

	seats := results.SeatTotals()
	for _, pid := range social.SortedPartyIDs(parties) {
		n := seats[pid]
		if n == 0 {
			continue
		}
		choice := blocChoice(reg.Party(pid), candidates, reg)
		res.Breakdown[pid] = choice
		if pid == playerPartyID && valid[playerVote] {
			res.Tally[playerVote]++
			n--
		}
		res.Tally[choice] += n
	}

	ids := make([]agents.CharacterID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	res.WinnerID = ids[0]
	for _, id := range ids[1:] {
		if res.Tally[id] > res.Tally[res.WinnerID] {
			res.WinnerID = id
		}
	}
	return res
}

func blocChoice(p *social.Party, candidates []*agents.Character, reg *social.Registry) agents.CharacterID {
	var best agents.CharacterID
	bestDist := math.Inf(1)
	for _, c := range candidates {
		cp := reg.PartyOfCharacter(c)
		if cp == nil {
			continue
		}
		d := p.Ideology.Distance(cp.Ideology)
		if cp.ID == p.ID {
			d = -1
		}
		if d < bestDist || (d == bestDist && c.ID < best) {
			best, bestDist = c.ID, d
		}
	}
	if best == "" {
		best = candidates[0].ID
	}
	return best
}

// ConfidenceResult is the outcome of a confidence motion.
type ConfidenceResult struct {
	Ayes     int  `json:"ayes"`
	Nays     int  `json:"nays"`
	Survived bool `json:"survived"`
}

// ResolveConfidence applies the survival rule: more ayes than nays.
func ResolveConfidence(ayes, nays int) ConfidenceResult {
	return ConfidenceResult{Ayes: ayes, Nays: nays, Survived: ayes > nays}
}

// ConfidenceVote polls every living MP. Coalition members back the
// government and everyone else opposes it, except the player, who votes
// playerVote when it is Aye or Nay. An abstaining player is not counted.
func ConfidenceVote(gov *social.Government, parties []*social.Party, chars []*agents.Character,
	playerID agents.CharacterID, playerVote Direction) (ConfidenceResult, error) {

	if gov == nil {
		return ConfidenceResult{}, ErrNoGovernment
	}
	reg := social.NewRegistry(parties)
	ayes, nays := 0, 0
	for _, c := range chars {
		if !c.Alive || !c.IsMP {
			continue
		}
		d := Nay
		if p := reg.PartyOfCharacter(c); p != nil && gov.InCoalition(p.ID) {
			d = Aye
		}
		if c.ID == playerID && playerID != "" && playerVote.Valid() {
			d = playerVote
		}
		switch d {
		case Aye:
			ayes++
		case Nay:
			nays++
		}
	}
	return ResolveConfidence(ayes, nays), nil
}
