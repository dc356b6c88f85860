package election

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/influence"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

const (
	// OfficialCandidateWeight multiplies the official candidate's effective
	// influence in election scoring. Seat-level selection and projections
	// use influence.OfficialCandidateMultiplier instead.
	OfficialCandidateWeight = 1.2

	// MinimalPresence is scored by a party with no living politician in the seat.
	MinimalPresence = 5.0

	// MultiEthnicBaseline replaces the demographic bonus for parties without
	// an ethnic focus, and for seats without demographic data.
	MultiEthnicBaseline = 40.0

	// AllianceMultiplier applies to members of any alliance.
	AllianceMultiplier = 1.1

	noiseFloor = 0.8
	noiseSpan  = 0.4

	// TermYears is the interval between general elections.
	TermYears = 4
)

// Input is the world state an election reads. Nothing in it is mutated.
type Input struct {
	Date         time.Time
	Geography    *world.Geography
	Parties      []*social.Party
	Alliances    []*social.Alliance
	Characters   []*agents.Character
	Affiliations social.AffiliationTable
	Strongholds  influence.StrongholdMap
}

// Outcome is everything a general election produces.
type Outcome struct {
	Entry        *HistoryEntry
	NextElection time.Time
}

// NextElectionAfter returns the polling day TermYears calendar years after date.
func NextElectionAfter(date time.Time) time.Time {
	return date.AddDate(TermYears, 0, 0)
}

// Run contests every seat independently and returns the results, the detailed
// vote counts, and the history snapshot. Parties are scored in ID order so a
// seeded source reproduces the same election.
func Run(in Input, rng entropy.Source) (*Outcome, error) {
	reg := social.NewRegistry(in.Parties)
	ctx := influence.Context{Affiliations: in.Affiliations, Strongholds: in.Strongholds, Registry: reg}

	order := make([]*social.Party, len(in.Parties))
	copy(order, in.Parties)
	sort.Slice(order, func(i, j int) bool { return order[i].ID < order[j].ID })

	residents := make(map[string]map[social.PartyID][]*agents.Character)
	for _, c := range in.Characters {
		if !c.Alive {
			continue
		}
		pid, err := reg.Owner(c.AffiliationID)
		if err != nil {
			return nil, &influence.DataConsistencyError{CharacterID: c.ID, AffiliationID: c.AffiliationID, Err: err}
		}
		if residents[c.SeatCode] == nil {
			residents[c.SeatCode] = make(map[social.PartyID][]*agents.Character)
		}
		residents[c.SeatCode][pid] = append(residents[c.SeatCode][pid], c)
	}

	entry := &HistoryEntry{
		Date:           in.Date,
		Results:        make(Results),
		Detailed:       make(Detailed),
		SeatWinners:    make(map[string]SeatWinner),
		SeatCandidates: make(map[string]map[social.PartyID]Candidate),
		TotalSeats:     in.Geography.SeatCount(),
		Parties:        social.CloneParties(in.Parties),
		Alliances:      social.CloneAlliances(in.Alliances),
	}

	for _, seat := range in.Geography.Seats {
		demo := in.Geography.Demographic(seat.Code)
		electorate := demo.Electorate()
		entry.TotalElectorate += electorate

		scores := make([]float64, len(order))
		candidates := make(map[social.PartyID]Candidate)
		for i, p := range order {
			score, best, err := scoreParty(p, seat, demo, residents[seat.Code][p.ID], in.Alliances, ctx, rng)
			if err != nil {
				return nil, fmt.Errorf("seat %s: %w", seat.Code, err)
			}
			scores[i] = score
			if best != nil {
				candidates[p.ID] = Candidate{ID: best.ID, Name: best.Name}
			}
		}

		votes := Apportion(scores, electorate)
		tally := make(map[social.PartyID]int, len(order))
		winner := -1
		for i, p := range order {
			tally[p.ID] = votes[i]
			entry.TotalVotes += votes[i]
			if winner < 0 || votes[i] > votes[winner] {
				winner = i
			}
		}
		entry.Detailed[seat.Code] = tally
		if len(candidates) > 0 {
			entry.SeatCandidates[seat.Code] = candidates
		}
		if winner < 0 || votes[winner] == 0 {
			continue
		}

		pid := order[winner].ID
		entry.Results[seat.Code] = pid
		sw := SeatWinner{PartyID: pid, CandidateName: "Unknown"}
		if c, ok := candidates[pid]; ok {
			sw.CandidateID = c.ID
			sw.CandidateName = c.Name
		}
		entry.SeatWinners[seat.Code] = sw
	}

	slog.Info("general election counted",
		"date", in.Date.Format("2006-01-02"),
		"seats", entry.TotalSeats,
		"decided", len(entry.Results),
		"votes", entry.TotalVotes,
	)

	return &Outcome{Entry: entry, NextElection: NextElectionAfter(in.Date)}, nil
}

// scoreParty computes one party's raw score in a seat and returns its best
// candidate there, if any.
func scoreParty(p *social.Party, seat world.Seat, demo *world.Demographics, locals []*agents.Character,
	alliances []*social.Alliance, ctx influence.Context, rng entropy.Source) (float64, *agents.Character, error) {

	score := p.Unity / 2

	var best *agents.Character
	bestInf := 0.0
	official := p.ContestedSeats[seat.Code]
	for _, c := range locals {
		inf, err := influence.Effective(c, seat, demo, ctx, influence.Candidacy{})
		if err != nil {
			return 0, nil, err
		}
		if official.CandidateID != "" && official.CandidateID == c.ID {
			inf *= OfficialCandidateWeight
		}
		if inf > bestInf || (inf == bestInf && best != nil && c.ID < best.ID) {
			bestInf = inf
			best = c
		}
	}
	if best != nil {
		score += bestInf
	} else {
		score += MinimalPresence
	}

	if demo != nil && p.EthnicityFocus != "" {
		score += demo.Share(p.EthnicityFocus)
	} else {
		score += MultiEthnicBaseline
	}

	if social.AllianceOf(alliances, p.ID) != nil {
		score *= AllianceMultiplier
	}

	score *= noiseFloor + rng.Float64()*noiseSpan
	return score, best, nil
}

// Apportion converts scores into integer vote counts summing exactly to
// electorate, using largest remainders. Remainder ties go to the earlier
// index. A zero total yields zero votes everywhere.
func Apportion(scores []float64, electorate int) []int {
	votes := make([]int, len(scores))
	total := 0.0
	for _, s := range scores {
		if s > 0 {
			total += s
		}
	}
	if total <= 0 || electorate <= 0 {
		return votes
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, 0, len(scores))
	assigned := 0
	for i, s := range scores {
		if s <= 0 {
			continue
		}
		exact := s / total * float64(electorate)
		whole := math.Floor(exact)
		votes[i] = int(whole)
		assigned += votes[i]
		rems = append(rems, rem{idx: i, frac: exact - whole})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; assigned < electorate && len(rems) > 0; k++ {
		votes[rems[k%len(rems)].idx]++
		assigned++
	}
	return votes
}
