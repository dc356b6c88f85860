// Package election runs general elections: seat-by-seat scoring, vote
// apportionment, and the history snapshots kept for every election.
package election

import (
	"sort"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
)

// Results maps seat code → winning party.
type Results map[string]social.PartyID

// Clone returns a copy.
func (r Results) Clone() Results {
	out := make(Results, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SeatTotals counts seats won per party.
func (r Results) SeatTotals() map[social.PartyID]int {
	out := make(map[social.PartyID]int)
	for _, pid := range r {
		out[pid]++
	}
	return out
}

// Remap moves every seat held by a party in from to the party in to.
// Used after lifecycle operations retire party IDs.
func (r Results) Remap(from map[social.PartyID]social.PartyID) Results {
	out := make(Results, len(r))
	for seat, pid := range r {
		if to, ok := from[pid]; ok {
			pid = to
		}
		out[seat] = pid
	}
	return out
}

// Detailed maps seat code → party → votes.
type Detailed map[string]map[social.PartyID]int

// Candidate is the best-placed politician a party fielded in a seat.
type Candidate struct {
	ID   agents.CharacterID `json:"id"`
	Name string             `json:"name"`
}

// SeatWinner is the winning party and its candidate, if it fielded one.
type SeatWinner struct {
	PartyID       social.PartyID     `json:"party_id"`
	CandidateID   agents.CharacterID `json:"candidate_id,omitempty"`
	CandidateName string             `json:"candidate_name"`
}

// HistoryEntry is an immutable record of one general election. Parties and
// alliances are deep copies taken on polling day.
type HistoryEntry struct {
	Date            time.Time                               `json:"date"`
	Results         Results                                 `json:"results"`
	Detailed        Detailed                                `json:"detailed"`
	SeatWinners     map[string]SeatWinner                   `json:"seat_winners"`
	SeatCandidates  map[string]map[social.PartyID]Candidate `json:"seat_candidates"`
	TotalElectorate int                                     `json:"total_electorate"`
	TotalVotes      int                                     `json:"total_votes"`
	TotalSeats      int                                     `json:"total_seats"`
	Parties         []*social.Party                         `json:"parties"`
	Alliances       []*social.Alliance                      `json:"alliances"`
}

// PopularVote sums votes per party across all seats.
func (h *HistoryEntry) PopularVote() map[social.PartyID]int {
	out := make(map[social.PartyID]int)
	for _, votes := range h.Detailed {
		for pid, n := range votes {
			out[pid] += n
		}
	}
	return out
}

// History is the chronological list of past elections.
type History []*HistoryEntry

// Latest returns the most recent entry, or nil.
func (h History) Latest() *HistoryEntry {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

// Previous returns the entry before the latest, or nil.
func (h History) Previous() *HistoryEntry {
	if len(h) < 2 {
		return nil
	}
	return h[len(h)-2]
}

// SeatSwings lists seats whose winner changed between the previous and the
// latest election, sorted by code.
func (h History) SeatSwings() []string {
	prev, last := h.Previous(), h.Latest()
	if prev == nil || last == nil {
		return nil
	}
	var out []string
	for seat, pid := range last.Results {
		if prev.Results[seat] != pid {
			out = append(out, seat)
		}
	}
	sort.Strings(out)
	return out
}
