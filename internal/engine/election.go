package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/parliament"
)

// RunGeneralElection contests every seat, seats the winners as MPs, forms a
// government, nominates speaker candidates and schedules the next election.
// The loop then waits for the speaker vote.
func (s *Simulation) RunGeneralElection() (*election.HistoryEntry, error) {
	out, err := election.Run(election.Input{
		Date:         s.Date,
		Geography:    s.Geography,
		Parties:      s.Parties,
		Alliances:    s.Alliances,
		Characters:   s.Characters,
		Affiliations: s.Affiliations,
		Strongholds:  s.Strongholds,
	}, s.elections)
	if err != nil {
		return nil, fmt.Errorf("general election: %w", err)
	}
	entry := out.Entry
	s.Results = entry.Results.Clone()
	s.History = append(s.History, entry)
	s.NextElection = out.NextElection
	s.touch()

	winners := make(map[agents.CharacterID]bool, len(entry.SeatWinners))
	for _, w := range entry.SeatWinners {
		if w.CandidateID != "" {
			winners[w.CandidateID] = true
		}
	}
	for _, c := range s.Characters {
		c.IsMP = c.Alive && winners[c.ID]
		if c.IsMP {
			c.Record(s.Date, fmt.Sprintf("Elected member for %s.", c.SeatCode))
		}
	}

	form := parliament.FormGovernment(s.Date, s.Results, s.Geography.SeatCount(), s.Parties, s.Alliances, s.Characters)
	s.Characters = form.Characters
	s.Government = form.Government

	cands := parliament.SpeakerCandidates(s.Results, s.Parties, s.Government, s.Characters)
	s.SpeakerCandidates = nil
	for _, c := range cands {
		s.SpeakerCandidates = append(s.SpeakerCandidates, c.ID)
	}
	s.Speaker = ""
	s.SpeakerResult = nil

	// Incumbency shifts strongholds, and parties pick candidates for the
	// next contest with sitting members favoured.
	s.rebuildStrongholds()
	if parties, err := lifecycle.AllocateSeats(s.Geography, s.Parties, s.Characters, s.influenceContext(), s.Geography.SeatCodes()); err == nil {
		s.Parties = parties
	} else {
		slog.Warn("candidate reselection failed", "error", err)
	}

	s.record(LogElection, "General Election",
		fmt.Sprintf("The %d General Election has concluded. %s votes were cast across %d seats.",
			s.Date.Year(), humanize.Comma(int64(entry.TotalVotes)), entry.TotalSeats))
	if s.Government == nil {
		s.record(LogPolitics, "Hung Parliament", "No coalition commands a majority. The country has no government.")
	}
	s.Metrics.election()

	if len(s.SpeakerCandidates) > 0 {
		s.Phase = PhaseSpeakerElection
	} else {
		s.Phase = PhasePaused
	}
	slog.Info("election handled",
		"date", s.Date.Format(time.DateOnly),
		"government", s.Government != nil,
		"speaker_candidates", len(s.SpeakerCandidates),
		"next", s.NextElection.Format(time.DateOnly),
	)
	return entry, nil
}

// ElectSpeaker runs the speaker vote among the nominated candidates. The
// player's ballot is cast for playerVote when it names a candidate.
func (s *Simulation) ElectSpeaker(playerVote agents.CharacterID) (*parliament.SpeakerResult, error) {
	if s.Phase != PhaseSpeakerElection {
		return nil, ErrNotAwaiting
	}
	var cands []*agents.Character
	for _, id := range s.SpeakerCandidates {
		if c := s.Character(id); c != nil && c.Alive {
			cands = append(cands, c)
		}
	}
	res := parliament.SpeakerVote(s.Results, s.Parties, cands, s.playerPartyID(), playerVote)
	s.SpeakerResult = &res
	s.Speaker = res.WinnerID
	s.Phase = PhasePaused
	s.touch()

	if c := s.Character(res.WinnerID); c != nil {
		c.Record(s.Date, "Elected Speaker of the Dewan Rakyat.")
		s.record(LogPolitics, "Speaker Elected",
			fmt.Sprintf("%s has been elected Speaker with %d votes.", c.Name, res.Tally[c.ID]))
	}
	return &res, nil
}
