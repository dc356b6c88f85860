package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/parliament"
)

// AcknowledgeEvent applies the pending event's effects, logs it and restarts
// the clock.
func (s *Simulation) AcknowledgeEvent() error {
	if s.Phase != PhaseEvent || s.PendingEvent == nil {
		return ErrNotAwaiting
	}
	e := s.PendingEvent
	s.Characters, s.Parties = events.Apply(e, s.eventState())
	typ := LogPolitics
	if e.Kind.Major() {
		typ = LogMajorEvent
	}
	s.record(typ, e.Title, e.Description)
	s.PendingEvent = nil
	s.Phase = PhaseRunning
	s.touch()
	return nil
}

// CallConfidenceVote puts the government to a confidence motion. The player
// votes playerVote; a lost motion dissolves the government.
func (s *Simulation) CallConfidenceVote(playerVote parliament.Direction) (parliament.ConfidenceResult, error) {
	res, err := parliament.ConfidenceVote(s.Government, s.Parties, s.Characters, s.PlayerID, playerVote)
	if err != nil {
		return res, err
	}
	s.touch()
	if res.Survived {
		s.record(LogPolitics, "Vote of Confidence",
			fmt.Sprintf("The government survives the motion by %d votes to %d.", res.Ayes, res.Nays))
		return res, nil
	}
	s.Government = nil
	s.record(LogMajorEvent, "Government Collapse",
		fmt.Sprintf("The government loses the confidence of the house by %d votes to %d.", res.Nays, res.Ayes))
	s.Metrics.collapse()
	slog.Warn("government collapsed", "date", s.Date.Format(time.DateOnly), "cause", "confidence", "ayes", res.Ayes, "nays", res.Nays)
	return res, nil
}

// ProposeBill tables a catalogue bill in the player's party's name and
// holds the clock until the player votes.
func (s *Simulation) ProposeBill(id string) (*parliament.Bill, error) {
	if s.Phase != PhaseRunning && s.Phase != PhasePaused {
		return nil, ErrNotAwaiting
	}
	bill, ok := parliament.LookupBill(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBill, id)
	}
	p := s.PlayerParty()
	if p == nil {
		return nil, ErrNoPlayer
	}
	bill.ProposingPartyID = p.ID
	s.Bill = &bill
	s.BillResult = nil
	s.Phase = PhaseBillVote
	s.touch()
	return s.Bill, nil
}

// VoteOnBill holds the division on the tabled bill.
func (s *Simulation) VoteOnBill(playerVote parliament.Direction) (*parliament.BillResult, error) {
	if s.Phase != PhaseBillVote || s.Bill == nil {
		return nil, ErrNoBill
	}
	res := parliament.BillVote(*s.Bill, s.Parties, s.Characters, s.PlayerID, playerVote)
	s.BillResult = &res
	s.Phase = PhasePaused
	s.touch()
	if res.Passed {
		s.record(LogPolitics, "Bill Passed",
			fmt.Sprintf("The %s passes with %d ayes to %d nays.", res.Bill.Title, res.Tally.Aye, res.Tally.Nay))
	} else {
		s.record(LogPolitics, "Bill Defeated",
			fmt.Sprintf("The %s is defeated: %d ayes, %d nays, %d needed.", res.Bill.Title, res.Tally.Aye, res.Tally.Nay, res.Threshold))
	}
	return &res, nil
}

// SecurityCrackdown has the government move against the opposition. Only a
// player whose party sits in government may order it; the resulting event
// holds the clock until acknowledged.
func (s *Simulation) SecurityCrackdown() (*parliament.CrackdownResult, error) {
	if s.Phase != PhaseRunning && s.Phase != PhasePaused {
		return nil, ErrNotAwaiting
	}
	if s.Government == nil {
		return nil, ErrNoGovernment
	}
	p := s.PlayerParty()
	if p == nil {
		return nil, ErrNoPlayer
	}
	if !s.Government.InCoalition(p.ID) {
		return nil, ErrNotInGovernment
	}
	res, err := parliament.SecurityCrackdown(s.Date, s.Government, s.Characters, s.Parties)
	if err != nil {
		return nil, err
	}
	s.Characters, s.Parties = res.Characters, res.Parties
	s.PendingEvent = res.Event
	s.Phase = PhaseEvent
	s.touch()
	s.Metrics.event(string(res.Event.Kind))
	slog.Info("security crackdown", "date", s.Date.Format(time.DateOnly), "detained", len(res.Detained))
	return res, nil
}
