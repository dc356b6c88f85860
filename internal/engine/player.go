package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/social"
)

// Action is a personal move the player can make between ticks.
type Action string

const (
	ActionPromoteParty     Action = "promote_party"
	ActionAddressLocal     Action = "address_local"
	ActionStrengthenBranch Action = "strengthen_branch"
	ActionStateRally       Action = "state_rally"
	ActionUndermineRival   Action = "undermine_rival"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrOwnParty      = errors.New("cannot undermine your own party")
)

// rivalUnityDamage is what undermining costs the rival party.
const rivalUnityDamage = 2.0

type personalEffect struct {
	influence, recognition float64
	title, text            string
}

var personalEffects = map[Action]personalEffect{
	ActionPromoteParty:     {5, 2, "Party Promotion", "You toured %s promoting the party."},
	ActionAddressLocal:     {8, 4, "Local Concerns", "You addressed the concerns of voters in %s."},
	ActionStrengthenBranch: {5, 0, "Branch Work", "You strengthened the party branch in %s."},
	ActionStateRally:       {10, 5, "State Rally", "You led a rally across %s."},
}

// PerformAction applies a personal action for the player. target names the
// rival party for ActionUndermineRival and is ignored otherwise.
func (s *Simulation) PerformAction(a Action, target social.PartyID) error {
	player := s.Player()
	if player == nil {
		return ErrNoPlayer
	}
	if a == ActionUndermineRival {
		rival := s.Party(target)
		if rival == nil {
			return fmt.Errorf("%w: %q", ErrUnknownParty, target)
		}
		if own := s.PlayerParty(); own != nil && own.ID == rival.ID {
			return ErrOwnParty
		}
		rival.AdjustUnity(-rivalUnityDamage)
		s.record(LogPersonal, "Undermining a Rival", fmt.Sprintf("You sowed discord within %s.", rival.Name))
		s.touch()
		return nil
	}

	eff, ok := personalEffects[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	where := player.SeatCode
	if a == ActionPromoteParty || a == ActionStateRally {
		where = player.Region
	}
	player.AdjustTraits(0, eff.influence, eff.recognition)
	text := fmt.Sprintf(eff.text, where)
	player.Record(s.Date, text)
	s.record(LogPersonal, eff.title, text)
	s.touch()
	return nil
}

// MoveSeat relocates the player to another seat. Candidacies in the old seat
// are reallocated among those still living there.
func (s *Simulation) MoveSeat(code string) error {
	player := s.Player()
	if player == nil {
		return ErrNoPlayer
	}
	seat, ok := s.Geography.Seat(code)
	if !ok {
		return fmt.Errorf("seat %q not found", code)
	}
	if seat.Code == player.SeatCode {
		return nil
	}
	from := player.SeatCode
	player.SeatCode = seat.Code
	player.Region = seat.Region
	parties, err := lifecycle.AllocateSeats(s.Geography, s.Parties, s.Characters, s.influenceContext(), []string{from})
	if err != nil {
		return err
	}
	s.Parties = parties
	text := fmt.Sprintf("Moved from %s to %s.", from, seat.Code)
	player.Record(s.Date, text)
	s.record(LogPersonal, "New Constituency", text)
	s.touch()
	return nil
}
