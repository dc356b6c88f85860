package engine

import (
	"errors"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/influence"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/parliament"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// Phase is the loop's state. Days advance only in PhaseRunning.
type Phase string

const (
	PhaseRunning         Phase = "running"
	PhasePaused          Phase = "paused"
	PhaseEvent           Phase = "awaiting_event"   // A world event awaits acknowledgement
	PhaseSpeakerElection Phase = "awaiting_speaker" // An election awaits the speaker vote
	PhaseBillVote        Phase = "awaiting_bill_vote"
)

var (
	ErrNotRunning      = errors.New("simulation is not running")
	ErrNotAwaiting     = errors.New("nothing is awaiting that input")
	ErrNoPlayer        = errors.New("no living player character")
	ErrNoGovernment    = parliament.ErrNoGovernment
	ErrNotInGovernment = errors.New("player's party is not in government")
	ErrNoBill          = errors.New("no bill before the house")
	ErrUnknownBill     = errors.New("unknown bill")
	ErrUnknownParty    = lifecycle.ErrUnknownParty
)

// Random streams, one per concern so that adding draws to one system does
// not reshuffle another.
const (
	streamMortality int64 = iota + 1
	streamAI
	streamEvents
	streamElections
	streamConsent
	streamIDs
)

// Simulation is the complete political world and the only place its state
// is committed. Every step and player action runs to completion before the
// next begins; the Engine serialises callers.
type Simulation struct {
	Seed         int64
	Date         time.Time
	NextElection time.Time
	Phase        Phase

	Geography    *world.Geography
	Affiliations social.AffiliationTable

	Characters  []*agents.Character
	Parties     []*social.Party
	Alliances   []*social.Alliance
	Government  *social.Government
	Results     election.Results
	History     election.History
	Strongholds influence.StrongholdMap

	Speaker           agents.CharacterID
	SpeakerCandidates []agents.CharacterID
	SpeakerResult     *parliament.SpeakerResult
	Bill              *parliament.Bill
	BillResult        *parliament.BillResult
	PendingEvent      *events.Event

	Log      []LogEntry
	PlayerID agents.CharacterID

	// Generation increases with every committed change.
	Generation uint64

	Metrics *Metrics

	spawner   *agents.Spawner
	mortality entropy.Source
	ai        entropy.Source
	eventRNG  entropy.Source
	elections entropy.Source
	consent   entropy.Source
	ids       entropy.Source
}

// seedStreams (re)initialises the random streams. offset distinguishes a
// restored run from a fresh one with the same seed.
func (s *Simulation) seedStreams(offset int64) {
	base := s.Seed + offset
	s.mortality = entropy.Derive(base, streamMortality)
	s.ai = entropy.Derive(base, streamAI)
	s.eventRNG = entropy.Derive(base, streamEvents)
	s.elections = entropy.Derive(base, streamElections)
	s.consent = entropy.Derive(base, streamConsent)
	s.ids = entropy.Derive(base, streamIDs)
	s.spawner = agents.NewSpawner(base)
}

func (s *Simulation) touch() {
	s.Generation++
}

// Registry indexes current party ownership.
func (s *Simulation) Registry() *social.Registry {
	return social.NewRegistry(s.Parties)
}

// Character looks up a character by ID.
func (s *Simulation) Character(id agents.CharacterID) *agents.Character {
	for _, c := range s.Characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Party looks up a party by ID.
func (s *Simulation) Party(id social.PartyID) *social.Party {
	for _, p := range s.Parties {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Player returns the living player character, or nil.
func (s *Simulation) Player() *agents.Character {
	if s.PlayerID == "" {
		return nil
	}
	if c := s.Character(s.PlayerID); c != nil && c.Alive {
		return c
	}
	return nil
}

// PlayerParty returns the player's party, or nil.
func (s *Simulation) PlayerParty() *social.Party {
	p := s.Player()
	if p == nil {
		return nil
	}
	return s.Registry().PartyOfCharacter(p)
}

// Living counts living characters.
func (s *Simulation) Living() int {
	n := 0
	for _, c := range s.Characters {
		if c.Alive {
			n++
		}
	}
	return n
}

// MPs returns the living members of parliament.
func (s *Simulation) MPs() []*agents.Character {
	var out []*agents.Character
	for _, c := range s.Characters {
		if c.Alive && c.IsMP {
			out = append(out, c)
		}
	}
	return out
}

// Pause stops the clock.
func (s *Simulation) Pause() {
	if s.Phase == PhaseRunning {
		s.Phase = PhasePaused
		s.touch()
	}
}

// Resume restarts the clock. It fails while an event or vote awaits input.
func (s *Simulation) Resume() error {
	switch s.Phase {
	case PhaseRunning:
		return nil
	case PhasePaused:
		s.Phase = PhaseRunning
		s.touch()
		return nil
	}
	return ErrNotAwaiting
}

// AutoResolve settles whatever the loop is waiting for the way an absent
// player would, then restarts the clock. A tabled bill gets the party line.
func (s *Simulation) AutoResolve() error {
	switch s.Phase {
	case PhaseEvent:
		return s.AcknowledgeEvent()
	case PhaseSpeakerElection:
		if _, err := s.ElectSpeaker(""); err != nil {
			return err
		}
		return s.Resume()
	case PhaseBillVote:
		vote := parliament.Abstain
		if s.Bill != nil {
			vote = parliament.AIBillVote(s.PlayerParty(), *s.Bill)
		}
		if _, err := s.VoteOnBill(vote); err != nil {
			return err
		}
		return s.Resume()
	case PhasePaused:
		return s.Resume()
	}
	return nil
}

// ProjectedControl returns the party projected to hold each seat.
func (s *Simulation) ProjectedControl() (map[string]social.PartyID, error) {
	return influence.ProjectedControl(s.Geography, s.Characters, s.influenceContext())
}

func (s *Simulation) influenceContext() influence.Context {
	return influence.Context{Affiliations: s.Affiliations, Strongholds: s.Strongholds, Registry: s.Registry()}
}

func (s *Simulation) rebuildStrongholds() {
	s.Strongholds = influence.BuildStrongholds(influence.StrongholdInput{
		Geography:  s.Geography,
		Characters: s.Characters,
		Registry:   s.Registry(),
		Results:    s.Results,
	})
}

func (s *Simulation) eventState() events.State {
	return events.State{
		Geography:    s.Geography,
		Characters:   s.Characters,
		Parties:      s.Parties,
		Government:   s.Government,
		Affiliations: s.Affiliations,
	}
}

func (s *Simulation) playerPartyID() social.PartyID {
	if p := s.PlayerParty(); p != nil {
		return p.ID
	}
	return ""
}
