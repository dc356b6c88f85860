package engine

import (
	"fmt"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// State is the durable part of a simulation. Random streams, tabled bills and
// the last vote outcomes are not kept.
type State struct {
	Seed              int64
	Date              time.Time
	NextElection      time.Time
	Phase             Phase
	Characters        []*agents.Character
	Parties           []*social.Party
	Alliances         []*social.Alliance
	Government        *social.Government
	Results           election.Results
	History           election.History
	Speaker           agents.CharacterID
	SpeakerCandidates []agents.CharacterID
	PendingEvent      *events.Event
	Log               []LogEntry
	PlayerID          agents.CharacterID
	Generation        uint64
}

// Snapshot returns the durable state. The slices are shared with the
// simulation; take it under the engine lock.
func (s *Simulation) Snapshot() *State {
	return &State{
		Seed:              s.Seed,
		Date:              s.Date,
		NextElection:      s.NextElection,
		Phase:             s.Phase,
		Characters:        s.Characters,
		Parties:           s.Parties,
		Alliances:         s.Alliances,
		Government:        s.Government,
		Results:           s.Results,
		History:           s.History,
		Speaker:           s.Speaker,
		SpeakerCandidates: s.SpeakerCandidates,
		PendingEvent:      s.PendingEvent,
		Log:               s.Log,
		PlayerID:          s.PlayerID,
		Generation:        s.Generation,
	}
}

// Restore rebuilds a simulation from saved state. Random streams are reseeded
// from the seed and the saved date, so a restored run diverges from an
// uninterrupted one but stays reproducible.
func Restore(st *State, geo *world.Geography, table social.AffiliationTable) (*Simulation, error) {
	if err := social.NewRegistry(st.Parties).Validate(table); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	s := &Simulation{
		Seed:              st.Seed,
		Date:              st.Date,
		NextElection:      st.NextElection,
		Phase:             st.Phase,
		Geography:         geo,
		Affiliations:      table,
		Characters:        st.Characters,
		Parties:           st.Parties,
		Alliances:         st.Alliances,
		Government:        st.Government,
		Results:           st.Results,
		History:           st.History,
		Speaker:           st.Speaker,
		SpeakerCandidates: st.SpeakerCandidates,
		PendingEvent:      st.PendingEvent,
		Log:               st.Log,
		PlayerID:          st.PlayerID,
		Generation:        st.Generation,
	}
	if s.Results == nil {
		s.Results = make(election.Results)
	}
	switch s.Phase {
	case PhaseRunning, PhasePaused, PhaseSpeakerElection:
	case PhaseEvent:
		if s.PendingEvent == nil {
			s.Phase = PhasePaused
		}
	default:
		s.Phase = PhasePaused
	}
	s.seedStreams(s.Date.Unix() / 86400)
	s.rebuildStrongholds()
	return s, nil
}
