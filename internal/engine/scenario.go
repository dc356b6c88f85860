package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/influence"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

var (
	DefaultStart         = time.Date(1958, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultFirstElection = time.Date(1959, time.August, 19, 0, 0, 0, 0, time.UTC)
)

// PlayerSpec places the player's character. An empty SeatCode picks the
// first seat where the affiliation's community is present.
type PlayerSpec struct {
	Name          string
	AffiliationID agents.AffiliationID
	SeatCode      string
}

// Scenario is everything needed to start a new game.
type Scenario struct {
	Seed          int64
	Start         time.Time
	FirstElection time.Time
	Geography     *world.Geography
	Affiliations  social.AffiliationTable
	Parties       []*social.Party
	Alliances     []*social.Alliance
	Player        *PlayerSpec
}

// DefaultScenario returns the federation scenario on geo.
func DefaultScenario(seed int64, geo *world.Geography) Scenario {
	return Scenario{
		Seed:          seed,
		Start:         DefaultStart,
		FirstElection: DefaultFirstElection,
		Geography:     geo,
		Affiliations:  social.SeedAffiliations(),
		Parties:       social.SeedParties(),
		Alliances:     social.SeedAlliances(),
	}
}

// New populates the world, appoints party leadership, allocates official
// candidates and computes the initial strongholds.
func New(sc Scenario) (*Simulation, error) {
	if sc.Geography == nil || sc.Geography.SeatCount() == 0 {
		return nil, fmt.Errorf("scenario has no seats")
	}
	parties := social.CloneParties(sc.Parties)
	if err := social.NewRegistry(parties).Validate(sc.Affiliations); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	s := &Simulation{
		Seed:         sc.Seed,
		Date:         sc.Start,
		NextElection: sc.FirstElection,
		Phase:        PhasePaused,
		Geography:    sc.Geography,
		Affiliations: sc.Affiliations,
		Parties:      parties,
		Alliances:    social.CloneAlliances(sc.Alliances),
		Results:      make(election.Results),
	}
	s.seedStreams(0)

	s.Characters = s.spawner.Populate(sc.Geography, social.Foundings(sc.Affiliations), sc.Start)
	if sc.Player != nil {
		p, err := s.newPlayer(*sc.Player)
		if err != nil {
			return nil, err
		}
		s.Characters = append(s.Characters, p)
		s.PlayerID = p.ID
	}

	social.AppointLeadership(s.Parties, s.Characters, sc.Geography.Regions())
	s.rebuildStrongholds()
	allocated, err := lifecycle.AllocateSeats(sc.Geography, s.Parties, s.Characters, s.influenceContext(), sc.Geography.SeatCodes())
	if err != nil {
		return nil, fmt.Errorf("allocate seats: %w", err)
	}
	s.Parties = allocated

	s.record(LogEvent, "A New Federation",
		fmt.Sprintf("%s voters across %d seats will go to the polls on %s.",
			humanize.Comma(int64(sc.Geography.TotalElectorate())), sc.Geography.SeatCount(),
			sc.FirstElection.Format("2 January 2006")))
	slog.Info("world created",
		"seed", sc.Seed,
		"seats", sc.Geography.SeatCount(),
		"characters", len(s.Characters),
		"parties", len(s.Parties),
	)
	return s, nil
}

func (s *Simulation) newPlayer(spec PlayerSpec) (*agents.Character, error) {
	aff := s.Affiliations[spec.AffiliationID]
	if aff == nil {
		return nil, fmt.Errorf("player affiliation %q: %w", spec.AffiliationID, influence.ErrUnknownAffiliation)
	}
	code := spec.SeatCode
	if code == "" {
		for _, c := range s.Geography.SeatCodes() {
			if s.Geography.Demographic(c).Share(aff.Ethnicity) >= agents.MinPresencePercent {
				code = c
				break
			}
		}
	}
	seat, ok := s.Geography.Seat(code)
	if !ok {
		return nil, fmt.Errorf("player seat %q not found", code)
	}
	name := spec.Name
	if name == "" {
		name = "Player"
	}
	f := agents.Founding{AffiliationID: aff.ID, Ethnicity: aff.Ethnicity, Ideology: aff.BaseIdeology}
	return s.spawner.NewPlayer(name, f, seat, s.Date), nil
}
