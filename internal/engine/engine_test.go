package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/parliament"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// fixed is a random source that always draws the same value.
type fixed float64

func (f fixed) Float64() float64 { return float64(f) }
func (f fixed) Intn(n int) int   { return int(float64(f) * float64(n)) }
func (f fixed) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(float64(f) * 255)
	}
	return len(p), nil
}

const (
	always = fixed(0)
	never  = fixed(0.999)
)

func newTestSim(t *testing.T, seed int64) *Simulation {
	t.Helper()
	sc := DefaultScenario(seed, world.Generate(world.SmallTestConfig()))
	sc.Player = &PlayerSpec{Name: "Tester", AffiliationID: "umno"}
	s, err := New(sc)
	require.NoError(t, err)
	return s
}

// quiet stops random deaths and events so tests control what happens.
func quiet(s *Simulation) {
	s.mortality = never
	s.eventRNG = never
}

func countLog(s *Simulation, title string) int {
	n := 0
	for _, e := range s.Log {
		if e.Title == title {
			n++
		}
	}
	return n
}

func TestNewWorldIsConsistent(t *testing.T) {
	s := newTestSim(t, 1)

	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, DefaultStart, s.Date)
	assert.Equal(t, DefaultFirstElection, s.NextElection)
	require.NoError(t, lifecycle.Check(s.Parties, s.Affiliations))

	living := agents.LivingIDs(s.Characters)
	for _, p := range s.Parties {
		for code, cs := range p.ContestedSeats {
			assert.True(t, living[cs.CandidateID], "%s candidate in %s", p.ID, code)
		}
	}
	player := s.Player()
	require.NotNil(t, player)
	assert.True(t, player.IsPlayer)
	assert.Equal(t, social.PartyID("umno"), s.PlayerParty().ID)
	assert.Equal(t, 1, countLog(s, "A New Federation"))
}

func TestAdvanceDayRequiresRunning(t *testing.T) {
	s := newTestSim(t, 1)
	_, err := s.AdvanceDay()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.Resume())
	quiet(s)
	r, err := s.AdvanceDay()
	require.NoError(t, err)
	assert.Equal(t, DefaultStart.AddDate(0, 0, 1), r.Date)
	assert.Equal(t, r.Date, s.Date)
}

func TestMonthlyEventPausesBeforeAnythingElse(t *testing.T) {
	s := newTestSim(t, 2)
	require.NoError(t, s.Resume())
	s.Date = time.Date(1958, time.January, 31, 0, 0, 0, 0, time.UTC)
	s.eventRNG = always
	s.mortality = always
	living := s.Living()

	r, err := s.AdvanceDay()
	require.NoError(t, err)
	require.NotNil(t, r.Event)
	assert.Equal(t, 1, s.Date.Day())
	assert.Equal(t, PhaseEvent, s.Phase)
	assert.Same(t, r.Event, s.PendingEvent)
	assert.Equal(t, living, s.Living(), "nobody dies on an interrupted tick")

	_, err = s.AdvanceDay()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.AcknowledgeEvent())
	assert.Equal(t, PhaseRunning, s.Phase)
	assert.Nil(t, s.PendingEvent)
	last := s.Log[len(s.Log)-1]
	assert.Equal(t, r.Event.Title, last.Title)
	if r.Event.Kind.Major() {
		assert.Equal(t, LogMajorEvent, last.Type)
	} else {
		assert.Equal(t, LogPolitics, last.Type)
	}
	assert.ErrorIs(t, s.AcknowledgeEvent(), ErrNotAwaiting)
}

func TestDeathsSpawnSuccessorsAndCollapseGovernment(t *testing.T) {
	s := newTestSim(t, 3)
	require.NoError(t, s.Resume())
	quiet(s)
	s.Date = time.Date(1958, time.March, 10, 0, 0, 0, 0, time.UTC)

	chief := s.Parties[0].LeaderID
	require.NotEmpty(t, chief)
	s.Government = &social.Government{ChiefExecutiveID: chief, CoalitionPartyIDs: []social.PartyID{s.Parties[0].ID}}
	oldPlayer := s.PlayerID
	before := len(s.Characters)
	living := s.Living()

	s.mortality = always
	r, err := s.AdvanceDay()
	require.NoError(t, err)

	assert.Len(t, r.Deaths, living)
	assert.Len(t, r.Successors, living)
	assert.Len(t, s.Characters, before+living)
	assert.Equal(t, living, s.Living())
	assert.Equal(t, living, countLog(s, "Obituary")+countLog(s, "Your Character Has Died"))

	for i, id := range r.Successors {
		succ := s.Character(id)
		dead := s.Character(r.Deaths[i])
		require.NotNil(t, succ)
		assert.Equal(t, dead.SeatCode, succ.SeatCode)
		assert.Equal(t, dead.AffiliationID, succ.AffiliationID)
		assert.False(t, succ.IsMP)
		age := succ.Age(s.Date)
		assert.GreaterOrEqual(t, age, agents.SuccessorMinAge)
		assert.Less(t, age, agents.SuccessorMaxAge)
	}

	assert.True(t, r.Collapsed)
	assert.Nil(t, s.Government)
	assert.Equal(t, 1, countLog(s, "Government Crisis"))

	assert.NotEqual(t, oldPlayer, s.PlayerID)
	require.NotNil(t, s.Player(), "the player's successor takes over")

	living2 := agents.LivingIDs(s.Characters)
	for _, p := range s.Parties {
		if p.LeaderID != "" {
			assert.True(t, living2[p.LeaderID])
		}
		for _, cs := range p.ContestedSeats {
			assert.True(t, living2[cs.CandidateID])
		}
	}
}

func TestElectionDayRunsElectionAndAwaitsSpeaker(t *testing.T) {
	s := newTestSim(t, 4)
	require.NoError(t, s.Resume())
	quiet(s)
	s.Date = s.NextElection.AddDate(0, 0, -1)

	r, err := s.AdvanceDay()
	require.NoError(t, err)
	assert.True(t, r.Election)
	require.Len(t, s.History, 1)
	entry := s.History.Latest()
	assert.Equal(t, DefaultFirstElection, entry.Date)
	assert.Equal(t, DefaultFirstElection.AddDate(4, 0, 0), s.NextElection)
	assert.Equal(t, entry.Results, s.Results)

	mps := 0
	for _, c := range s.Characters {
		if c.IsMP {
			mps++
			w := entry.SeatWinners[c.SeatCode]
			assert.Equal(t, c.ID, w.CandidateID)
		}
	}
	winners := 0
	for _, w := range entry.SeatWinners {
		if w.CandidateID != "" {
			winners++
		}
	}
	assert.Equal(t, winners, mps)
	assert.Equal(t, 1, countLog(s, "General Election"))

	if len(s.SpeakerCandidates) == 0 {
		assert.Equal(t, PhasePaused, s.Phase)
		return
	}
	assert.Equal(t, PhaseSpeakerElection, s.Phase)
	res, err := s.ElectSpeaker("")
	require.NoError(t, err)
	assert.Equal(t, res.WinnerID, s.Speaker)
	assert.Contains(t, s.SpeakerCandidates, s.Speaker)
	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, 1, countLog(s, "Speaker Elected"))

	_, err = s.ElectSpeaker("")
	assert.ErrorIs(t, err, ErrNotAwaiting)
}

func TestConfidenceVote(t *testing.T) {
	s := newTestSim(t, 5)
	quiet(s)
	_, err := s.CallConfidenceVote(parliament.Aye)
	assert.ErrorIs(t, err, ErrNoGovernment)

	mps := 0
	for _, c := range s.Characters {
		if c.Alive && c.AffiliationID != "" {
			c.IsMP = true
			mps++
		}
	}
	all := social.SortedPartyIDs(s.Parties)
	s.Government = &social.Government{ChiefExecutiveID: s.PlayerID, CoalitionPartyIDs: all}
	res, err := s.CallConfidenceVote(parliament.Aye)
	require.NoError(t, err)
	assert.True(t, res.Survived)
	assert.Equal(t, mps, res.Ayes)
	assert.NotNil(t, s.Government)

	s.Government = &social.Government{ChiefExecutiveID: s.PlayerID}
	res, err = s.CallConfidenceVote(parliament.Nay)
	require.NoError(t, err)
	assert.False(t, res.Survived)
	assert.Nil(t, s.Government)
	assert.Equal(t, 1, countLog(s, "Government Collapse"))
}

func TestBillFlow(t *testing.T) {
	s := newTestSim(t, 6)
	for _, c := range s.Characters {
		c.IsMP = c.Alive
	}
	_, err := s.ProposeBill("no-such-bill")
	assert.ErrorIs(t, err, ErrUnknownBill)
	_, err = s.VoteOnBill(parliament.Aye)
	assert.ErrorIs(t, err, ErrNoBill)

	bill, err := s.ProposeBill("land-reform")
	require.NoError(t, err)
	assert.Equal(t, social.PartyID("umno"), bill.ProposingPartyID)
	assert.Equal(t, PhaseBillVote, s.Phase)
	assert.ErrorIs(t, s.Resume(), ErrNotAwaiting)

	res, err := s.VoteOnBill(parliament.Aye)
	require.NoError(t, err)
	assert.Equal(t, s.Living(), res.Tally.Total())
	assert.Equal(t, parliament.PassThreshold(res.Tally.Total(), bill.Constitutional), res.Threshold)
	assert.Same(t, res, s.BillResult)
	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, 1, countLog(s, "Bill Passed")+countLog(s, "Bill Defeated"))
}

func TestSecurityCrackdown(t *testing.T) {
	s := newTestSim(t, 7)
	_, err := s.SecurityCrackdown()
	assert.ErrorIs(t, err, ErrNoGovernment)

	s.Government = &social.Government{ChiefExecutiveID: s.PlayerID, CoalitionPartyIDs: []social.PartyID{"mca"}}
	_, err = s.SecurityCrackdown()
	assert.ErrorIs(t, err, ErrNotInGovernment)

	s.Government.CoalitionPartyIDs = []social.PartyID{"umno"}
	res, err := s.SecurityCrackdown()
	require.NoError(t, err)
	assert.Equal(t, PhaseEvent, s.Phase)
	require.NotNil(t, s.PendingEvent)
	assert.Equal(t, events.KindCrackdownBacklash, s.PendingEvent.Kind)
	assert.Equal(t, res.Characters, s.Characters)

	require.NoError(t, s.AcknowledgeEvent())
	assert.Equal(t, LogMajorEvent, s.Log[len(s.Log)-1].Type)
}

func TestPersonalActions(t *testing.T) {
	s := newTestSim(t, 8)
	p := s.Player()
	inf, rec := p.Influence, p.Recognition

	require.NoError(t, s.PerformAction(ActionAddressLocal, ""))
	assert.Equal(t, min(100, inf+8), p.Influence)
	assert.Equal(t, min(100, rec+4), p.Recognition)
	assert.Equal(t, LogPersonal, s.Log[len(s.Log)-1].Type)

	for i := 0; i < 20; i++ {
		require.NoError(t, s.PerformAction(ActionStateRally, ""))
	}
	assert.Equal(t, 100.0, p.Influence)

	assert.ErrorIs(t, s.PerformAction("fly", ""), ErrUnknownAction)
	assert.ErrorIs(t, s.PerformAction(ActionUndermineRival, "nobody"), ErrUnknownParty)
	assert.Error(t, s.PerformAction(ActionUndermineRival, "umno"))

	unity := s.Party("pas").Unity
	require.NoError(t, s.PerformAction(ActionUndermineRival, "pas"))
	assert.Equal(t, unity-rivalUnityDamage, s.Party("pas").Unity)
}

func TestMoveSeat(t *testing.T) {
	s := newTestSim(t, 9)
	p := s.Player()
	var target world.Seat
	for _, seat := range s.Geography.Seats {
		if seat.Code != p.SeatCode {
			target = seat
			break
		}
	}
	from := p.SeatCode
	require.NoError(t, s.MoveSeat(target.Code))
	assert.Equal(t, target.Code, p.SeatCode)
	assert.Equal(t, target.Region, p.Region)
	if cs, ok := s.PlayerParty().ContestedSeats[from]; ok {
		assert.NotEqual(t, p.ID, cs.CandidateID)
	}
	assert.Error(t, s.MoveSeat("nowhere"))
}

func TestMergerWithoutAcceptanceChangesNothing(t *testing.T) {
	s := newTestSim(t, 10)
	s.consent = never
	parties := len(s.Parties)
	gen := s.Generation

	report, err := s.ProposeMerger(MergerProposal{Parties: []social.PartyID{"mca", "mic"}, Name: "Barisan"})
	require.NoError(t, err)
	assert.True(t, report.Acceptance.Empty())
	assert.Nil(t, report.Outcome)
	assert.Len(t, s.Parties, parties)
	assert.Equal(t, 1, countLog(s, "Negotiations Failed"))
	assert.Greater(t, s.Generation, gen)
}

func TestMergerRetiresPartiesEverywhere(t *testing.T) {
	s := newTestSim(t, 11)
	s.consent = always
	s.Government = &social.Government{ChiefExecutiveID: s.PlayerID, CoalitionPartyIDs: []social.PartyID{"umno", "mca"}}

	report, err := s.ProposeMerger(MergerProposal{Parties: []social.PartyID{"mca", "mic"}, Name: "Barisan Nasional"})
	require.NoError(t, err)
	require.NotNil(t, report.Outcome)
	require.NoError(t, lifecycle.Check(s.Parties, s.Affiliations))

	merged := s.Party(report.PartyID)
	require.NotNil(t, merged)
	assert.Equal(t, "Barisan Nasional", merged.Name)
	assert.Equal(t, s.PlayerID, merged.LeaderID)
	assert.Nil(t, s.Party("mca"))
	assert.Nil(t, s.Party("umno"))
	assert.Equal(t, []social.PartyID{merged.ID}, s.Government.CoalitionPartyIDs)
	for _, a := range s.Alliances {
		assert.NotContains(t, a.MemberPartyIDs, social.PartyID("mca"))
	}
	assert.Equal(t, 1, countLog(s, "Party Restructuring"))
}

func TestAbsorbKeepsIdentity(t *testing.T) {
	s := newTestSim(t, 12)
	s.consent = always
	report, err := s.ProposeMerger(MergerProposal{Parties: []social.PartyID{"negara"}, Absorb: true})
	require.NoError(t, err)
	assert.Equal(t, social.PartyID("umno"), report.PartyID)
	assert.True(t, s.Party("umno").Owns("negara"))
	assert.Nil(t, s.Party("negara"))

	_, err = s.ProposeMerger(MergerProposal{Parties: []social.PartyID{"umno"}, Absorb: true})
	assert.ErrorIs(t, err, ErrUnknownParty)
}

func TestSecedeFoundsNewParty(t *testing.T) {
	s := newTestSim(t, 13)
	out, err := s.Secede(SecessionRequest{Name: "Semangat", Focus: lifecycle.FocusConservative})
	require.NoError(t, err)
	require.NoError(t, lifecycle.Check(s.Parties, s.Affiliations))

	p := s.Party(out.PartyID)
	require.NotNil(t, p)
	assert.Equal(t, []agents.AffiliationID{"umno"}, p.AffiliationIDs)
	assert.Equal(t, p.ID, s.PlayerParty().ID)
	assert.Equal(t, 1, countLog(s, "New Party"))

	_, err = s.Secede(SecessionRequest{TargetPartyID: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownParty)
}

func TestFormAlliance(t *testing.T) {
	s := newTestSim(t, 14)
	s.consent = never
	a, acc, err := s.FormAlliance("Front", []social.PartyID{"pas"}, "")
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.True(t, acc.Empty())
	assert.Equal(t, 1, countLog(s, "Coalition Failed"))

	s.consent = always
	a, _, err = s.FormAlliance("Front", []social.PartyID{"pas"}, "")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, []social.PartyID{"umno", "pas"}, a.MemberPartyIDs)
	assert.Equal(t, social.AllianceElectoral, a.Kind)
	assert.Equal(t, 1, countLog(s, "Coalition Formed"))
}

func TestProjectedControlIsStable(t *testing.T) {
	s := newTestSim(t, 15)
	a, err := s.ProjectedControl()
	require.NoError(t, err)
	b, err := s.ProjectedControl()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestSeededRunsRepeat(t *testing.T) {
	run := func() *Simulation {
		s := newTestSim(t, 99)
		require.NoError(t, s.Resume())
		_, err := s.RunDays(context.Background(), 700)
		require.NoError(t, err)
		return s
	}
	a, b := run(), run()
	assert.Equal(t, a.Date, b.Date)
	assert.Equal(t, a.Results, b.Results)
	require.Len(t, b.Log, len(a.Log))
	for i := range a.Log {
		assert.Equal(t, a.Log[i].Title, b.Log[i].Title)
	}
	assert.Len(t, a.History, 1)
}

func TestMetricsCountDays(t *testing.T) {
	s := newTestSim(t, 16)
	s.Metrics = NewMetrics(prometheus.NewRegistry())
	require.NoError(t, s.Resume())
	quiet(s)
	_, err := s.RunDays(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, testutil.ToFloat64(s.Metrics.Days))
	assert.Equal(t, float64(s.Living()), testutil.ToFloat64(s.Metrics.Living))
}

func TestEngineAdvancesInWallClockTime(t *testing.T) {
	s := newTestSim(t, 17)
	quiet(s)
	e := NewEngine(s)
	e.Interval = time.Millisecond
	e.Speed = 1
	e.Autopilot = true
	days := 0
	e.OnDay = func(*DayReport) { days++ }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))

	var date time.Time
	require.NoError(t, e.Do(func(s *Simulation) error {
		date = s.Date
		return nil
	}))
	assert.Positive(t, days)
	assert.Equal(t, DefaultStart.AddDate(0, 0, days), date)
}

func TestEngineIdlesWhenPaused(t *testing.T) {
	s := newTestSim(t, 18)
	e := NewEngine(s)
	e.Interval = time.Millisecond
	e.SetSpeed(0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, DefaultStart, s.Date)
}
