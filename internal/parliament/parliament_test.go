package parliament

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/social"
)

var sworn = time.Date(1959, time.August, 20, 0, 0, 0, 0, time.UTC)

// chamber builds parties a (right), b (right, allied with a), c (left) and d
// (far left), with one MP per seat won.
func chamber(seats map[social.PartyID]int) (election.Results, []*social.Party, []*social.Alliance, []*agents.Character) {
	parties := []*social.Party{
		{ID: "a", Name: "A", Ideology: agents.Ideology{Economic: 70, Governance: 60}, AffiliationIDs: []agents.AffiliationID{"a1"}, LeaderID: "a-0", DeputyLeaderID: "a-1", Unity: 50},
		{ID: "b", Name: "B", Ideology: agents.Ideology{Economic: 65, Governance: 55}, AffiliationIDs: []agents.AffiliationID{"b1"}, LeaderID: "b-0", Unity: 50},
		{ID: "c", Name: "C", Ideology: agents.Ideology{Economic: 30, Governance: 40}, AffiliationIDs: []agents.AffiliationID{"c1"}, LeaderID: "c-0", Unity: 50},
		{ID: "d", Name: "D", Ideology: agents.Ideology{Economic: 5, Governance: 10}, AffiliationIDs: []agents.AffiliationID{"d1"}, LeaderID: "d-0", Unity: 50},
	}
	alliances := []*social.Alliance{{ID: "pact", MemberPartyIDs: []social.PartyID{"a", "b"}}}
	results := make(election.Results)
	var chars []*agents.Character
	seat := 0
	for _, p := range parties {
		for i := 0; i < seats[p.ID]; i++ {
			code := fmt.Sprintf("S%03d", seat)
			seat++
			results[code] = p.ID
			chars = append(chars, &agents.Character{
				ID:            agents.CharacterID(fmt.Sprintf("%s-%d", p.ID, i)),
				Name:          fmt.Sprintf("%s member %d", p.Name, i),
				AffiliationID: p.AffiliationIDs[0],
				SeatCode:      code,
				Influence:     float64(60 - i),
				Alive:         true,
				IsMP:          true,
			})
		}
	}
	return results, parties, alliances, chars
}

func TestBlocsGroupAlliances(t *testing.T) {
	results, parties, alliances, _ := chamber(map[social.PartyID]int{"a": 3, "b": 2, "c": 4, "d": 1})
	blocs := Blocs(results, parties, alliances)
	require.Len(t, blocs, 3)
	assert.Equal(t, "alliance:pact", blocs[0].ID)
	assert.Equal(t, 5, blocs[0].Seats)
	assert.Equal(t, []social.PartyID{"a", "b"}, blocs[0].PartyIDs)
	assert.InDelta(t, 68, blocs[0].Ideology.Economic, 1e-9)
	assert.Equal(t, "party:c", blocs[1].ID)
}

func TestFormGovernmentMajorityAlliance(t *testing.T) {
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 4, "b": 2, "c": 3, "d": 1})
	f := FormGovernment(sworn, results, 10, parties, alliances, chars)
	require.NotNil(t, f.Government)

	g := f.Government
	assert.Equal(t, agents.CharacterID("a-0"), g.ChiefExecutiveID)
	assert.Equal(t, []social.PartyID{"a", "b"}, g.CoalitionPartyIDs)
	assert.Equal(t, []agents.CharacterID{"a-1", "b-0", "a-2", "a-3", "b-1"}, g.Cabinet)
	assert.Equal(t, sworn, g.FormedOn)

	assert.Empty(t, chars[0].History, "input characters are not modified")
	assert.NotEmpty(t, f.Characters[0].History)
}

func TestFormGovernmentRecruitsCompatibleBlocs(t *testing.T) {
	// c is the largest bloc but needs a partner; d is close enough, the pact is not.
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 2, "b": 1, "c": 4, "d": 3})
	f := FormGovernment(sworn, results, 10, parties, alliances, chars)
	require.NotNil(t, f.Government)
	assert.Equal(t, []social.PartyID{"c", "d"}, f.Government.CoalitionPartyIDs)
	assert.Equal(t, agents.CharacterID("c-0"), f.Government.ChiefExecutiveID)
}

func TestFormGovernmentHungParliament(t *testing.T) {
	results, parties, _, chars := chamber(map[social.PartyID]int{"a": 3, "c": 3, "d": 1})
	parties[3].Ideology = agents.Ideology{Economic: 100, Governance: 100}
	f := FormGovernment(sworn, results, 7, parties, nil, chars)
	assert.Nil(t, f.Government)
	assert.Len(t, f.Characters, len(chars))
}

func TestFormGovernmentFallsBackToDeputy(t *testing.T) {
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 6, "c": 2})
	chars[0].Alive = false
	f := FormGovernment(sworn, results, 8, parties, alliances, chars)
	require.NotNil(t, f.Government)
	assert.Equal(t, agents.CharacterID("a-1"), f.Government.ChiefExecutiveID)
}

func TestSpeakerCandidatesAreCoalitionBackbenchers(t *testing.T) {
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 14, "b": 1, "c": 5})
	f := FormGovernment(sworn, results, 20, parties, alliances, chars)
	require.NotNil(t, f.Government)
	require.Len(t, f.Government.Cabinet, CabinetSize)

	cands := SpeakerCandidates(results, parties, f.Government, f.Characters)
	require.NotEmpty(t, cands)
	assert.LessOrEqual(t, len(cands), SpeakerCandidatesLimit)
	for _, c := range cands {
		assert.NotEqual(t, f.Government.ChiefExecutiveID, c.ID)
		assert.NotContains(t, f.Government.Cabinet, c.ID)
		assert.Equal(t, agents.AffiliationID("a1"), c.AffiliationID)
	}
	assert.Equal(t, agents.CharacterID("a-10"), cands[0].ID)
}

func TestSpeakerVoteBlocsAndPlayerBallot(t *testing.T) {
	results, parties, _, chars := chamber(map[social.PartyID]int{"a": 5, "c": 4, "d": 2})
	cands := []*agents.Character{chars[4], chars[8]} // a-4, c-3

	res := SpeakerVote(results, parties, cands, "", "")
	assert.Equal(t, agents.CharacterID("c-3"), res.Breakdown["d"])
	assert.Equal(t, 5, res.Tally["a-4"])
	assert.Equal(t, 6, res.Tally["c-3"])
	assert.Equal(t, agents.CharacterID("c-3"), res.WinnerID)

	// A player in party c crossing the floor.
	res = SpeakerVote(results, parties, cands, "c", "a-4")
	assert.Equal(t, 6, res.Tally["a-4"])
	assert.Equal(t, 5, res.Tally["c-3"])
	assert.Equal(t, agents.CharacterID("a-4"), res.WinnerID)

	// 5-5 tie goes to the lower candidate ID whatever the ballot order.
	results, parties, _, chars = chamber(map[social.PartyID]int{"a": 5, "c": 3, "d": 2})
	res = SpeakerVote(results, parties, []*agents.Character{chars[7], chars[4]}, "", "")
	assert.Equal(t, 5, res.Tally["a-4"])
	assert.Equal(t, 5, res.Tally["c-2"])
	assert.Equal(t, agents.CharacterID("a-4"), res.WinnerID)
}

func TestResolveConfidence(t *testing.T) {
	assert.True(t, ResolveConfidence(120, 119).Survived)
	assert.False(t, ResolveConfidence(119, 120).Survived)
	assert.False(t, ResolveConfidence(100, 100).Survived)
}

func TestConfidenceVote(t *testing.T) {
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 4, "b": 2, "c": 4})
	f := FormGovernment(sworn, results, 10, parties, alliances, chars)
	require.NotNil(t, f.Government)

	res, err := ConfidenceVote(f.Government, parties, f.Characters, "", "")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceResult{Ayes: 6, Nays: 4, Survived: true}, res)

	// A rebel player on the government benches.
	res, err = ConfidenceVote(f.Government, parties, f.Characters, "b-1", Nay)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Ayes)
	assert.Equal(t, 5, res.Nays)
	assert.False(t, res.Survived)

	_, err = ConfidenceVote(nil, parties, chars, "", "")
	assert.True(t, errors.Is(err, ErrNoGovernment))
}

func TestPassThreshold(t *testing.T) {
	assert.Equal(t, 200, PassThreshold(300, true))
	assert.Equal(t, 151, PassThreshold(301, false))
	assert.Equal(t, 201, PassThreshold(301, true))
	assert.Equal(t, 151, PassThreshold(300, false))
	assert.Equal(t, 1, PassThreshold(0, false))
}

func TestAIBillVote(t *testing.T) {
	bill := Bill{Title: "T", Position: agents.Ideology{Economic: 70, Governance: 60}, ProposingPartyID: "d"}
	_, parties, _, _ := chamber(nil)
	assert.Equal(t, Aye, AIBillVote(parties[0], bill))
	assert.Equal(t, Aye, AIBillVote(parties[1], bill))
	assert.Equal(t, Abstain, AIBillVote(parties[2], bill))
	assert.Equal(t, Aye, AIBillVote(parties[3], bill), "the proposer supports its own bill")
	assert.Equal(t, Abstain, AIBillVote(nil, bill))

	bill.ProposingPartyID = ""
	assert.Equal(t, Nay, AIBillVote(parties[3], bill))
}

func TestBillVote(t *testing.T) {
	_, parties, _, chars := chamber(map[social.PartyID]int{"a": 4, "b": 2, "c": 3, "d": 1})
	bill := Bill{Title: "Investment", Position: agents.Ideology{Economic: 70, Governance: 60}, Constitutional: true}

	res := BillVote(bill, parties, chars, "", "")
	assert.Equal(t, Tally{Aye: 6, Nay: 1, Abstain: 3}, res.Tally)
	assert.Equal(t, 7, res.Threshold)
	assert.False(t, res.Passed)

	// The player in c turns one abstention into the deciding aye.
	res = BillVote(bill, parties, chars, "c-0", Aye)
	assert.Equal(t, 7, res.Tally.Aye)
	assert.True(t, res.Passed)
	assert.Equal(t, Abstain, res.Breakdown["c"], "last writer wins for the party breakdown")

	bill.Constitutional = false
	res = BillVote(bill, parties, chars, "", "")
	assert.Equal(t, 6, res.Threshold)
	assert.True(t, res.Passed)
}

func TestLookupBill(t *testing.T) {
	b, ok := LookupBill("land-reform")
	require.True(t, ok)
	assert.False(t, b.Constitutional)
	_, ok = LookupBill("nope")
	assert.False(t, ok)
}

func TestSecurityCrackdown(t *testing.T) {
	results, parties, alliances, chars := chamber(map[social.PartyID]int{"a": 4, "b": 2, "c": 4, "d": 1})
	f := FormGovernment(sworn, results, 11, parties, alliances, chars)
	require.NotNil(t, f.Government)

	res, err := SecurityCrackdown(sworn, f.Government, f.Characters, parties)
	require.NoError(t, err)
	again, err := SecurityCrackdown(sworn, f.Government, f.Characters, parties)
	require.NoError(t, err)
	assert.Equal(t, res, again, "crackdown is a pure function of its inputs")

	assert.Equal(t, []agents.CharacterID{"c-0", "d-0", "c-1"}, res.Detained)
	assert.Equal(t, events.KindCrackdownBacklash, res.Event.Kind)

	byID := make(map[agents.CharacterID]*agents.Character)
	for _, c := range res.Characters {
		byID[c.ID] = c
	}
	assert.InDelta(t, 60*CrackdownInfluenceFactor, byID["c-0"].Influence, 1e-9)
	assert.Equal(t, 10.0, byID["c-0"].Recognition)
	assert.Equal(t, 60.0, byID["a-0"].Influence)
	assert.Equal(t, 60.0, f.Characters[6].Influence, "inputs are not modified")

	assert.Equal(t, 52.0, res.Parties[0].Unity)
	assert.Equal(t, 58.0, res.Parties[2].Unity)

	_, err = SecurityCrackdown(sworn, nil, chars, parties)
	assert.ErrorIs(t, err, ErrNoGovernment)
}
