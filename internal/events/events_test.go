package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

var day = time.Date(1960, time.March, 1, 0, 0, 0, 0, time.UTC)

func state() State {
	return State{
		Geography: world.NewGeography([]world.Seat{{Code: "S1", Region: "North"}}, nil),
		Characters: []*agents.Character{
			{ID: "g1", AffiliationID: "ga", Region: "North", Influence: 50, Alive: true},
			{ID: "o1", AffiliationID: "oa", Region: "South", Influence: 40, Recognition: 10, Alive: true},
			{ID: "dead", AffiliationID: "oa", Region: "North", Influence: 50},
		},
		Parties: []*social.Party{
			{ID: "gov", Name: "Government Party", Unity: 50, EthnicityFocus: world.EthnicMalay, AffiliationIDs: []agents.AffiliationID{"ga"}},
			{ID: "opp", Name: "Opposition Party", Unity: 50, AffiliationIDs: []agents.AffiliationID{"oa"}},
		},
		Government: &social.Government{ChiefExecutiveID: "g1", CoalitionPartyIDs: []social.PartyID{"gov"}},
	}
}

func TestCheckIsReproducible(t *testing.T) {
	st := state()
	a, b := entropy.NewSeeded(10), entropy.NewSeeded(10)
	fired := 0
	for i := 0; i < 240; i++ {
		date := day.AddDate(0, i, 0)
		ea, eb := Check(date, st, a), Check(date, st, b)
		assert.Equal(t, ea, eb)
		if ea != nil {
			fired++
			assert.Equal(t, date, ea.Date)
			assert.NotEmpty(t, ea.Title)
		}
	}
	// 240 months at 15% ≈ 36 events.
	assert.Greater(t, fired, 10)
	assert.Less(t, fired, 80)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	st := state()
	chars, parties := Apply(&Event{Kind: KindUnityBoost, PartyID: "opp"}, st)
	assert.Equal(t, 60.0, parties[1].Unity)
	assert.Equal(t, 50.0, st.Parties[1].Unity)
	assert.NotSame(t, st.Characters[0], chars[0])
}

func TestApplyEffects(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, chars []*agents.Character, parties []*social.Party)
	}{
		{"racial tension", Event{Kind: KindRacialTension, Region: "North"}, func(t *testing.T, chars []*agents.Character, parties []*social.Party) {
			assert.Equal(t, 47.0, chars[0].Influence)
			assert.Equal(t, 40.0, chars[1].Influence)
			assert.Equal(t, 50.0, chars[2].Influence, "the dead are untouched")
			assert.Equal(t, 53.0, parties[0].Unity)
			assert.Equal(t, 45.0, parties[1].Unity)
		}},
		{"economic downturn", Event{Kind: KindEconomic}, func(t *testing.T, chars []*agents.Character, parties []*social.Party) {
			assert.Equal(t, 46.0, parties[0].Unity)
			assert.Equal(t, 50.0, parties[1].Unity)
			assert.Equal(t, 48.0, chars[0].Influence)
			assert.Equal(t, 40.0, chars[1].Influence)
		}},
		{"scandal", Event{Kind: KindScandal, CharacterID: "g1", PartyID: "gov", Date: day}, func(t *testing.T, chars []*agents.Character, parties []*social.Party) {
			assert.Equal(t, 35.0, chars[0].Influence)
			assert.Equal(t, 10.0, chars[0].Recognition)
			require.Len(t, chars[0].History, 1)
			assert.Equal(t, 45.0, parties[0].Unity)
		}},
		{"crackdown backlash", Event{Kind: KindCrackdownBacklash}, func(t *testing.T, chars []*agents.Character, parties []*social.Party) {
			assert.Equal(t, 45.0, parties[0].Unity)
			assert.Equal(t, 13.0, chars[1].Recognition)
			assert.Equal(t, 0.0, chars[0].Recognition)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chars, parties := Apply(&tt.event, state())
			tt.check(t, chars, parties)
		})
	}
}

func TestMajorKinds(t *testing.T) {
	assert.True(t, KindRacialTension.Major())
	assert.True(t, KindCrackdownBacklash.Major())
	assert.False(t, KindScandal.Major())
	assert.False(t, KindUnityBoost.Major())
}
