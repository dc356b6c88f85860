package influence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

func fixture() (*world.Geography, []*social.Party, social.AffiliationTable, []*agents.Character) {
	geo := world.NewGeography(
		[]world.Seat{{Code: "S1", Region: "North"}, {Code: "S2", Region: "South"}, {Code: "S3", Region: "South"}},
		map[string]*world.Demographics{
			"S1": {SeatCode: "S1", TotalElectorate: 1000, Composition: map[world.Ethnicity]float64{world.EthnicMalay: 80, world.EthnicChinese: 20}},
			"S2": {SeatCode: "S2", TotalElectorate: 1000, Composition: map[world.Ethnicity]float64{world.EthnicMalay: 30, world.EthnicChinese: 70}},
		},
	)
	table := social.AffiliationTable{
		"am": {ID: "am", Ethnicity: world.EthnicMalay, Area: "North"},
		"bc": {ID: "bc", Ethnicity: world.EthnicChinese, Area: "South"},
	}
	parties := []*social.Party{
		{ID: "A", AffiliationIDs: []agents.AffiliationID{"am"}, ContestedSeats: map[string]social.ContestedSeat{}},
		{ID: "B", AffiliationIDs: []agents.AffiliationID{"bc"}, ContestedSeats: map[string]social.ContestedSeat{}},
	}
	chars := []*agents.Character{
		{ID: "m1", AffiliationID: "am", Ethnicity: world.EthnicMalay, SeatCode: "S1", Influence: 40, Alive: true},
		{ID: "c1", AffiliationID: "bc", Ethnicity: world.EthnicChinese, SeatCode: "S1", Influence: 40, Alive: true},
		{ID: "m2", AffiliationID: "am", Ethnicity: world.EthnicMalay, SeatCode: "S2", Influence: 40, Alive: true},
		{ID: "c2", AffiliationID: "bc", Ethnicity: world.EthnicChinese, SeatCode: "S2", Influence: 40, Alive: true},
		{ID: "c3", AffiliationID: "bc", Ethnicity: world.EthnicChinese, SeatCode: "S3", Influence: 10, Alive: true},
	}
	return geo, parties, table, chars
}

func TestEffectiveDemographicAlignment(t *testing.T) {
	geo, parties, table, chars := fixture()
	ctx := Context{Affiliations: table, Registry: social.NewRegistry(parties)}
	seat, _ := geo.Seat("S1")

	malay, err := Effective(chars[0], seat, geo.Demographic("S1"), ctx, Candidacy{})
	require.NoError(t, err)
	chinese, err := Effective(chars[1], seat, geo.Demographic("S1"), ctx, Candidacy{})
	require.NoError(t, err)

	// 40 × (0.5 + 0.8) × home area 1.05
	assert.InDelta(t, 40*1.3*1.05, malay, 1e-9)
	assert.InDelta(t, 40*0.7, chinese, 1e-9)
}

func TestEffectiveMissingDemographicsIsNeutral(t *testing.T) {
	_, parties, table, _ := fixture()
	ctx := Context{Affiliations: table, Registry: social.NewRegistry(parties)}
	c := &agents.Character{ID: "x", AffiliationID: "bc", Ethnicity: world.EthnicChinese, Influence: 30, Recognition: 10}

	score, err := Effective(c, world.Seat{Code: "S3", Region: "Nowhere"}, nil, ctx, Candidacy{})
	require.NoError(t, err)
	assert.InDelta(t, 32, score, 1e-9)
}

func TestEffectiveMultipliers(t *testing.T) {
	_, parties, table, _ := fixture()
	c := &agents.Character{ID: "x", AffiliationID: "bc", Influence: 50}
	seat := world.Seat{Code: "S9"}
	ctx := Context{
		Affiliations: table,
		Registry:     social.NewRegistry(parties),
		Strongholds:  StrongholdMap{"S9": {"bc": 0.2}},
	}

	plain, err := Effective(c, seat, nil, ctx, Candidacy{})
	require.NoError(t, err)
	assert.InDelta(t, 60, plain, 1e-9)

	official, err := Effective(c, seat, nil, ctx, Candidacy{OfficialCandidateID: "x", AllocatedAffiliationID: "bc"})
	require.NoError(t, err)
	assert.InDelta(t, 60*OfficialCandidateMultiplier*AllocationMultiplier, official, 1e-9)

	other, err := Effective(c, seat, nil, ctx, Candidacy{OfficialCandidateID: "y", AllocatedAffiliationID: "am"})
	require.NoError(t, err)
	assert.InDelta(t, plain, other, 1e-9)
}

func TestEffectiveDataConsistencyErrors(t *testing.T) {
	_, parties, table, _ := fixture()
	seat := world.Seat{Code: "S1"}

	stray := &agents.Character{ID: "x", AffiliationID: "ghost"}
	_, err := Effective(stray, seat, nil, Context{Affiliations: table}, Candidacy{})
	var dce *DataConsistencyError
	require.True(t, errors.As(err, &dce))
	assert.ErrorIs(t, err, ErrUnknownAffiliation)

	// Affiliation owned by two parties.
	parties[1].AffiliationIDs = append(parties[1].AffiliationIDs, "am")
	owned := &agents.Character{ID: "y", AffiliationID: "am"}
	_, err = Effective(owned, seat, nil, Context{Affiliations: table, Registry: social.NewRegistry(parties)}, Candidacy{})
	require.True(t, errors.As(err, &dce))
	var oe *social.OwnershipError
	assert.True(t, errors.As(err, &oe))
}

func TestProjectedControl(t *testing.T) {
	geo, parties, table, chars := fixture()
	ctx := Context{Affiliations: table, Registry: social.NewRegistry(parties)}

	got, err := ProjectedControl(geo, chars, ctx)
	require.NoError(t, err)
	assert.Equal(t, social.PartyID("A"), got["S1"])
	assert.Equal(t, social.PartyID("B"), got["S2"])
	assert.Equal(t, social.PartyID("B"), got["S3"])
}

func TestProjectedControlIsIdempotent(t *testing.T) {
	geo, parties, table, chars := fixture()
	reg := social.NewRegistry(parties)
	ctx := Context{
		Affiliations: table,
		Registry:     reg,
		Strongholds:  BuildStrongholds(StrongholdInput{Geography: geo, Characters: chars, Registry: reg}),
	}

	first, err := ProjectedControl(geo, chars, ctx)
	require.NoError(t, err)
	second, err := ProjectedControl(geo, chars, ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 40.0, chars[0].Influence)
}

func TestProjectedControlTieGoesToLowerPartyID(t *testing.T) {
	geo := world.NewGeography([]world.Seat{{Code: "S"}}, nil)
	table := social.AffiliationTable{"x": {ID: "x"}, "y": {ID: "y"}}
	parties := []*social.Party{
		{ID: "Z", AffiliationIDs: []agents.AffiliationID{"x"}},
		{ID: "A", AffiliationIDs: []agents.AffiliationID{"y"}},
	}
	chars := []*agents.Character{
		{ID: "1", AffiliationID: "x", SeatCode: "S", Influence: 10, Alive: true},
		{ID: "2", AffiliationID: "y", SeatCode: "S", Influence: 10, Alive: true},
	}
	got, err := ProjectedControl(geo, chars, Context{Affiliations: table, Registry: social.NewRegistry(parties)})
	require.NoError(t, err)
	assert.Equal(t, social.PartyID("A"), got["S"])
}

func TestStrongholdsRewardPresenceAndIncumbency(t *testing.T) {
	geo, parties, _, chars := fixture()
	parties[0].ContestedSeats["S1"] = social.ContestedSeat{CandidateID: "m1", AllocatedAffiliationID: "am"}
	reg := social.NewRegistry(parties)

	m := BuildStrongholds(StrongholdInput{
		Geography:  geo,
		Characters: chars,
		Registry:   reg,
		Results:    map[string]social.PartyID{"S1": "A"},
	})
	assert.InDelta(t, 0.125+0.25, m.Bonus("S1", "am"), 1e-9)
	assert.InDelta(t, 0.125, m.Bonus("S1", "bc"), 1e-9)
	assert.InDelta(t, 0.25, m.Bonus("S3", "bc"), 1e-9)
	assert.Zero(t, m.Bonus("S3", "am"))

	// Ownership moves: the incumbency bonus follows the allocation's owner.
	parties[0].AffiliationIDs = nil
	parties[1].AffiliationIDs = append(parties[1].AffiliationIDs, "am")
	m.Recompute([]string{"S1"}, StrongholdInput{
		Geography:  geo,
		Characters: chars,
		Registry:   social.NewRegistry(parties),
		Results:    map[string]social.PartyID{"S1": "A"},
	})
	assert.InDelta(t, 0.125, m.Bonus("S1", "am"), 1e-9)
}
