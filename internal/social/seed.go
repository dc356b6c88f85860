// Seed scenario: the parties and factions contesting the first federal
// election.
package social

import (
	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/world"
)

// SeedAffiliations returns the founding affiliation table.
func SeedAffiliations() AffiliationTable {
	list := []*Affiliation{
		{ID: "umno", Name: "UMNO Mainstream", Ethnicity: world.EthnicMalay, BaseIdeology: agents.Ideology{Economic: 60, Governance: 60}, Area: "Johor"},
		{ID: "umno-youth", Name: "UMNO Youth", Ethnicity: world.EthnicMalay, BaseIdeology: agents.Ideology{Economic: 55, Governance: 70}, Area: "Kedah"},
		{ID: "mca", Name: "Malayan Chinese Association", Ethnicity: world.EthnicChinese, BaseIdeology: agents.Ideology{Economic: 75, Governance: 50}, Area: "Selangor"},
		{ID: "mic", Name: "Malayan Indian Congress", Ethnicity: world.EthnicIndian, BaseIdeology: agents.Ideology{Economic: 55, Governance: 50}, Area: "Perak"},
		{ID: "pas", Name: "Pan-Malayan Islamic Party", Ethnicity: world.EthnicMalay, BaseIdeology: agents.Ideology{Economic: 45, Governance: 80}, Area: "Kelantan"},
		{ID: "prm", Name: "Parti Rakyat", Ethnicity: world.EthnicMalay, BaseIdeology: agents.Ideology{Economic: 20, Governance: 35}, Area: "Selangor"},
		{ID: "labour", Name: "Labour Party", Ethnicity: world.EthnicChinese, BaseIdeology: agents.Ideology{Economic: 15, Governance: 30}, Area: "Penang"},
		{ID: "ppp", Name: "People's Progressive Party", Ethnicity: world.EthnicChinese, BaseIdeology: agents.Ideology{Economic: 35, Governance: 35}, Area: "Perak"},
		{ID: "negara", Name: "Party Negara", Ethnicity: world.EthnicMalay, BaseIdeology: agents.Ideology{Economic: 65, Governance: 65}, Area: "Terengganu"},
	}
	table := make(AffiliationTable, len(list))
	for _, a := range list {
		table[a.ID] = a
	}
	return table
}

// SeedParties returns the founding parties. Leadership and candidacies are
// appointed once the population exists.
func SeedParties() []*Party {
	mk := func(id PartyID, name, color string, unity float64, ideo agents.Ideology, focus world.Ethnicity, affs ...agents.AffiliationID) *Party {
		return &Party{
			ID:             id,
			Name:           name,
			Color:          color,
			Unity:          unity,
			Ideology:       ideo,
			EthnicityFocus: focus,
			AffiliationIDs: affs,
			ContestedSeats: make(map[string]ContestedSeat),
		}
	}
	return []*Party{
		mk("umno", "United Malays National Organisation", "#d62728", 75, agents.Ideology{Economic: 60, Governance: 62}, world.EthnicMalay, "umno", "umno-youth"),
		mk("mca", "Malayan Chinese Association", "#1f77b4", 65, agents.Ideology{Economic: 75, Governance: 50}, world.EthnicChinese, "mca"),
		mk("mic", "Malayan Indian Congress", "#ff7f0e", 60, agents.Ideology{Economic: 55, Governance: 50}, world.EthnicIndian, "mic"),
		mk("pas", "Pan-Malayan Islamic Party", "#2ca02c", 80, agents.Ideology{Economic: 45, Governance: 80}, world.EthnicMalay, "pas"),
		mk("sf", "Socialist Front", "#9467bd", 55, agents.Ideology{Economic: 18, Governance: 32}, "", "prm", "labour"),
		mk("ppp", "People's Progressive Party", "#8c564b", 60, agents.Ideology{Economic: 35, Governance: 35}, "", "ppp"),
		mk("negara", "Party Negara", "#7f7f7f", 50, agents.Ideology{Economic: 65, Governance: 65}, world.EthnicMalay, "negara"),
	}
}

// SeedAlliances returns the founding electoral pacts.
func SeedAlliances() []*Alliance {
	return []*Alliance{
		{ID: "perikatan", Name: "Alliance (Perikatan)", Kind: AllianceElectoral, MemberPartyIDs: []PartyID{"umno", "mca", "mic"}},
	}
}

// Foundings converts the affiliation table to population seeds, ordered by ID.
func Foundings(table AffiliationTable) []agents.Founding {
	out := make([]agents.Founding, 0, len(table))
	for _, id := range SortedAffiliationIDs(table) {
		a := table[id]
		out = append(out, agents.Founding{AffiliationID: a.ID, Ethnicity: a.Ethnicity, Ideology: a.BaseIdeology})
	}
	return out
}
