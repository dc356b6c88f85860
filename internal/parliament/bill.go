package parliament

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/social"
)

// Bill is a proposal put to the chamber. Position is the ideology the bill
// embodies; parties weigh it against their own.
type Bill struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Constitutional   bool            `json:"constitutional"`
	Position         agents.Ideology `json:"position"`
	ProposingPartyID social.PartyID  `json:"proposing_party_id,omitempty"`
}

// Bills is the catalogue of bills a player may table.
var Bills = []Bill{
	{ID: "national-language", Title: "National Language Act", Description: "Makes Malay the sole official language.", Constitutional: true, Position: agents.Ideology{Economic: 55, Governance: 70}},
	{ID: "rural-development", Title: "Rural Development Bill", Description: "Funds roads, schools and clinics in the kampungs.", Position: agents.Ideology{Economic: 35, Governance: 55}},
	{ID: "internal-security", Title: "Internal Security Amendment", Description: "Extends detention without trial.", Constitutional: true, Position: agents.Ideology{Economic: 60, Governance: 90}},
	{ID: "land-reform", Title: "Land Reform Bill", Description: "Redistributes estate land to smallholders.", Position: agents.Ideology{Economic: 15, Governance: 40}},
	{ID: "investment-incentives", Title: "Investment Incentives Bill", Description: "Tax holidays for pioneer industries.", Position: agents.Ideology{Economic: 80, Governance: 50}},
	{ID: "local-elections", Title: "Local Government Elections Bill", Description: "Restores elected town councils.", Position: agents.Ideology{Economic: 45, Governance: 20}},
}

// LookupBill returns the catalogue bill with the given ID.
func LookupBill(id string) (Bill, bool) {
	i := slices.IndexFunc(Bills, func(b Bill) bool { return b.ID == id })
	if i < 0 {
		return Bill{}, false
	}
	return Bills[i], true
}

// Distances governing the AI bill policy.
const (
	SupportDistance = 20.0
	OpposeDistance  = 45.0
)

// PassThreshold returns the ayes needed to pass: two thirds of votes cast,
// rounded up, for constitutional bills; otherwise floor(total/2)+1.
func PassThreshold(total int, constitutional bool) int {
	if constitutional {
		return (2*total + 2) / 3
	}
	return total/2 + 1
}

// AIBillVote decides a party's line on a bill. The proposer always supports
// it; otherwise the party supports close bills, opposes distant ones, and
// abstains in between. Members without a party abstain.
func AIBillVote(p *social.Party, bill Bill) Direction {
	if p == nil {
		return Abstain
	}
	if p.ID == bill.ProposingPartyID {
		return Aye
	}
	d := p.Ideology.Distance(bill.Position)
	switch {
	case d < SupportDistance:
		return Aye
	case d > OpposeDistance:
		return Nay
	default:
		return Abstain
	}
}

// BillResult is the outcome of a division on a bill.
type BillResult struct {
	Bill      Bill                         `json:"bill"`
	Tally     Tally                        `json:"tally"`
	Breakdown map[social.PartyID]Direction `json:"breakdown"`
	Threshold int                          `json:"threshold"`
	Passed    bool                         `json:"passed"`
}

// BillVote polls every living MP once. The player votes playerVote; everyone
// else follows AIBillVote for their party. The breakdown keeps the last
// direction recorded for each party.
func BillVote(bill Bill, parties []*social.Party, chars []*agents.Character,
	playerID agents.CharacterID, playerVote Direction) BillResult {

	reg := social.NewRegistry(parties)
	res := BillResult{Bill: bill, Breakdown: make(map[social.PartyID]Direction)}
	for _, c := range chars {
		if !c.Alive || !c.IsMP {
			continue
		}
		p := reg.PartyOfCharacter(c)
		d := AIBillVote(p, bill)
		if playerID != "" && c.ID == playerID && playerVote.Valid() {
			d = playerVote
		}
		res.Tally.add(d)
		if p != nil {
			res.Breakdown[p.ID] = d
		}
	}
	res.Threshold = PassThreshold(res.Tally.Total(), bill.Constitutional)
	res.Passed = res.Tally.Total() > 0 && res.Tally.Aye >= res.Threshold

	slog.Info("division",
		"bill", bill.Title,
		"result", fmt.Sprintf("%d-%d-%d", res.Tally.Aye, res.Tally.Nay, res.Tally.Abstain),
		"threshold", res.Threshold,
		"passed", res.Passed,
	)
	return res
}
