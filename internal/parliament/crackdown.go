package parliament

import (
	"fmt"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/events"
	"github.com/talgya/assembly/internal/social"
)

const (
	// CrackdownInfluenceFactor scales surviving opposition influence.
	CrackdownInfluenceFactor = 0.85

	// CrackdownDetentions is how many leading opposition figures are detained.
	CrackdownDetentions = 3

	crackdownDetaineeRecognition = 10.0
	crackdownOppositionUnity     = 8.0
	crackdownLiberalUnityLoss    = 4.0
	crackdownHardlineUnity       = 2.0
	liberalGovernance            = 50.0
)

// CrackdownResult carries the new world state after a crackdown and the
// event surfaced to the player. Its effects on acknowledgement are the
// backlash.
type CrackdownResult struct {
	Characters []*agents.Character
	Parties    []*social.Party
	Detained   []agents.CharacterID
	Event      *events.Event
}

// SecurityCrackdown suppresses the opposition. Every living opposition
// politician loses influence; the strongest few are detained, gaining
// recognition as martyrs. Opposition parties close ranks. Coalition parties
// with liberal governance views lose unity while hardliners gain some.
// The result depends only on its inputs.
func SecurityCrackdown(date time.Time, gov *social.Government, chars []*agents.Character, parties []*social.Party) (*CrackdownResult, error) {
	if gov == nil {
		return nil, ErrNoGovernment
	}
	out := &CrackdownResult{
		Characters: cloneAll(chars),
		Parties:    social.CloneParties(parties),
	}
	reg := social.NewRegistry(out.Parties)

	var opposition []*agents.Character
	for _, c := range out.Characters {
		if !c.Alive {
			continue
		}
		p := reg.PartyOfCharacter(c)
		if p == nil || gov.InCoalition(p.ID) {
			continue
		}
		c.Influence *= CrackdownInfluenceFactor
		opposition = append(opposition, c)
	}

	for _, c := range rankByStanding(opposition) {
		if len(out.Detained) == CrackdownDetentions {
			break
		}
		if c.IsPlayer {
			continue
		}
		c.AdjustTraits(0, 0, crackdownDetaineeRecognition)
		c.Record(date, "Detained without trial during a security crackdown.")
		out.Detained = append(out.Detained, c.ID)
	}

	for _, p := range out.Parties {
		switch {
		case !gov.InCoalition(p.ID):
			p.AdjustUnity(crackdownOppositionUnity)
		case p.Ideology.Governance < liberalGovernance:
			p.AdjustUnity(-crackdownLiberalUnityLoss)
		default:
			p.AdjustUnity(crackdownHardlineUnity)
		}
	}

	out.Event = &events.Event{
		Kind:  events.KindCrackdownBacklash,
		Title: "Security Crackdown",
		Description: fmt.Sprintf("Police sweep opposition offices. %d figures detained, %d opposition politicians weakened. Public anger is building.",
			len(out.Detained), len(opposition)),
		Date: date,
	}
	return out, nil
}
