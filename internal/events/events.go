// Package events holds the catalogue of world events that interrupt the
// daily loop. Events are drawn on the first of each month and their effects
// are applied only when the event is acknowledged.
package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/entropy"
	"github.com/talgya/assembly/internal/social"
	"github.com/talgya/assembly/internal/world"
)

// Kind identifies an event type.
type Kind string

const (
	KindRacialTension     Kind = "racial_tension"
	KindEconomic          Kind = "economic"
	KindScandal           Kind = "scandal"
	KindUnityBoost        Kind = "unity_boost"
	KindCrackdownBacklash Kind = "crackdown_backlash"
)

// Major reports whether the event is logged as a major event rather than politics.
func (k Kind) Major() bool {
	switch k {
	case KindRacialTension, KindCrackdownBacklash, KindEconomic:
		return true
	}
	return false
}

// Event is a surfaced world event awaiting acknowledgement.
type Event struct {
	Kind        Kind               `json:"kind"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        time.Time          `json:"date"`
	Region      string             `json:"region,omitempty"`
	PartyID     social.PartyID     `json:"party_id,omitempty"`
	CharacterID agents.CharacterID `json:"character_id,omitempty"`
}

// MonthlyChance is the probability that any event fires on the first of a month.
const MonthlyChance = 0.15

// Trait and unity deltas applied on acknowledgement.
const (
	tensionInfluenceLoss  = 3.0
	tensionFocusedUnity   = 3.0
	tensionMultiUnityLoss = 5.0
	downturnUnityLoss     = 4.0
	downturnInfluenceLoss = 2.0
	scandalInfluenceLoss  = 15.0
	scandalRecognition    = 10.0
	scandalUnityLoss      = 5.0
	boostUnity            = 10.0
	backlashUnityLoss     = 5.0
	backlashRecognition   = 3.0

	scandalMinInfluence = 30.0
)

type weighted struct {
	kind   Kind
	weight int
}

var catalogue = []weighted{
	{KindRacialTension, 2},
	{KindEconomic, 2},
	{KindScandal, 3},
	{KindUnityBoost, 2},
}

// State is the read-only world an event is drawn against and applied to.
type State struct {
	Geography    *world.Geography
	Characters   []*agents.Character
	Parties      []*social.Party
	Government   *social.Government
	Affiliations social.AffiliationTable
}

// Check rolls for a monthly event. It returns nil when nothing happens or when
// the drawn event has no valid target.
func Check(date time.Time, st State, rng entropy.Source) *Event {
	if !entropy.Chance(rng, MonthlyChance) {
		return nil
	}
	total := 0
	for _, w := range catalogue {
		total += w.weight
	}
	pick := rng.Intn(total)
	var kind Kind
	for _, w := range catalogue {
		if pick < w.weight {
			kind = w.kind
			break
		}
		pick -= w.weight
	}

	switch kind {
	case KindRacialTension:
		return racialTension(date, st, rng)
	case KindEconomic:
		return &Event{
			Kind:        KindEconomic,
			Title:       "Economic Downturn",
			Description: "Falling rubber and tin prices hit rural incomes. Voters blame the government.",
			Date:        date,
		}
	case KindScandal:
		return scandal(date, st, rng)
	case KindUnityBoost:
		if len(st.Parties) == 0 {
			return nil
		}
		ids := social.SortedPartyIDs(st.Parties)
		pid := ids[rng.Intn(len(ids))]
		return &Event{
			Kind:        KindUnityBoost,
			Title:       "Party Congress",
			Description: fmt.Sprintf("A successful general assembly rallies the %s rank and file.", partyName(st.Parties, pid)),
			Date:        date,
			PartyID:     pid,
		}
	}
	return nil
}

func racialTension(date time.Time, st State, rng entropy.Source) *Event {
	if st.Geography == nil {
		return nil
	}
	regions := st.Geography.Regions()
	if len(regions) == 0 {
		return nil
	}
	region := regions[rng.Intn(len(regions))]
	return &Event{
		Kind:        KindRacialTension,
		Title:       "Communal Tension",
		Description: fmt.Sprintf("Clashes between communities in %s put politicians on the defensive.", region),
		Date:        date,
		Region:      region,
	}
}

func scandal(date time.Time, st State, rng entropy.Source) *Event {
	var pool []*agents.Character
	for _, c := range st.Characters {
		if c.Alive && !c.IsPlayer && c.Influence >= scandalMinInfluence {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	c := pool[rng.Intn(len(pool))]
	reg := social.NewRegistry(st.Parties)
	var pid social.PartyID
	if p := reg.PartyOfCharacter(c); p != nil {
		pid = p.ID
	}
	return &Event{
		Kind:        KindScandal,
		Title:       "Corruption Scandal",
		Description: fmt.Sprintf("%s is accused of misusing party funds.", c.Name),
		Date:        date,
		PartyID:     pid,
		CharacterID: c.ID,
	}
}

// Apply returns copies of characters and parties with the event's effects.
// Inputs are not modified.
func Apply(e *Event, st State) ([]*agents.Character, []*social.Party) {
	chars := make([]*agents.Character, len(st.Characters))
	for i, c := range st.Characters {
		chars[i] = c.Clone()
	}
	parties := social.CloneParties(st.Parties)
	if e == nil {
		return chars, parties
	}
	reg := social.NewRegistry(parties)

	switch e.Kind {
	case KindRacialTension:
		for _, c := range chars {
			if c.Alive && c.Region == e.Region {
				c.AdjustTraits(0, -tensionInfluenceLoss, 0)
			}
		}
		for _, p := range parties {
			if p.EthnicityFocus != "" {
				p.AdjustUnity(tensionFocusedUnity)
			} else {
				p.AdjustUnity(-tensionMultiUnityLoss)
			}
		}

	case KindEconomic:
		for _, p := range parties {
			if st.Government.InCoalition(p.ID) {
				p.AdjustUnity(-downturnUnityLoss)
			}
		}
		for _, c := range chars {
			if !c.Alive {
				continue
			}
			if p := reg.PartyOfCharacter(c); p != nil && st.Government.InCoalition(p.ID) {
				c.AdjustTraits(0, -downturnInfluenceLoss, 0)
			}
		}

	case KindScandal:
		for _, c := range chars {
			if c.ID == e.CharacterID {
				c.AdjustTraits(0, -scandalInfluenceLoss, scandalRecognition)
				c.Record(e.Date, "Implicated in a corruption scandal.")
			}
		}
		if p := reg.Party(e.PartyID); p != nil {
			p.AdjustUnity(-scandalUnityLoss)
		}

	case KindUnityBoost:
		if p := reg.Party(e.PartyID); p != nil {
			p.AdjustUnity(boostUnity)
		}

	case KindCrackdownBacklash:
		for _, p := range parties {
			if st.Government.InCoalition(p.ID) {
				p.AdjustUnity(-backlashUnityLoss)
			}
		}
		for _, c := range chars {
			if !c.Alive {
				continue
			}
			if p := reg.PartyOfCharacter(c); p != nil && !st.Government.InCoalition(p.ID) {
				c.AdjustTraits(0, 0, backlashRecognition)
			}
		}
	}
	return chars, parties
}

func partyName(parties []*social.Party, id social.PartyID) string {
	for _, p := range parties {
		if p.ID == id {
			return p.Name
		}
	}
	return string(id)
}
