// Package parliament forms governments from election results and runs the
// chamber's votes: speaker, confidence, bills. It also holds the security
// crackdown, the one executive action that reshapes the opposition.
package parliament

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/election"
	"github.com/talgya/assembly/internal/social"
)

// ErrNoGovernment is returned by actions that need a sitting government.
var ErrNoGovernment = errors.New("no government in office")

const (
	// CabinetSize caps the number of ministers besides the chief executive.
	CabinetSize = 10

	// CompatibilityDistance is the largest ideological distance at which a
	// bloc will join a coalition.
	CompatibilityDistance = 40.0
)

// Bloc is a group of parties that negotiate together: an alliance, or a
// party outside any alliance.
type Bloc struct {
	ID       string
	PartyIDs []social.PartyID
	Seats    int
	Ideology agents.Ideology // Seat-weighted
}

// Blocs groups seat winners by alliance. Parties without seats are left out.
// The result is ordered by seats, largest first, ties by ID.
func Blocs(results election.Results, parties []*social.Party, alliances []*social.Alliance) []Bloc {
	seats := results.SeatTotals()
	byID := make(map[string]*Bloc)
	var order []string

	for _, pid := range social.SortedPartyIDs(parties) {
		n := seats[pid]
		if n == 0 {
			continue
		}
		key := "party:" + string(pid)
		if a := social.AllianceOf(alliances, pid); a != nil {
			key = "alliance:" + a.ID
		}
		b, ok := byID[key]
		if !ok {
			b = &Bloc{ID: key}
			byID[key] = b
			order = append(order, key)
		}
		b.PartyIDs = append(b.PartyIDs, pid)
		b.Seats += n
	}

	ideology := make(map[social.PartyID]agents.Ideology, len(parties))
	for _, p := range parties {
		ideology[p.ID] = p.Ideology
	}

	out := make([]Bloc, 0, len(order))
	for _, key := range order {
		b := byID[key]
		var eco, gov float64
		for _, pid := range b.PartyIDs {
			w := float64(seats[pid])
			eco += ideology[pid].Economic * w
			gov += ideology[pid].Governance * w
		}
		b.Ideology = agents.Ideology{Economic: eco / float64(b.Seats), Governance: gov / float64(b.Seats)}
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seats != out[j].Seats {
			return out[i].Seats > out[j].Seats
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MajorityOf returns the seats needed for a majority of total.
func MajorityOf(total int) int {
	return total/2 + 1
}

// Formation is the outcome of government formation. Government is nil when
// no majority could be assembled.
type Formation struct {
	Government *social.Government
	Coalition  []Bloc
	Seats      int

	// Copies of every character; appointees carry a history entry.
	Characters []*agents.Character
}

// FormGovernment builds a coalition around the largest bloc, adding
// compatible blocs in seat order until it commands a majority of totalSeats.
// The chief executive is the leader of the coalition's largest party,
// falling back to its deputy and then its strongest sitting MP.
func FormGovernment(date time.Time, results election.Results, totalSeats int,
	parties []*social.Party, alliances []*social.Alliance, chars []*agents.Character) *Formation {

	out := &Formation{Characters: cloneAll(chars)}
	blocs := Blocs(results, parties, alliances)
	if len(blocs) == 0 {
		return out
	}

	need := MajorityOf(totalSeats)
	core := blocs[0]
	coalition := []Bloc{core}
	seats := core.Seats
	for _, b := range blocs[1:] {
		if seats >= need {
			break
		}
		if core.Ideology.Distance(b.Ideology) <= CompatibilityDistance {
			coalition = append(coalition, b)
			seats += b.Seats
		}
	}
	out.Coalition = coalition
	out.Seats = seats
	if seats < need {
		slog.Info("no majority", "largest_bloc", core.ID, "seats", seats, "needed", need)
		return out
	}

	var members []social.PartyID
	for _, b := range coalition {
		members = append(members, b.PartyIDs...)
	}
	byParty := make(map[social.PartyID]*social.Party, len(parties))
	for _, p := range parties {
		byParty[p.ID] = p
	}

	tally := results.SeatTotals()
	dominant := members[0]
	for _, pid := range members[1:] {
		if tally[pid] > tally[dominant] || (tally[pid] == tally[dominant] && pid < dominant) {
			dominant = pid
		}
	}

	living := make(map[agents.CharacterID]*agents.Character)
	for _, c := range out.Characters {
		if c.Alive {
			living[c.ID] = c
		}
	}
	reg := social.NewRegistry(parties)
	mpsOf := func(pid social.PartyID) []*agents.Character {
		var mps []*agents.Character
		for _, c := range out.Characters {
			if p := reg.PartyOfCharacter(c); c.Alive && c.IsMP && p != nil && p.ID == pid {
				mps = append(mps, c)
			}
		}
		return rankByStanding(mps)
	}

	chief := chiefFor(byParty[dominant], living, mpsOf(dominant))
	if chief == nil {
		slog.Warn("coalition has no one to lead it", "party", dominant)
		return out
	}

	gov := &social.Government{
		ChiefExecutiveID:  chief.ID,
		CoalitionPartyIDs: members,
		FormedOn:          date,
	}
	taken := map[agents.CharacterID]bool{chief.ID: true}
	appoint := func(c *agents.Character) {
		if c == nil || taken[c.ID] || len(gov.Cabinet) >= CabinetSize {
			return
		}
		taken[c.ID] = true
		gov.Cabinet = append(gov.Cabinet, c.ID)
		c.Record(date, fmt.Sprintf("Appointed to the cabinet of %s.", chief.Name))
	}
	for _, pid := range members {
		if p := byParty[pid]; p != nil {
			appoint(living[p.LeaderID])
			appoint(living[p.DeputyLeaderID])
		}
	}
	for _, pid := range members {
		for _, c := range mpsOf(pid) {
			appoint(c)
		}
	}
	chief.Record(date, "Sworn in as Chief Minister.")

	out.Government = gov
	slog.Info("government formed",
		"chief", chief.Name,
		"parties", len(members),
		"seats", seats,
		"of", totalSeats,
		"cabinet", len(gov.Cabinet),
	)
	return out
}

func chiefFor(p *social.Party, living map[agents.CharacterID]*agents.Character, mps []*agents.Character) *agents.Character {
	if p == nil {
		return nil
	}
	if c := living[p.LeaderID]; c != nil {
		return c
	}
	if c := living[p.DeputyLeaderID]; c != nil {
		return c
	}
	if len(mps) > 0 {
		return mps[0]
	}
	return nil
}

func rankByStanding(chars []*agents.Character) []*agents.Character {
	sort.SliceStable(chars, func(i, j int) bool {
		si, sj := social.Standing(chars[i]), social.Standing(chars[j])
		if si != sj {
			return si > sj
		}
		return chars[i].ID < chars[j].ID
	})
	return chars
}

func cloneAll(chars []*agents.Character) []*agents.Character {
	out := make([]*agents.Character, len(chars))
	for i, c := range chars {
		out[i] = c.Clone()
	}
	return out
}
