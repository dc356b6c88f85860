package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/talgya/assembly/internal/agents"
	"github.com/talgya/assembly/internal/lifecycle"
	"github.com/talgya/assembly/internal/social"
)

// MergerProposal is the player's offer to other parties and affiliations.
type MergerProposal struct {
	Parties      []social.PartyID       `json:"parties"`
	Affiliations []agents.AffiliationID `json:"affiliations"`

	// Absorb folds the acceptors into the player's party unchanged.
	// Otherwise they merge into a new party called Name.
	Absorb      bool   `json:"absorb"`
	Name        string `json:"name"`
	KeepLineage bool   `json:"keep_lineage"`
}

// RestructureReport is what came of a proposal. Outcome is nil when nobody
// accepted, in which case nothing changed.
type RestructureReport struct {
	Acceptance lifecycle.Acceptance `json:"acceptance"`
	Outcome    *lifecycle.Outcome   `json:"-"`
	PartyID    social.PartyID       `json:"party_id,omitempty"`
}

// SecessionRequest takes the player's affiliation out of its party, into
// TargetPartyID or, when that is empty, into a new party.
type SecessionRequest struct {
	TargetPartyID social.PartyID  `json:"target_party_id"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Focus         lifecycle.Focus `json:"focus"`
}

func (s *Simulation) idle() error {
	if s.Phase != PhaseRunning && s.Phase != PhasePaused {
		return ErrNotAwaiting
	}
	return nil
}

func (s *Simulation) lifecycleInput() lifecycle.Input {
	return lifecycle.Input{
		Date:         s.Date,
		Geography:    s.Geography,
		Parties:      s.Parties,
		Characters:   s.Characters,
		Results:      s.Results,
		Affiliations: s.Affiliations,
		Strongholds:  s.Strongholds,
	}
}

// ProposeMerger invites parties and affiliations to merge with, or be
// absorbed by, the player's party. Each invitee decides independently.
func (s *Simulation) ProposeMerger(prop MergerProposal) (*RestructureReport, error) {
	if err := s.idle(); err != nil {
		return nil, err
	}
	own := s.PlayerParty()
	if own == nil {
		return nil, ErrNoPlayer
	}
	for _, pid := range prop.Parties {
		if pid == own.ID || s.Party(pid) == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParty, pid)
		}
	}
	for _, aff := range prop.Affiliations {
		if s.Affiliations[aff] == nil || own.Owns(aff) {
			return nil, fmt.Errorf("%w: %q", lifecycle.ErrUnknownAffiliation, aff)
		}
	}
	if !prop.Absorb && strings.TrimSpace(prop.Name) == "" {
		return nil, fmt.Errorf("a merged party needs a name")
	}

	report := &RestructureReport{Acceptance: lifecycle.Consent(s.consent, prop.Parties, prop.Affiliations)}
	if report.Acceptance.Empty() {
		s.record(LogPolitics, "Negotiations Failed", "No party or faction accepted the proposal.")
		s.touch()
		return report, nil
	}

	var (
		out *lifecycle.Outcome
		err error
		op  = "absorption"
	)
	in := s.lifecycleInput()
	if prop.Absorb {
		out, err = lifecycle.Absorb(in, own.ID, report.Acceptance.AcceptedParties, report.Acceptance.AcceptedAffiliations)
	} else {
		op = "merger"
		spec := lifecycle.MergerSpec{
			InitiatorID:    own.ID,
			PartyIDs:       report.Acceptance.AcceptedParties,
			AffiliationIDs: report.Acceptance.AcceptedAffiliations,
			Name:           prop.Name,
			KeepLineage:    prop.KeepLineage,
			LeaderID:       s.PlayerID,
		}
		if !prop.KeepLineage {
			if spec.NewID, err = lifecycle.NewPartyID(s.ids); err != nil {
				return nil, err
			}
		}
		out, err = lifecycle.Merge(in, spec)
	}
	if err != nil {
		return nil, err
	}
	s.commit(out, op)
	report.Outcome = out
	report.PartyID = out.PartyID

	p := s.Party(out.PartyID)
	s.record(LogMajorEvent, "Party Restructuring",
		fmt.Sprintf("%s now unites %d factions after %d parties and %d factions accepted.",
			p.Name, len(p.AffiliationIDs), len(report.Acceptance.AcceptedParties), len(report.Acceptance.AcceptedAffiliations)))
	return report, nil
}

// Secede leads the player's affiliation out of its party.
func (s *Simulation) Secede(req SecessionRequest) (*lifecycle.Outcome, error) {
	if err := s.idle(); err != nil {
		return nil, err
	}
	player := s.Player()
	if player == nil {
		return nil, ErrNoPlayer
	}
	spec := lifecycle.SecessionSpec{
		AffiliationID: player.AffiliationID,
		LeaderID:      player.ID,
		TargetPartyID: req.TargetPartyID,
		Name:          req.Name,
		Color:         req.Color,
		Focus:         req.Focus,
	}
	if req.TargetPartyID == "" {
		id, err := lifecycle.NewPartyID(s.ids)
		if err != nil {
			return nil, err
		}
		spec.NewPartyID = id
	} else if s.Party(req.TargetPartyID) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParty, req.TargetPartyID)
	}

	out, err := lifecycle.Secede(s.lifecycleInput(), spec)
	if err != nil {
		return nil, err
	}
	s.commit(out, "secession")
	p := s.Party(out.PartyID)
	aff := s.Affiliations[player.AffiliationID]
	if req.TargetPartyID != "" {
		s.record(LogMajorEvent, "Defection", fmt.Sprintf("%s crosses over to %s.", aff.Name, p.Name))
	} else {
		s.record(LogMajorEvent, "New Party", fmt.Sprintf("%s breaks away to found %s.", aff.Name, p.Name))
	}
	return out, nil
}

// FormAlliance invites parties into a new alliance led by the player's party.
func (s *Simulation) FormAlliance(name string, invited []social.PartyID, kind social.AllianceKind) (*social.Alliance, lifecycle.Acceptance, error) {
	if err := s.idle(); err != nil {
		return nil, lifecycle.Acceptance{}, err
	}
	own := s.PlayerParty()
	if own == nil {
		return nil, lifecycle.Acceptance{}, ErrNoPlayer
	}
	for _, pid := range invited {
		if pid == own.ID || s.Party(pid) == nil {
			return nil, lifecycle.Acceptance{}, fmt.Errorf("%w: %q", ErrUnknownParty, pid)
		}
	}
	if kind == "" {
		kind = social.AllianceElectoral
	}
	alliances, created, acc := lifecycle.FormAlliance(s.consent, own.ID, invited, name, kind, s.Alliances)
	s.touch()
	if created == nil {
		s.record(LogPolitics, "Coalition Failed", fmt.Sprintf("No party agreed to join %s.", name))
		return nil, acc, nil
	}
	s.Alliances = alliances
	s.record(LogPolitics, "Coalition Formed",
		fmt.Sprintf("%s is formed with %d member parties.", created.Name, len(created.MemberPartyIDs)))
	return created, acc, nil
}

// commit installs a lifecycle outcome and carries retired party IDs through
// alliances and the government.
func (s *Simulation) commit(out *lifecycle.Outcome, op string) {
	s.Parties = out.Parties
	s.Characters = out.Characters
	s.Results = out.Results
	s.Strongholds = out.Strongholds
	if len(out.Retired) > 0 {
		s.Alliances = lifecycle.PruneAlliances(s.Alliances, out.Retired)
		if s.Government != nil {
			g := s.Government.Clone()
			var ids []social.PartyID
			for _, pid := range g.CoalitionPartyIDs {
				if to, ok := out.Retired[pid]; ok {
					pid = to
				}
				if !slices.Contains(ids, pid) {
					ids = append(ids, pid)
				}
			}
			g.CoalitionPartyIDs = ids
			s.Government = g
		}
	}
	s.touch()
	s.Metrics.restructure(op)
	slog.Info("party restructured",
		"date", s.Date.Format(time.DateOnly),
		"op", op,
		"party", out.PartyID,
		"retired", len(out.Retired),
		"seats", len(out.Touched),
	)
}
