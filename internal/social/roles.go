package social

import (
	"slices"

	"github.com/talgya/assembly/internal/agents"
)

// Role is a character's position in their party's organisation.
type Role uint8

const (
	RoleMember Role = iota
	RoleNationalLeader
	RoleNationalDeputy
	RoleRegionalLeader
	RoleRegionalExecutive
)

var roleNames = [...]string{
	RoleMember:            "Member",
	RoleNationalLeader:    "National Leader",
	RoleNationalDeputy:    "National Deputy Leader",
	RoleRegionalLeader:    "State Leader",
	RoleRegionalExecutive: "State Executive",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "Unknown"
}

// RoleOf derives a character's role from the party's current structure.
// It is recomputed on demand rather than stored on the character.
func RoleOf(id agents.CharacterID, p *Party) Role {
	if p == nil || id == "" {
		return RoleMember
	}
	if p.LeaderID == id {
		return RoleNationalLeader
	}
	if p.DeputyLeaderID == id {
		return RoleNationalDeputy
	}
	for _, b := range p.Branches {
		if b.LeaderID == id {
			return RoleRegionalLeader
		}
	}
	for _, b := range p.Branches {
		if slices.Contains(b.ExecutiveIDs, id) {
			return RoleRegionalExecutive
		}
	}
	return RoleMember
}
