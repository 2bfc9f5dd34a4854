// Package models holds the roster domain entities. Cross-entity links are
// opaque string keys resolved through store lookups, never direct pointers, so
// a dangling key is observable and repairable rather than a nil dereference.
package models

import "time"

// Member mirrors a verified guild member. Rows exist only while the person
// holds verified membership; the matching Player survives their departure.
//
// Key is a surrogate row key assigned on first insert and stable across
// upserts. Players link to it, not to the Discord ID, so a leave-and-rejoin
// produces a fresh row whose stale predecessor is observable and collectable.
type Member struct {
	Key         string
	DiscordID   string
	DiscordName string
	JoinedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerStatus tracks a player's availability in the league.
type PlayerStatus string

const (
	StatusAvailable PlayerStatus = "available"
	StatusSigned    PlayerStatus = "signed"
	StatusCooldown  PlayerStatus = "cooldown"
)

// Player is a league participant, independent of live guild membership.
//
// MemberKey, when set, names the Member row currently linked to this player;
// it must reference a Member with the same DiscordID. A mismatch is transient
// (healed by the next relink or sweep), never fatal.
type Player struct {
	DiscordID   string
	DiscordName string

	MemberKey string // empty = no linked member
	TeamKey   string // empty = unassigned

	Status       PlayerStatus
	CooldownEnds *time.Time
	JoinDate     *time.Time
	ReleaseDate  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Team is a roster grouping of players. Written out-of-band by the league app;
// read-only from this service's perspective.
type Team struct {
	Name        string
	Captain     string // player DiscordID
	ViceCaptain string // player DiscordID
	Roster      []string
	IsActive    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OnRoster reports whether the given player key appears in the team roster.
func (t *Team) OnRoster(discordID string) bool {
	for _, key := range t.Roster {
		if key == discordID {
			return true
		}
	}
	return false
}

// Role is a guild role this service projects.
type Role string

const (
	RolePlayer      Role = "PLAYER"
	RoleCaptain     Role = "CAPTAIN"
	RoleViceCaptain Role = "VICE_CAPTAIN"
)

// ValidRole reports whether r is one of the projected role kinds.
func ValidRole(r Role) bool {
	switch r {
	case RolePlayer, RoleCaptain, RoleViceCaptain:
		return true
	}
	return false
}

// RoleAction is the direction of a role command.
type RoleAction string

const (
	ActionAdd    RoleAction = "add"
	ActionRemove RoleAction = "remove"
)

// ValidAction reports whether a is a known role action.
func ValidAction(a RoleAction) bool {
	return a == ActionAdd || a == ActionRemove
}

// MembershipSnapshot is one entry of a bulk membership fetch, used to replace
// events missed while the service was down.
type MembershipSnapshot struct {
	DiscordID   string
	DiscordName string
	JoinedAt    *time.Time
}
