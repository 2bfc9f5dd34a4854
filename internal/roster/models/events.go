package models

import "time"

// GuildEvent is the tagged union of inbound guild events. The reconciler
// switches on the concrete type; transports (Kafka, tests) construct them
// explicitly instead of registering callbacks on a live session.
type GuildEvent interface {
	EventDiscordID() string
	EventKind() string
}

// MemberVerified fires when a person gains verified guild membership.
type MemberVerified struct {
	DiscordID   string
	DiscordName string
	JoinedAt    *time.Time
}

func (e MemberVerified) EventDiscordID() string { return e.DiscordID }
func (e MemberVerified) EventKind() string      { return "member_verified" }

// MemberLeft fires when a person leaves the guild.
type MemberLeft struct {
	DiscordID string
}

func (e MemberLeft) EventDiscordID() string { return e.DiscordID }
func (e MemberLeft) EventKind() string      { return "member_left" }

// MemberRenamed fires when a member's display name changes. The gateway emits
// it only on an actual change; the reconciler still treats equal names as a
// no-op so redelivery stays cheap.
type MemberRenamed struct {
	DiscordID string
	OldName   string
	NewName   string
}

func (e MemberRenamed) EventDiscordID() string { return e.DiscordID }
func (e MemberRenamed) EventKind() string      { return "member_renamed" }
