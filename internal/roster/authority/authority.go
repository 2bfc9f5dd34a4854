// Package authority abstracts the guild system of record. The reconciler and
// projector receive this capability interface explicitly; connection lifecycle
// belongs to the bootstrap layer, not to a shared global session.
package authority

import (
	"context"
	"errors"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/sentinel"
)

// Client is the outbound capability surface against the guild.
// GrantRole and RevokeRole are idempotent on the guild side: granting a role
// the person already holds is a no-op.
type Client interface {
	FetchMembers(ctx context.Context) ([]models.MembershipSnapshot, error)
	GrantRole(ctx context.Context, discordID string, role models.Role) error
	RevokeRole(ctx context.Context, discordID string, role models.Role) error
}

// IsRetryable reports whether an authority error is worth retrying: network
// failures, rate limits, and 5xx map to sentinel.ErrUnavailable; everything
// else (unknown member, bad role ID) will not improve on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}
