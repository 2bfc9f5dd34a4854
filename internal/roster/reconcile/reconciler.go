// Package reconcile applies guild membership events to the roster store and
// triggers role projection. Delivery is at-least-once, so every handler is
// idempotent; per-member ordering comes from a keyed mutex, not from the
// transport.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"rosterbridge/internal/roster/integrity"
	"rosterbridge/internal/roster/models"
	"rosterbridge/internal/roster/reconcile/metrics"
	"rosterbridge/internal/roster/store"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/sentinel"
)

const defaultSyncParallelism = 8

var tracer = otel.Tracer("rosterbridge/internal/roster/reconcile")

// RoleProjector is the slice of the projector the reconciler needs.
type RoleProjector interface {
	ProjectRoles(ctx context.Context, discordID string) error
	Invalidate(ctx context.Context, discordID string)
}

// Reconciler turns guild events into roster writes and projections.
type Reconciler struct {
	members   store.MemberStore
	players   store.PlayerStore
	integrity *integrity.Manager
	projector RoleProjector
	metrics   *metrics.Metrics
	logger    *slog.Logger

	keys        *keyedMutex
	parallelism int
}

type Option func(*Reconciler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithSyncParallelism bounds the worker count used by SyncSnapshot.
func WithSyncParallelism(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

func New(members store.MemberStore, players store.PlayerStore, im *integrity.Manager, projector RoleProjector, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		members:     members,
		players:     players,
		integrity:   im,
		projector:   projector,
		logger:      logger,
		keys:        newKeyedMutex(),
		parallelism: defaultSyncParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent reconciles one guild event. Events for the same Discord ID are
// serialized; distinct IDs proceed concurrently.
func (r *Reconciler) HandleEvent(ctx context.Context, event models.GuildEvent) error {
	kind := event.EventKind()
	discordID := event.EventDiscordID()
	if discordID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "event missing discord ID")
	}

	ctx, span := tracer.Start(ctx, "reconcile."+kind,
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.String("discord.id", discordID),
		))
	defer span.End()

	r.keys.Lock(discordID)
	defer r.keys.Unlock(discordID)

	start := time.Now()
	var err error
	switch e := event.(type) {
	case models.MemberVerified:
		err = r.memberVerified(ctx, e)
	case models.MemberLeft:
		err = r.memberLeft(ctx, e)
	case models.MemberRenamed:
		err = r.memberRenamed(ctx, e)
	default:
		err = dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown event kind %q", kind))
	}

	r.metrics.ObserveReconcileLatency(kind, time.Since(start))
	if err != nil {
		r.metrics.IncrementEvent(kind, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "event reconciliation failed",
			"kind", kind,
			"discord_id", discordID,
			"error", err,
		)
		return err
	}
	r.metrics.IncrementEvent(kind, "ok")
	return nil
}

// memberVerified records granted membership: upsert the member row, repoint
// any existing player at it, and project roles when the player is on a team.
func (r *Reconciler) memberVerified(ctx context.Context, e models.MemberVerified) error {
	stored, err := r.members.Upsert(ctx, models.Member{
		DiscordID:   e.DiscordID,
		DiscordName: e.DiscordName,
		JoinedAt:    e.JoinedAt,
	})
	if err != nil {
		return err
	}

	player, err := r.integrity.Relink(ctx, e.DiscordID, stored.Key, e.DiscordName)
	if err != nil {
		return err
	}
	if player == nil || player.TeamKey == "" {
		return nil
	}
	return r.projector.ProjectRoles(ctx, e.DiscordID)
}

// memberLeft removes the member row only. The player row and its team linkage
// survive so a returning member picks up where they left off, and guild roles
// vanish with the membership itself.
func (r *Reconciler) memberLeft(ctx context.Context, e models.MemberLeft) error {
	deleted, err := r.members.DeleteByDiscordID(ctx, e.DiscordID)
	if err != nil {
		return err
	}
	if deleted {
		r.projector.Invalidate(ctx, e.DiscordID)
	}
	return nil
}

// memberRenamed propagates a display-name change to both entities. Equal
// names short-circuit without touching the store.
func (r *Reconciler) memberRenamed(ctx context.Context, e models.MemberRenamed) error {
	if e.OldName == e.NewName {
		return nil
	}

	member, err := r.members.FindByDiscordID(ctx, e.DiscordID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// Not a verified member; fall through to the player rename.
	case err != nil:
		return err
	default:
		member.DiscordName = e.NewName
		if _, err := r.members.Upsert(ctx, *member); err != nil {
			return err
		}
	}

	player, err := r.players.FindByDiscordID(ctx, e.DiscordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	player.DiscordName = e.NewName
	_, err = r.players.Save(ctx, *player)
	return err
}

// SyncSnapshot reconciles a full membership snapshot, typically at startup.
// Entries run through the normal MemberVerified path with bounded
// parallelism; each entry is independent, so cancellation mid-run leaves no
// partial write behind.
func (r *Reconciler) SyncSnapshot(ctx context.Context, snapshot []models.MembershipSnapshot) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "reconcile.snapshot_sync",
		trace.WithAttributes(attribute.Int("snapshot.size", len(snapshot))))
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, entry := range snapshot {
		g.Go(func() error {
			return r.HandleEvent(ctx, models.MemberVerified{
				DiscordID:   entry.DiscordID,
				DiscordName: entry.DiscordName,
				JoinedAt:    entry.JoinedAt,
			})
		})
	}

	err := g.Wait()
	r.metrics.ObserveSnapshot(len(snapshot), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	r.logger.InfoContext(ctx, "snapshot sync complete",
		"members", len(snapshot),
		"duration", time.Since(start).String(),
	)
	return nil
}

// Sweep runs one integrity pass over the member table, repairing stale player
// links left behind by interrupted relinks.
func (r *Reconciler) Sweep(ctx context.Context) error {
	healed, err := r.integrity.Sweep(ctx)
	if err != nil {
		return err
	}
	r.metrics.AddSweepHealed(healed)
	return nil
}
