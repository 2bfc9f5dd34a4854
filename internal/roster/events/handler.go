// Package events decodes guild event envelopes off the wire and feeds them to
// the reconciler.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rosterbridge/internal/platform/kafka/consumer"
	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
)

var malformedPayloads = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rosterbridge_malformed_event_payloads_total",
	Help: "Total event payloads skipped because they could not be decoded",
})

// Envelope kind tags on the wire.
const (
	TypeMemberVerified = "member_verified"
	TypeMemberLeft     = "member_left"
	TypeMemberRenamed  = "member_renamed"
)

// Reconciler is the slice of the reconciler the handler needs.
type Reconciler interface {
	HandleEvent(ctx context.Context, event models.GuildEvent) error
}

// envelope is the JSON shape published by the gateway.
type envelope struct {
	Type        string     `json:"type"`
	DiscordID   string     `json:"discordId"`
	DiscordName string     `json:"discordName,omitempty"`
	JoinedAt    *time.Time `json:"joinedAt,omitempty"`
	OldName     string     `json:"oldName,omitempty"`
	NewName     string     `json:"newName,omitempty"`
}

// Decode turns an envelope payload into its tagged event type.
func Decode(payload []byte) (models.GuildEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "decode event envelope")
	}
	if env.DiscordID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event envelope missing discordId")
	}

	switch env.Type {
	case TypeMemberVerified:
		return models.MemberVerified{
			DiscordID:   env.DiscordID,
			DiscordName: env.DiscordName,
			JoinedAt:    env.JoinedAt,
		}, nil
	case TypeMemberLeft:
		return models.MemberLeft{DiscordID: env.DiscordID}, nil
	case TypeMemberRenamed:
		return models.MemberRenamed{
			DiscordID: env.DiscordID,
			OldName:   env.OldName,
			NewName:   env.NewName,
		}, nil
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown event type %q", env.Type))
	}
}

// Handler adapts the reconciler to the Kafka consumer contract.
type Handler struct {
	reconciler Reconciler
	logger     *slog.Logger
}

func NewHandler(reconciler Reconciler, logger *slog.Logger) *Handler {
	return &Handler{reconciler: reconciler, logger: logger}
}

// Handle decodes and reconciles one message. Malformed payloads are counted
// and skipped: retrying cannot fix them. Reconcile failures propagate so the
// consumer retries the record instead of committing past it.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := Decode(msg.Value)
	if err != nil {
		malformedPayloads.Inc()
		h.logger.WarnContext(ctx, "skipping malformed event payload",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	if err := h.reconciler.HandleEvent(ctx, event); err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) {
			malformedPayloads.Inc()
			h.logger.WarnContext(ctx, "skipping unprocessable event",
				"kind", event.EventKind(),
				"discord_id", event.EventDiscordID(),
				"error", err,
			)
			return nil
		}
		return err
	}
	return nil
}
