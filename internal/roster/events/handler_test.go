package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterbridge/internal/platform/kafka/consumer"
	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
)

type fakeReconciler struct {
	events []models.GuildEvent
	err    error
}

func (f *fakeReconciler) HandleEvent(_ context.Context, event models.GuildEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func TestDecode(t *testing.T) {
	t.Run("member verified", func(t *testing.T) {
		joined := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		payload := []byte(`{"type":"member_verified","discordId":"u1","discordName":"alice","joinedAt":"2025-06-01T12:00:00Z"}`)

		event, err := Decode(payload)
		require.NoError(t, err)
		verified, ok := event.(models.MemberVerified)
		require.True(t, ok)
		assert.Equal(t, "u1", verified.DiscordID)
		assert.Equal(t, "alice", verified.DiscordName)
		require.NotNil(t, verified.JoinedAt)
		assert.True(t, joined.Equal(*verified.JoinedAt))
	})

	t.Run("member left", func(t *testing.T) {
		event, err := Decode([]byte(`{"type":"member_left","discordId":"u1"}`))
		require.NoError(t, err)
		assert.Equal(t, models.MemberLeft{DiscordID: "u1"}, event)
	})

	t.Run("member renamed", func(t *testing.T) {
		event, err := Decode([]byte(`{"type":"member_renamed","discordId":"u1","oldName":"a","newName":"b"}`))
		require.NoError(t, err)
		assert.Equal(t, models.MemberRenamed{DiscordID: "u1", OldName: "a", NewName: "b"}, event)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"member_banned","discordId":"u1"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("missing discord ID", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"member_left"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := Decode([]byte(`{`))
		require.Error(t, err)
	})
}

func TestHandler_DispatchesDecodedEvent(t *testing.T) {
	rec := &fakeReconciler{}
	h := NewHandler(rec, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), &consumer.Message{
		Topic: "guild.events",
		Value: []byte(`{"type":"member_left","discordId":"u1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.GuildEvent{models.MemberLeft{DiscordID: "u1"}}, rec.events)
}

func TestHandler_SkipsMalformedPayload(t *testing.T) {
	rec := &fakeReconciler{}
	h := NewHandler(rec, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), &consumer.Message{Value: []byte(`not json`)})
	require.NoError(t, err)
	assert.Empty(t, rec.events)
}

func TestHandler_SkipsUnprocessableEvent(t *testing.T) {
	rec := &fakeReconciler{err: dErrors.New(dErrors.CodeBadRequest, "event missing discord ID")}
	h := NewHandler(rec, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), &consumer.Message{
		Value: []byte(`{"type":"member_left","discordId":"u1"}`),
	})
	require.NoError(t, err)
}

func TestHandler_PropagatesReconcileFailure(t *testing.T) {
	wantErr := dErrors.New(dErrors.CodeInternal, "store down")
	rec := &fakeReconciler{err: wantErr}
	h := NewHandler(rec, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), &consumer.Message{
		Value: []byte(`{"type":"member_left","discordId":"u1"}`),
	})
	require.ErrorIs(t, err, wantErr)
}
