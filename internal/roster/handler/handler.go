package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rosterbridge/internal/roster/models"
	"rosterbridge/pkg/platform/httputil"
	"rosterbridge/pkg/requestcontext"
)

// Service defines the role command operations the handler exposes.
type Service interface {
	AssignRole(ctx context.Context, discordID string, role models.Role, action models.RoleAction) error
	AssignRoleByName(ctx context.Context, discordName string, role models.Role, action models.RoleAction) error
}

// Handler wires the role assignment endpoints to the command service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the role assignment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assign-player-role", h.assignRole(models.RolePlayer))
	r.Post("/assign-captain-role", h.assignRole(models.RoleCaptain))
	r.Post("/assign-vice-captain-role", h.assignRole(models.RoleViceCaptain))
}

// HandleLiveness handles GET / requests.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("rosterbridge is running"))
}

func (h *Handler) assignRole(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		start := time.Now()

		req, ok := httputil.Decode[AssignRoleRequest](w, r, h.logger)
		if !ok {
			return
		}

		var err error
		if req.DiscordID == "" && req.DiscordName != "" {
			err = h.service.AssignRoleByName(ctx, req.DiscordName, role, req.ParsedAction())
		} else {
			err = h.service.AssignRole(ctx, req.DiscordID, role, req.ParsedAction())
		}
		if err != nil {
			h.logger.ErrorContext(ctx, "role assignment failed",
				"request_id", requestID,
				"discord_id", req.DiscordID,
				"discord_name", req.DiscordName,
				"role", role,
				"action", req.Action,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		h.logger.InfoContext(ctx, "role assigned",
			"request_id", requestID,
			"discord_id", req.DiscordID,
			"role", role,
			"action", req.Action,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		httputil.WriteJSON(w, http.StatusOK, AssignRoleResponse{Success: true})
	}
}
