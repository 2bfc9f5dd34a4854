package handler

import "rosterbridge/internal/roster/models"

// AssignRoleRequest is the body of the role assignment endpoints. The role
// itself is fixed by the route. The target is a Discord ID, or a discord name
// when the caller only knows the player's unique name.
type AssignRoleRequest struct {
	DiscordID   string `json:"discordId"`
	DiscordName string `json:"discordName"`
	Action      string `json:"action"`
}

func (r AssignRoleRequest) ParsedAction() models.RoleAction {
	return models.RoleAction(r.Action)
}

// AssignRoleResponse mirrors the legacy wire shape expected by the companion
// web app.
type AssignRoleResponse struct {
	Success bool `json:"success"`
}
