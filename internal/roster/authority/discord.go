package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"rosterbridge/internal/platform/config"
	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/sentinel"
)

const (
	requestTimeout = 10 * time.Second
	fetchPageSize  = 1000
)

// Discord talks to the Discord REST API for one guild. Role kinds map to
// concrete role IDs through configuration so environments can differ.
type Discord struct {
	http    *http.Client
	apiBase string
	token   string
	guildID string
	roleIDs map[models.Role]string
}

func NewDiscord(cfg config.DiscordConfig) *Discord {
	return &Discord{
		http:    &http.Client{Timeout: requestTimeout},
		apiBase: cfg.APIBase,
		token:   cfg.BotToken,
		guildID: cfg.GuildID,
		roleIDs: map[models.Role]string{
			models.RolePlayer:      cfg.PlayerRoleID,
			models.RoleCaptain:     cfg.CaptainRoleID,
			models.RoleViceCaptain: cfg.ViceCaptainRoleID,
		},
	}
}

func (d *Discord) GrantRole(ctx context.Context, discordID string, role models.Role) error {
	return d.roleRequest(ctx, http.MethodPut, discordID, role)
}

func (d *Discord) RevokeRole(ctx context.Context, discordID string, role models.Role) error {
	return d.roleRequest(ctx, http.MethodDelete, discordID, role)
}

func (d *Discord) roleRequest(ctx context.Context, method, discordID string, role models.Role) error {
	roleID, ok := d.roleIDs[role]
	if !ok || roleID == "" {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("no role ID configured for %s", role))
	}

	endpoint := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", d.apiBase, d.guildID, discordID, roleID)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build role request")
	}
	req.Header.Set("Authorization", "Bot "+d.token)

	resp, err := d.http.Do(req)
	if err != nil {
		return dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err),
			dErrors.CodeExternal, "role request failed")
	}
	defer drain(resp.Body)

	return classifyStatus(resp.StatusCode, fmt.Sprintf("%s role %s for %s", method, role, discordID))
}

type guildMember struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	JoinedAt *time.Time `json:"joined_at"`
}

// FetchMembers pages through the guild member list. Used for the startup
// snapshot sync; the verified-role filter happens upstream at the gateway, so
// every returned entry counts as granted membership.
func (d *Discord) FetchMembers(ctx context.Context) ([]models.MembershipSnapshot, error) {
	var snapshots []models.MembershipSnapshot
	after := ""

	for {
		endpoint := fmt.Sprintf("%s/guilds/%s/members?limit=%d", d.apiBase, d.guildID, fetchPageSize)
		if after != "" {
			endpoint += "&after=" + url.QueryEscape(after)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build members request")
		}
		req.Header.Set("Authorization", "Bot "+d.token)

		resp, err := d.http.Do(req)
		if err != nil {
			return nil, dErrors.Wrap(fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err),
				dErrors.CodeExternal, "fetch members failed")
		}

		if err := classifyStatus(resp.StatusCode, "fetch members"); err != nil {
			drain(resp.Body)
			return nil, err
		}

		var page []guildMember
		err = json.NewDecoder(resp.Body).Decode(&page)
		drain(resp.Body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeExternal, "decode members page")
		}

		for _, m := range page {
			snapshots = append(snapshots, models.MembershipSnapshot{
				DiscordID:   m.User.ID,
				DiscordName: m.User.Username,
				JoinedAt:    m.JoinedAt,
			})
			after = m.User.ID
		}

		if len(page) < fetchPageSize {
			return snapshots, nil
		}
	}
}

// classifyStatus translates an HTTP status into the error taxonomy. Rate
// limits and server errors are retryable; client errors are not.
func classifyStatus(status int, op string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return dErrors.Wrap(fmt.Errorf("%w: status %d", sentinel.ErrUnavailable, status),
			dErrors.CodeExternal, op)
	case status == http.StatusNotFound:
		return dErrors.Wrap(fmt.Errorf("%w: status %d", sentinel.ErrNotFound, status),
			dErrors.CodeExternal, op)
	default:
		return dErrors.Wrap(fmt.Errorf("status %d", status), dErrors.CodeExternal, op)
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<14))
	_ = body.Close()
}
