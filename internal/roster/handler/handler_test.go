package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
)

type assignCall struct {
	discordID   string
	discordName string
	role        models.Role
	action      models.RoleAction
}

type fakeService struct {
	calls []assignCall
	err   error
}

func (f *fakeService) AssignRole(_ context.Context, discordID string, role models.Role, action models.RoleAction) error {
	f.calls = append(f.calls, assignCall{discordID: discordID, role: role, action: action})
	if f.err != nil {
		return f.err
	}
	if !models.ValidAction(action) {
		return dErrors.New(dErrors.CodeBadRequest, "unknown action")
	}
	return nil
}

func (f *fakeService) AssignRoleByName(_ context.Context, discordName string, role models.Role, action models.RoleAction) error {
	f.calls = append(f.calls, assignCall{discordName: discordName, role: role, action: action})
	return f.err
}

type HandlerSuite struct {
	suite.Suite
	service *fakeService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = &fakeService{}
	h := New(s.service, slog.New(slog.DiscardHandler))
	s.router = chi.NewRouter()
	s.router.Get("/", h.HandleLiveness)
	h.Register(s.router)
}

func (s *HandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) TestAssignPlayerRole() {
	w := s.post("/assign-player-role", `{"discordId":"u1","action":"add"}`)

	s.Equal(http.StatusOK, w.Code)
	var resp AssignRoleResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.True(resp.Success)
	s.Equal([]assignCall{{discordID: "u1", role: models.RolePlayer, action: models.ActionAdd}}, s.service.calls)
}

func (s *HandlerSuite) TestRouteFixesRole() {
	s.post("/assign-captain-role", `{"discordId":"u1","action":"remove"}`)
	s.post("/assign-vice-captain-role", `{"discordId":"u2","action":"add"}`)

	s.Equal([]assignCall{
		{discordID: "u1", role: models.RoleCaptain, action: models.ActionRemove},
		{discordID: "u2", role: models.RoleViceCaptain, action: models.ActionAdd},
	}, s.service.calls)
}

func (s *HandlerSuite) TestAssignByDiscordName() {
	w := s.post("/assign-captain-role", `{"discordName":"alice","action":"add"}`)

	s.Equal(http.StatusOK, w.Code)
	s.Equal([]assignCall{{discordName: "alice", role: models.RoleCaptain, action: models.ActionAdd}}, s.service.calls)
}

func (s *HandlerSuite) TestDiscordIDWinsOverName() {
	s.post("/assign-player-role", `{"discordId":"u1","discordName":"alice","action":"add"}`)

	s.Equal([]assignCall{{discordID: "u1", role: models.RolePlayer, action: models.ActionAdd}}, s.service.calls)
}

func (s *HandlerSuite) TestInvalidActionIsBadRequest() {
	w := s.post("/assign-player-role", `{"discordId":"u1","action":"toggle"}`)

	s.Equal(http.StatusBadRequest, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("bad_request", body["error"])
}

func (s *HandlerSuite) TestMalformedBodyIsBadRequest() {
	w := s.post("/assign-player-role", `{"discordId":`)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Empty(s.service.calls)
}

func (s *HandlerSuite) TestAuthorityFailureIsServerError() {
	s.service.err = dErrors.New(dErrors.CodeExternal, "guild unreachable")

	w := s.post("/assign-player-role", `{"discordId":"u1","action":"add"}`)

	s.Equal(http.StatusInternalServerError, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal("external_authority", body["error"])
	s.NotContains(body, "error_description")
}

func (s *HandlerSuite) TestLiveness() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "running")
}
