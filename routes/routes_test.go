package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"devsync/config"
	"devsync/services"
	"devsync/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t   *testing.T
	app *fiber.App
}

func newClient(t *testing.T) *client {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig.JWTSecret = "routes-test-secret"
	config.AppConfig.InviteRateLimit = 2
	t.Cleanup(func() { config.AppConfig = prev })

	db := testutil.NewDB(t)
	logger, _ := testutil.Logger()
	hub := services.NewActivityHub()
	svc := services.New(services.Deps{
		DB:         db,
		Logger:     logger,
		Mailer:     &testutil.FakeMailer{},
		Dispatcher: &testutil.FakeDispatcher{},
		Hub:        hub,
		BaseURL:    "https://devsync.test/",
	})

	app := fiber.New()
	SetupAuthRoutes(app, db, svc, logger)
	SetupAPIRoutes(app, db, svc, hub, logger)
	return &client{t: t, app: app}
}

func (c *client) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func (c *client) register(username string) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	})
	require.Equal(c.t, http.StatusCreated, status, body)
	return body["access_token"].(string)
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t)
	token := c.register("ada")

	status, body := c.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada", body["username"])

	status, body = c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "ada", "email": "other@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "username", body["field"])

	status, _ = c.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ada", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = c.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "ada@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, status)
	refresh := body["refresh_token"].(string)

	status, _ = c.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIRequiresToken(t *testing.T) {
	c := newClient(t)

	status, _ := c.do(http.MethodGet, "/api/v1/teams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/api/v1/teams", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTeamEndpoints(t *testing.T) {
	c := newClient(t)
	ada := c.register("ada")
	grace := c.register("grace")

	status, body := c.do(http.MethodPost, "/api/v1/teams", ada, map[string]string{"name": "Platform", "team_type": "group"})
	require.Equal(t, http.StatusCreated, status, body)
	team := body["data"].(map[string]interface{})
	teamPath := fmt.Sprintf("/api/v1/teams/%v", team["id"])
	code := team["invite_code"].(string)

	status, _ = c.do(http.MethodPost, "/api/v1/teams", ada, map[string]string{"name": "Platform"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = c.do(http.MethodPost, "/api/v1/teams", ada, map[string]string{"name": "Other", "team_type": "guild"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = c.do(http.MethodGet, teamPath, grace, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodGet, "/api/v1/teams/9999", ada, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodGet, "/api/v1/teams/abc", ada, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = c.do(http.MethodPost, "/api/v1/teams/join", grace, map[string]string{"invite_code": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	// a valid code alone is not enough without an invitation
	status, _ = c.do(http.MethodPost, "/api/v1/teams/join", grace, map[string]string{"invite_code": code})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = c.do(http.MethodPost, teamPath+"/invites", ada, map[string]string{"emails": "grace@example.com"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = c.do(http.MethodPost, "/api/v1/teams/join", grace, map[string]string{"invite_code": code})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = c.do(http.MethodPost, "/api/v1/teams/join", grace, map[string]string{"invite_code": code})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodGet, teamPath, grace, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodDelete, teamPath, grace, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestInviteRateLimit(t *testing.T) {
	c := newClient(t)
	ada := c.register("ada")
	_, body := c.do(http.MethodPost, "/api/v1/teams", ada, map[string]string{"name": "Platform"})
	invites := fmt.Sprintf("/api/v1/teams/%v/invites", body["data"].(map[string]interface{})["id"])

	for i := 0; i < 2; i++ {
		status, body := c.do(http.MethodPost, invites, ada, map[string]string{"emails": fmt.Sprintf("dev%d@example.com", i)})
		require.Equal(t, http.StatusOK, status, body)
	}
	status, _ := c.do(http.MethodPost, invites, ada, map[string]string{"emails": "dev9@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestAIJobEndpoints(t *testing.T) {
	c := newClient(t)
	ada := c.register("ada")
	grace := c.register("grace")

	_, body := c.do(http.MethodPost, "/api/v1/teams", ada, map[string]string{"name": "Platform"})
	teamID := body["data"].(map[string]interface{})["id"]
	status, body := c.do(http.MethodPost, "/api/v1/projects", ada, map[string]interface{}{
		"team_id": teamID, "name": "API", "description": "public API", "project_type": "backend",
	})
	require.Equal(t, http.StatusCreated, status, body)
	projectPath := fmt.Sprintf("/api/v1/projects/%v", body["data"].(map[string]interface{})["id"])

	status, _ = c.do(http.MethodPost, fmt.Sprintf("/api/v1/teams/%v/vibe", teamID), grace, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodPost, fmt.Sprintf("/api/v1/teams/%v/vibe", teamID), ada, nil)
	require.Equal(t, http.StatusAccepted, status, body)
	assert.Equal(t, services.AIStatusProcessing, body["status"])

	status, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/ai/team-vibe/%v/status", teamID), ada, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.AIStatusProcessing, body["status"])

	status, _ = c.do(http.MethodPost, projectPath+"/feature-plans", ada, map[string]string{"idea": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = c.do(http.MethodPost, projectPath+"/feature-plans", ada, map[string]string{"idea": "dark mode"})
	require.Equal(t, http.StatusAccepted, status, body)
	planID := body["data"].(map[string]interface{})["id"]

	status, body = c.do(http.MethodGet, fmt.Sprintf("/api/v1/ai/feature-plan/%v/status", planID), ada, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.AIStatusProcessing, body["status"])

	status, body = c.do(http.MethodGet, projectPath+"/feature-plans", ada, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}
