package config

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto/res"
	"festival-chat-api/handler"
	"festival-chat-api/realtime"
	"festival-chat-api/testkit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiSuite struct {
	t   *testing.T
	app *fiber.App
}

func newAPISuite(t *testing.T, settings map[string]interface{}) *apiSuite {
	t.Helper()

	v := viper.New()
	v.Set("JWT_SECRET", "festival-access-secret")
	v.Set("JWT_REFRESH_SECRET", "festival-refresh-secret")
	v.Set("BCRYPT_COST", 4)
	for key, value := range settings {
		v.Set(key, value)
	}
	cfg := common.NewConfig(v)

	log := logrus.New()
	log.SetOutput(io.Discard)
	app := NewFiber(cfg, log)

	_, err := App(&AppConfig{
		App:      app,
		Validate: NewValidator(),
		Logger:   log,
		DB:       testkit.NewDB(t),
		Config:   cfg,
		Log:      logger.NewNopLogger(),
		Broker:   realtime.NewLocalBroker(),
	})
	require.NoError(t, err)
	return &apiSuite{t: t, app: app}
}

func (s *apiSuite) call(method, path, token string, body interface{}) (int, []byte) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := s.app.Test(request, -1)
	require.NoError(s.t, err)
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	require.NoError(s.t, err)
	return response.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) res.CommonResponse[T] {
	t.Helper()
	var out res.CommonResponse[T]
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func decodeError(t *testing.T, raw []byte) res.ErrorResponse {
	t.Helper()
	var out res.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (s *apiSuite) register(name, email string) res.AuthResponse {
	s.t.Helper()
	status, raw := s.call(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "wristband",
	})
	require.Equal(s.t, http.StatusCreated, status, string(raw))
	return decode[res.AuthResponse](s.t, raw).Data
}

func TestChatFlowOverHTTP(t *testing.T) {
	s := newAPISuite(t, nil)
	alice := s.register("Alice", "alice@festival.test")
	bob := s.register("Bob", "bob@festival.test")

	status, raw := s.call(http.MethodPost, "/api/v1/chats", alice.AccessToken, map[string]interface{}{
		"name": "Main Stage", "category": "events",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	chat := decode[res.ChatResponse](t, raw).Data

	status, raw = s.call(http.MethodPost, "/api/v1/chats/join-by-name", bob.AccessToken, map[string]string{"name": "main stage"})
	require.Equal(t, http.StatusOK, status, string(raw))
	joined := decode[res.ChatResponse](t, raw).Data
	assert.Equal(t, chat.ID, joined.ID)
	assert.Equal(t, 2, joined.ParticipantCount)
	assert.True(t, joined.IsParticipant)

	status, raw = s.call(http.MethodPost, "/api/v1/messages/"+chat.ID, bob.AccessToken, map[string]string{"content": "front row?"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	sent := decode[res.MessageResponse](t, raw).Data
	assert.True(t, sent.IsOwnMessage)
	assert.Equal(t, res.PositionRight, sent.Position)

	status, raw = s.call(http.MethodGet, "/api/v1/messages/"+chat.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decode[res.MessagePageResponse](t, raw).Data
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "front row?", page.Messages[0].Content)
	assert.Equal(t, res.PositionLeft, page.Messages[0].Position)
	assert.False(t, page.Pagination.HasMore)

	status, raw = s.call(http.MethodPost, "/api/v1/chats/"+chat.ID+"/leave", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = s.call(http.MethodPost, "/api/v1/messages/"+chat.ID, bob.AccessToken, map[string]string{"content": "still here?"})
	assert.Equal(t, http.StatusForbidden, status, string(raw))
}

func TestJoinByNameSuggestsChats(t *testing.T) {
	s := newAPISuite(t, nil)
	alice := s.register("Alice", "alice@festival.test")

	status, raw := s.call(http.MethodPost, "/api/v1/chats", alice.AccessToken, map[string]interface{}{"name": "Food Court"})
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = s.call(http.MethodPost, "/api/v1/chats/join-by-name", alice.AccessToken, map[string]string{"name": "Food"})
	require.Equal(t, http.StatusNotFound, status, string(raw))
	failure := decodeError(t, raw)
	assert.False(t, failure.Success)
	assert.Equal(t, []interface{}{"Food Court"}, failure.Details["suggestions"])
}

func TestRegisterValidation(t *testing.T) {
	s := newAPISuite(t, nil)

	status, raw := s.call(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "A", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, status)
	failure := decodeError(t, raw)
	fields := make([]string, 0, len(failure.Errors))
	for _, f := range failure.Errors {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)

	s.register("Alice", "alice@festival.test")
	status, _ = s.call(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Alice", "email": "ALICE@festival.test", "password": "wristband",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestProtectedRoutesNeedAToken(t *testing.T) {
	s := newAPISuite(t, nil)

	status, raw := s.call(http.MethodGet, "/api/v1/chats", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, raw).Code)

	status, raw = s.call(http.MethodGet, "/api/v1/chats", "not.a.token", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, raw).Code)

	alice := s.register("Alice", "alice@festival.test")
	status, raw = s.call(http.MethodGet, "/api/v1/chats", alice.RefreshToken, nil)
	require.Equal(t, http.StatusUnauthorized, status, "refresh tokens are not access tokens")
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, raw).Code)

	status, _ = s.call(http.MethodGet, "/api/v1/users", alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAuthRateLimit(t *testing.T) {
	s := newAPISuite(t, map[string]interface{}{"RATE_LIMIT_AUTH": 2})
	credentials := map[string]string{"email": "nobody@festival.test", "password": "wristband"}

	for i := 0; i < 2; i++ {
		status, _ := s.call(http.MethodPost, "/api/v1/auth/login", "", credentials)
		require.Equal(t, http.StatusUnauthorized, status)
	}
	status, raw := s.call(http.MethodPost, "/api/v1/auth/login", "", credentials)
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, raw).Code)
}

func TestHealth(t *testing.T) {
	s := newAPISuite(t, nil)

	status, raw := s.call(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	health := decode[handler.HealthResponse](t, raw).Data
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Zero(t, health.OnlineUsers)
}
