package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domtes/chemmazz/internal/auth"
	"github.com/domtes/chemmazz/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	require.NoError(t, auth.Init())
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewServer(logger, newMemoryUserStore())
}

func doLogin(t *testing.T, s *Server, displayName, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(loginRequest{DisplayName: displayName, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	LoginHandler(s)(w, req)
	return w
}

func TestGuestLoginSetsCookie(t *testing.T) {
	s := newTestServer(t)

	w := doLogin(t, s, "giulia", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "giulia", resp.User.DisplayName)
	assert.True(t, resp.User.IsGuest)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
}

func TestGuestLoginDuplicateNameIs401(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, doLogin(t, s, "marco", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doLogin(t, s, "marco", "").Code)
}

func TestRegisteredLoginRoundTrip(t *testing.T) {
	s := newTestServer(t)

	// First login with a password registers the name.
	require.Equal(t, http.StatusOK, doLogin(t, s, "carla", "s3cret").Code)

	// Correct password logs in again; wrong one is refused.
	assert.Equal(t, http.StatusOK, doLogin(t, s, "carla", "s3cret").Code)
	assert.Equal(t, http.StatusForbidden, doLogin(t, s, "carla", "nope").Code)
}

func TestSessionHandler(t *testing.T) {
	s := newTestServer(t)

	w := doLogin(t, s, "pietro", "")
	var resp loginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Cookie", "auth_token="+resp.Token)
	rec := httptest.NewRecorder()
	SessionHandler(s)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var u models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&u))
	assert.Equal(t, "pietro", u.DisplayName)

	// No cookie means no session.
	rec = httptest.NewRecorder()
	SessionHandler(s)(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutFreesGuestName(t *testing.T) {
	s := newTestServer(t)

	w := doLogin(t, s, "anna", "")
	var resp loginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Cookie", "auth_token="+resp.Token)
	rec := httptest.NewRecorder()
	LogoutHandler(s)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The name is available again.
	assert.Equal(t, http.StatusOK, doLogin(t, s, "anna", "").Code)
}

func TestCreateAndListRooms(t *testing.T) {
	s := newTestServer(t)

	w := doLogin(t, s, "host", "")
	var resp loginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	cookie := "auth_token=" + resp.Token

	body, _ := json.Marshal(createRoomRequest{Name: "friday night", MinimumBet: 25})
	req := httptest.NewRequest(http.MethodPost, "/room/create", bytes.NewReader(body))
	req.Header.Set("Cookie", cookie)
	rec := httptest.NewRecorder()
	CreateRoomHandler(s)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var created roomInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "friday night", created.Name)
	assert.NotEmpty(t, created.ID)

	req = httptest.NewRequest(http.MethodGet, "/room/list", nil)
	req.Header.Set("Cookie", cookie)
	rec = httptest.NewRecorder()
	ListRoomsHandler(s)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []roomInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, created.ID, rooms[0].ID)

	// Unauthenticated requests are refused.
	rec = httptest.NewRecorder()
	ListRoomsHandler(s)(rec, httptest.NewRequest(http.MethodGet, "/room/list", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
