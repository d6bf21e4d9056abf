package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/domtes/chemmazz/internal/auth"
	"github.com/domtes/chemmazz/internal/database"
	"github.com/domtes/chemmazz/internal/models"
)

// ErrNameInUse is returned when a guest login collides with a display
// name that is already taken.
var ErrNameInUse = errors.New("display name already in use")

// ErrInvalidCredentials is returned when a registered user's password
// does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore resolves logins to user records. Guests live in memory only;
// registered users go to Postgres when a pool is connected.
type UserStore interface {
	// Login resolves a display name to a user, creating one on first use.
	// An empty password means a guest login.
	Login(ctx context.Context, displayName, password string) (*models.User, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Logout releases a guest's display name; registered users keep theirs.
	Logout(ctx context.Context, id uuid.UUID) error
}

// NewUserStore picks the backing store based on whether the database pool
// is connected.
func NewUserStore() UserStore {
	mem := newMemoryUserStore()
	if database.DB != nil {
		return &postgresUserStore{guests: mem}
	}
	return mem
}

// memoryUserStore keeps every user in process memory. It is the whole
// store in guest-only deployments and the guest half otherwise.
type memoryUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	byName map[string]uuid.UUID
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		users:  make(map[uuid.UUID]*models.User),
		byName: make(map[string]uuid.UUID),
	}
}

func (s *memoryUserStore) Login(ctx context.Context, displayName, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byName[displayName]; ok {
		u := s.users[id]
		if u.IsGuest {
			return nil, ErrNameInUse
		}
		match, err := auth.ComparePasswordAndHash(password, u.Password)
		if err != nil || !match {
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}

	u := &models.User{
		ID:          uuid.New(),
		DisplayName: displayName,
		IsGuest:     password == "",
	}
	if password != "" {
		hash, err := auth.CreateHash(password, auth.Params)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	s.users[u.ID] = u
	s.byName[displayName] = u.ID
	return u, nil
}

func (s *memoryUserStore) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return u, nil
}

func (s *memoryUserStore) Logout(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	if u.IsGuest {
		delete(s.byName, u.DisplayName)
		delete(s.users, id)
	}
	return nil
}

// postgresUserStore persists registered users and keeps guests in memory.
type postgresUserStore struct {
	guests *memoryUserStore
}

func (s *postgresUserStore) Login(ctx context.Context, displayName, password string) (*models.User, error) {
	if password == "" {
		// A guest may not squat on a registered name.
		if _, err := database.GetUserByDisplayName(ctx, displayName); err == nil {
			return nil, ErrNameInUse
		}
		return s.guests.Login(ctx, displayName, password)
	}

	u, err := database.GetUserByDisplayName(ctx, displayName)
	if errors.Is(err, pgx.ErrNoRows) {
		u = &models.User{DisplayName: displayName, Password: password}
		if err := database.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != nil {
		return nil, err
	}
	match, err := auth.ComparePasswordAndHash(password, u.Password)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *postgresUserStore) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, err := s.guests.ByID(ctx, id); err == nil {
		return u, nil
	}
	return database.GetUserByID(ctx, id)
}

func (s *postgresUserStore) Logout(ctx context.Context, id uuid.UUID) error {
	return s.guests.Logout(ctx, id)
}

type loginRequest struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password,omitempty"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// LoginHandler logs a player in by display name. Without a password the
// login is a guest session and a taken name is refused with 401; with a
// password it registers on first use and authenticates afterwards.
func LoginHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}
		req.DisplayName = strings.TrimSpace(req.DisplayName)
		if req.DisplayName == "" {
			http.Error(w, "displayName is required", http.StatusBadRequest)
			return
		}

		user, err := s.Users.Login(r.Context(), req.DisplayName, req.Password)
		if errors.Is(err, ErrNameInUse) {
			http.Error(w, "display name already in use", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}
		if err != nil {
			s.Logger.Errorf("login failed for %q: %v", req.DisplayName, err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		token, err := auth.CreateJWT(user.ID.String())
		if err != nil {
			s.Logger.Errorf("failed to create jwt: %v", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			HttpOnly: true,
			Path:     "/",
			MaxAge:   auth.TokenTTLSeconds(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse{Token: token, User: *user})
	}
}

// LogoutHandler releases the session and clears the cookie.
func LogoutHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, err := authenticateRequest(r); err == nil {
			if err := s.Users.Logout(r.Context(), id); err != nil {
				s.Logger.Warnf("logout cleanup failed for %s: %v", id, err)
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    "",
			HttpOnly: true,
			Path:     "/",
			MaxAge:   -1,
		})
		w.WriteHeader(http.StatusOK)
	}
}

// SessionHandler returns the logged-in user, for client bootstrap.
func SessionHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		u, err := s.Users.ByID(r.Context(), id)
		if err != nil {
			http.Error(w, "unknown session", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}

// authenticateRequest resolves the auth_token cookie to a user id.
func authenticateRequest(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		return uuid.Nil, errors.New("missing auth_token cookie")
	}
	idStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(idStr)
}
