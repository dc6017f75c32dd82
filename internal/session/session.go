// Package session holds the authenticated user of the running client.
//
// Store is the only writer of the current user; everything else reads it through
// Snapshot or the derived helpers. A single Store is built per backend at startup
// and handed to whoever needs it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
)

// AdminRole is the role that unlocks admin-only routes
const AdminRole = "admin"

// ErrMissingCredentials is returned by Login before any request is made
var ErrMissingCredentials = errors.New("username and password are required")

// Authenticator is the slice of the API the session needs
type Authenticator interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
	Profile(ctx context.Context) (*client.ProfileResponse, error)
}

// State is a point-in-time copy of the session
type State struct {
	User           *client.User
	LoadingProfile bool
}

// Store owns the current user and the in-flight profile flag
type Store struct {
	api      Authenticator
	tokens   auth.TokenStore
	validate *validator.Validate
	log      zerolog.Logger

	mu             sync.Mutex
	user           *client.User
	loadingProfile bool
}

// NewStore creates a session store with no user loaded
func NewStore(api Authenticator, tokens auth.TokenStore, log zerolog.Logger) *Store {
	return &Store{
		api:      api,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
	}
}

// Login authenticates, stores the token and replaces the current user
func (s *Store) Login(ctx context.Context, creds client.LoginRequest) (*client.User, error) {
	if err := s.validate.Struct(creds); err != nil {
		return nil, ErrMissingCredentials
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Set(resp.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.log.Info().Str("username", user.Username).Str("role", user.Role).Msg("Logged in")
	return copyUser(&user), nil
}

// LoadProfile returns the current user, fetching it from the backend when needed.
//
// Without a token it returns nil without a request. A cached user is returned unless
// force is set. While another load is in flight it returns whatever user is current
// (possibly nil) instead of issuing a second request. A failed load clears the token
// and the user before returning the error.
func (s *Store) LoadProfile(ctx context.Context, force bool) (*client.User, error) {
	token, err := s.tokens.Get()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if token == "" {
		s.user = nil
		s.mu.Unlock()
		return nil, nil
	}
	if s.user != nil && !force {
		user := copyUser(s.user)
		s.mu.Unlock()
		return user, nil
	}
	if s.loadingProfile {
		user := copyUser(s.user)
		s.mu.Unlock()
		return user, nil
	}
	s.loadingProfile = true
	s.mu.Unlock()

	resp, err := s.api.Profile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingProfile = false

	if err != nil {
		if clearErr := s.tokens.Clear(); clearErr != nil {
			s.log.Error().Err(clearErr).Msg("Failed to clear token after profile failure")
		}
		s.user = nil
		s.log.Debug().Err(err).Msg("Profile load failed")
		return nil, err
	}

	user := resp.User
	s.user = &user
	return copyUser(&user), nil
}

// Logout forgets the token and the user. Calling it again is a no-op.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// HasToken reports whether a token is stored
func (s *Store) HasToken() bool {
	token, err := s.tokens.Get()
	return err == nil && token != ""
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: copyUser(s.user), LoadingProfile: s.loadingProfile}
}

// IsAdmin reports whether the current user is an admin
func (s *Store) IsAdmin() bool {
	return IsAdmin(s.Snapshot().User)
}

// DisplayName returns the current user's display name
func (s *Store) DisplayName() string {
	return DisplayName(s.Snapshot().User)
}

// IsAdmin reports whether the user's role is admin, ignoring case
func IsAdmin(user *client.User) bool {
	return user != nil && strings.EqualFold(user.Role, AdminRole)
}

// DisplayName prefers the full name, then the username
func DisplayName(user *client.User) string {
	if user == nil {
		return ""
	}
	if user.FullName != nil && *user.FullName != "" {
		return *user.FullName
	}
	return user.Username
}

func copyUser(user *client.User) *client.User {
	if user == nil {
		return nil
	}
	u := *user
	return &u
}
