// Package session owns the authenticated identity: at most one current user,
// mirrored to device storage and obtained from the remote auth endpoint.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/api"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

// Config wires a Store to its collaborators. Bus may be nil.
type Config struct {
	HTTP    api.HTTPClient
	BaseURL string
	Mirror  *persist.Mirror
	Clock   types.Clock
	IDs     types.IDGenerator
	Bus     *events.Bus
	Logger  zerolog.Logger
}

// Store holds the current user. Mutations are serialised; each one persists
// before it becomes visible, so a failed write leaves the session unchanged.
type Store struct {
	cfg Config
	log zerolog.Logger

	writeMu sync.Mutex // serialises Load and mutations

	mu      sync.RWMutex
	user    *types.User
	loading bool
}

func New(cfg Config) *Store {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDs == nil {
		cfg.IDs = types.UUIDGenerator{}
	}
	return &Store{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("store", "session").Logger(),
		loading: true,
	}
}

// Load restores the persisted user. Read failures and corrupt data yield no
// session; they are logged, never returned. A persisted JWT whose exp claim
// has passed is discarded.
func (s *Store) Load(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var stored types.User
	var user *types.User
	if s.cfg.Mirror.Load(ctx, persist.KeyUser, &stored) && stored.ID != "" {
		user = &stored
	}
	if user != nil && user.Token != "" && tokenExpired(user.Token, s.cfg.Clock.Now()) {
		s.log.Info().Str("user_id", user.ID).Msg("persisted session token expired, signing out")
		if err := s.cfg.Mirror.Remove(ctx, persist.KeyUser); err != nil {
			s.log.Warn().Err(err).Msg("could not remove expired session")
		}
		user = nil
	}

	s.mu.Lock()
	s.user = user
	s.loading = false
	s.mu.Unlock()

	if user != nil {
		s.log.Debug().Str("user_id", user.ID).Msg("session restored")
		s.publish(user.ID)
	}
}

// Login authenticates against the remote endpoint and makes the returned
// user current. The store never retries.
func (s *Store) Login(ctx context.Context, identifier, secret string) (*types.User, error) {
	au, err := api.Login(ctx, s.cfg.HTTP, s.cfg.BaseURL, types.LoginRequest{Username: identifier, Password: secret})
	if err != nil {
		authFailuresTotal.WithLabelValues("login").Inc()
		observe("login", err)
		return nil, err
	}
	u := buildUser(au, identifier, types.RoleClient, s.cfg.Clock.Now(), s.cfg.IDs.NewID)
	err = s.adopt(ctx, u)
	observe("login", err)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("logged in")
	return u.Clone(), nil
}

// Register creates an account and signs in as it.
func (s *Store) Register(ctx context.Context, data types.RegistrationData) (*types.User, error) {
	if err := types.Validate(data); err != nil {
		observe("register", err)
		return nil, errors.Wrap(errors.ErrRegistration, err)
	}
	role := data.Role
	if role == "" {
		role = types.RoleClient
	}
	identifier := accountIdentifier(data.Email, s.cfg.Clock.Now())
	first, last := splitName(data.FullName)

	au, err := api.Register(ctx, s.cfg.HTTP, s.cfg.BaseURL, types.RegisterRequest{
		Username:  identifier,
		Password:  data.Password,
		Email:     data.Email,
		Phone:     data.Phone,
		FirstName: first,
		LastName:  last,
		Role:      role,
	})
	if err != nil {
		authFailuresTotal.WithLabelValues("register").Inc()
		observe("register", err)
		return nil, err
	}
	// The local split wins when the server echoes no names.
	if au.FirstName == "" && au.LastName == "" {
		au.FirstName, au.LastName = first, last
	}
	if au.Email == "" {
		au.Email = data.Email
	}
	if au.Phone == "" {
		au.Phone = data.Phone
	}
	u := buildUser(au, identifier, role, s.cfg.Clock.Now(), s.cfg.IDs.NewID)
	err = s.adopt(ctx, u)
	observe("register", err)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", u.ID).Str("username", u.Username).Msg("registered")
	return u.Clone(), nil
}

// Logout forgets the current user. It succeeds when nobody is signed in.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.cfg.Mirror.Remove(ctx, persist.KeyUser); err != nil {
		observe("logout", err)
		return err
	}
	s.mu.Lock()
	prev := s.user
	s.user = nil
	s.mu.Unlock()

	observe("logout", nil)
	if prev != nil {
		s.log.Debug().Str("user_id", prev.ID).Msg("logged out")
		s.publish(prev.ID)
	}
	return nil
}

// UpdateUser shallow-merges patch into the current user.
func (s *Store) UpdateUser(ctx context.Context, patch types.UserPatch) (*types.User, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.user.Clone()
	s.mu.RUnlock()
	if next == nil {
		observe("update", errors.ErrInvalidState)
		return nil, fmt.Errorf("%w: no active session", errors.ErrInvalidState)
	}
	patch.Apply(next)

	if err := s.cfg.Mirror.Save(ctx, persist.KeyUser, next); err != nil {
		observe("update", err)
		return nil, err
	}
	s.mu.Lock()
	s.user = next
	s.mu.Unlock()

	observe("update", nil)
	s.publish(next.ID)
	return next.Clone(), nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Store) CurrentUser() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsLoading is true until the first Load completes.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// HasRole reports whether the current user has role r.
func (s *Store) HasRole(r types.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == r
}

// adopt persists u and then makes it current.
func (s *Store) adopt(ctx context.Context, u *types.User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.cfg.Mirror.Save(ctx, persist.KeyUser, u); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = u.Clone()
	s.mu.Unlock()
	s.publish(u.ID)
	return nil
}

func (s *Store) publish(userID string) {
	s.cfg.Bus.Publish(events.Event{Kind: events.EventSessionChanged, ID: userID})
}
