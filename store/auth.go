package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/client"
	"github.com/Polqt/iComplain/errors"
	"github.com/Polqt/iComplain/internal/prefs"
	"github.com/Polqt/iComplain/types"
)

// AuthState is the snapshot the auth store publishes. IsAuthenticated and
// Role are derived from User and kept consistent with it on every change.
type AuthState struct {
	User            *types.User
	IsAuthenticated bool
	IsLoading       bool
	Role            types.UserRole
	Error           string
}

// AuthStore owns the current session. It consumes the session cookie the
// transport carries; it never issues or stores tokens itself.
type AuthStore struct {
	obs   observable[AuthState]
	api   *client.Client
	prefs *prefs.Store
	log   *zap.Logger
}

// NewAuthStore creates an auth store. prefs may be nil when nothing should
// persist across restarts.
func NewAuthStore(api *client.Client, p *prefs.Store, log *zap.Logger) *AuthStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AuthStore{api: api, prefs: p, log: log.Named("auth")}
	// Until the first CheckAuth resolves, consumers see a loading session.
	s.obs.update(func(st AuthState) AuthState {
		st.IsLoading = true
		return st
	})
	return s
}

// Snapshot returns the current state.
func (s *AuthStore) Snapshot() AuthState { return s.obs.Snapshot() }

// Subscribe registers a change listener.
func (s *AuthStore) Subscribe(fn Listener) func() { return s.obs.Subscribe(fn) }

func (s *AuthStore) setUser(u *types.User) {
	s.obs.update(func(st AuthState) AuthState {
		if u == nil {
			return AuthState{}
		}
		return AuthState{User: u, IsAuthenticated: true, Role: u.Role}
	})
}

// Login authenticates and populates the session. rememberEmail controls
// whether the email is persisted for the next sign-in form.
func (s *AuthStore) Login(ctx context.Context, email, password string, rememberEmail bool) *types.User {
	s.obs.update(func(st AuthState) AuthState {
		st.IsLoading = true
		st.Error = ""
		return st
	})

	user, err := s.api.Users.Login(ctx, email, password)
	if err != nil {
		s.log.Info("login failed", zap.String("email", email))
		s.obs.update(func(st AuthState) AuthState {
			return AuthState{Error: errors.Message(err)}
		})
		return nil
	}

	if s.prefs != nil {
		if rememberEmail {
			s.prefs.SetRememberedEmail(email)
		} else {
			s.prefs.ClearRememberedEmail()
		}
	}
	s.setUser(user)
	return user
}

// Register creates an account and populates the session with it.
func (s *AuthStore) Register(ctx context.Context, email, password string) *types.User {
	s.obs.update(func(st AuthState) AuthState {
		st.IsLoading = true
		st.Error = ""
		return st
	})

	user, err := s.api.Users.Register(ctx, email, password)
	if err != nil {
		s.obs.update(func(st AuthState) AuthState {
			return AuthState{Error: errors.Message(err)}
		})
		return nil
	}

	s.setUser(user)
	return user
}

// GoogleLogin authenticates with a Google ID token.
func (s *AuthStore) GoogleLogin(ctx context.Context, idToken string) *types.User {
	s.obs.update(func(st AuthState) AuthState {
		st.IsLoading = true
		st.Error = ""
		return st
	})

	user, err := s.api.Users.GoogleLogin(ctx, idToken)
	if err != nil {
		s.obs.update(func(st AuthState) AuthState {
			return AuthState{Error: errors.Message(err)}
		})
		return nil
	}

	s.setUser(user)
	return user
}

// CheckAuth asks the server whether the session is still live, typically on
// startup. A missing or expired session clears the state and reports false
// without recording an error.
func (s *AuthStore) CheckAuth(ctx context.Context) bool {
	user, err := s.api.Users.Profile(ctx)
	if err != nil || user == nil {
		if err != nil {
			s.log.Warn("session check failed", zap.Error(err))
		}
		s.setUser(nil)
		return false
	}

	s.setUser(user)
	return true
}

// Logout clears the session server-side and locally, and drops the
// remembered email. The local state clears even if the server call fails.
func (s *AuthStore) Logout(ctx context.Context) {
	if err := s.api.Users.Logout(ctx); err != nil {
		s.log.Warn("server logout failed", zap.Error(err))
	}

	if s.prefs != nil {
		s.prefs.ClearRememberedEmail()
	}
	s.setUser(nil)
}

// UpdateUser merges profile changes into the current user, if any.
func (s *AuthStore) UpdateUser(mutate func(*types.User)) {
	s.obs.update(func(st AuthState) AuthState {
		if st.User == nil {
			return st
		}
		u := *st.User
		mutate(&u)
		st.User = &u
		st.Role = u.Role
		return st
	})
}

// RememberedEmail returns the persisted sign-in email, or empty.
func (s *AuthStore) RememberedEmail() string {
	if s.prefs == nil {
		return ""
	}
	return s.prefs.RememberedEmail()
}
