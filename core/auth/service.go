package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/idle"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/pipeline"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/token"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/pkg/clock"
)

// Requester sends API calls. *pipeline.Pipeline implements it.
type Requester interface {
	Do(ctx context.Context, r pipeline.Request) (*pipeline.Response, error)
}

// TokenStore persists the bearer token. *token.Store implements it.
type TokenStore interface {
	Get(ctx context.Context, audience string) (string, bool, error)
	Set(ctx context.Context, audience, tok string) error
	Clear(ctx context.Context, audience string) error
}

// SessionMonitor expires idle sessions. *idle.Monitor implements it.
type SessionMonitor interface {
	Arm(ctx context.Context, audience string, onExpire func()) (idle.Disposer, error)
	Resume(ctx context.Context, audience string, onExpire func()) (idle.Disposer, error)
	Disarm(ctx context.Context, audience string) error
	Stale(ctx context.Context, audience string) (bool, error)
}

// Credentials identify an account by email or username.
type Credentials struct {
	Identifier string
	Password   string
}

// SignupInput is the registration form.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Phone     string
	Password  string
	UserType  string
}

// Service runs the login, logout and restore sequences for one audience.
type Service struct {
	api       Requester
	tokens    TokenStore
	monitor   SessionMonitor
	audience  string
	required  Role
	endpoints Endpoints
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Collector

	mu   sync.RWMutex
	user *User
}

// Option configures a Service.
type Option func(*Service)

// WithAudience sets the session scope. Defaults to "customer".
func WithAudience(audience string) Option {
	return func(s *Service) {
		if audience != "" {
			s.audience = audience
		}
	}
}

// WithRequiredRole gates sign-in to accounts with role r.
func WithRequiredRole(r Role) Option {
	return func(s *Service) {
		s.required = r
	}
}

func WithEndpoints(e Endpoints) Option {
	return func(s *Service) {
		s.endpoints = e.withDefaults()
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a service. monitor may be nil to disable idle expiry.
func New(api Requester, tokens TokenStore, monitor SessionMonitor, opts ...Option) *Service {
	s := &Service{
		api:       api,
		tokens:    tokens,
		monitor:   monitor,
		audience:  pipeline.DefaultAudience,
		endpoints: DefaultEndpoints(),
		clock:     clock.Real(),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"), logger.Audience(s.audience))
	return s
}

// Audience returns the session scope of s.
func (s *Service) Audience() string { return s.audience }

// Login exchanges credentials for a session. An identifier containing "@"
// is sent as email, anything else as username.
func (s *Service) Login(ctx context.Context, c Credentials) (User, error) {
	id := strings.TrimSpace(c.Identifier)
	if id == "" || c.Password == "" {
		return User{}, ErrMissingCredentials
	}

	body := map[string]string{"password": c.Password}
	if strings.Contains(id, "@") {
		body["email"] = id
	} else {
		body["username"] = id
	}

	u, err := s.authenticate(ctx, s.endpoints.Login, body)
	s.metrics.Login(s.audience, err == nil)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", logger.Error(err))
		return User{}, err
	}

	s.logger.InfoContext(ctx, "login succeeded", logger.UserID(u.ID), logger.Role(string(u.Role)))
	return u, nil
}

// Signup registers an account and signs it in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	if (strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Username) == "") || in.Password == "" {
		return User{}, ErrMissingCredentials
	}

	body := map[string]string{"password": in.Password}
	for k, v := range map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"username":   in.Username,
		"phone":      in.Phone,
		"user_type":  in.UserType,
	} {
		if v = strings.TrimSpace(v); v != "" {
			body[k] = v
		}
	}

	u, err := s.authenticate(ctx, s.endpoints.Signup, body)
	if err != nil {
		s.logger.InfoContext(ctx, "signup failed", logger.Error(err))
		return User{}, err
	}

	s.logger.InfoContext(ctx, "signup succeeded", logger.UserID(u.ID))
	return u, nil
}

// authenticate posts body to path, stores the issued token, resolves the
// user, applies the role gate and arms the idle monitor.
//
// A rejected credential exchange leaves any session already in place intact.
// Once a new token is issued it replaces that session, so every later
// failure ends the session as a whole: token, activity timestamp, monitor
// and cached user.
func (s *Service) authenticate(ctx context.Context, path string, body any) (User, error) {
	resp, err := s.api.Do(ctx, pipeline.Request{
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
		Audience:  s.audience,
		Anonymous: true,
	})
	if err != nil {
		var he *pipeline.HTTPError
		if errors.As(err, &he) {
			if ce := credentialError(he.Body); ce != nil {
				return User{}, ce
			}
		}
		return User{}, err
	}

	// The backend may answer 200 with an error message instead of a token.
	if ce := credentialError(resp.Body); ce != nil {
		return User{}, ce
	}

	tok := extractToken(decodeObject(resp.Body))
	if tok == "" {
		return User{}, ErrNoTokenIssued
	}

	// Stored before "who am I" so that call carries the bearer header.
	if err := s.tokens.Set(ctx, s.audience, tok); err != nil {
		return User{}, s.endSession(ctx, err)
	}

	u, err := s.me(ctx)
	if err == nil {
		err = s.checkRole(u)
	}
	if err == nil && s.monitor != nil {
		_, err = s.monitor.Arm(ctx, s.audience, s.expire)
	}
	if err != nil {
		return User{}, s.endSession(ctx, err)
	}

	s.setUser(&u)
	return u, nil
}

// Logout ends the session. It is safe to call without a session.
func (s *Service) Logout(ctx context.Context) error {
	s.setUser(nil)

	var errs []error
	if err := s.tokens.Clear(ctx, s.audience); err != nil {
		errs = append(errs, err)
	}
	if s.monitor != nil {
		if err := s.monitor.Disarm(ctx, s.audience); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.ErrorContext(ctx, "logout incomplete", logger.Error(err))
		return err
	}

	s.logger.DebugContext(ctx, "logged out")
	return nil
}

// RestoreSession re-derives the user from a token left by a previous run.
// Without a token it returns ErrNoSession. An expired token, stale activity
// or any failure resolving the user ends in Logout, never a half-restored
// session.
func (s *Service) RestoreSession(ctx context.Context) (User, error) {
	tok, ok, err := s.tokens.Get(ctx, s.audience)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNoSession
	}

	if token.Expired(tok, s.clock.Now()) {
		s.logger.InfoContext(ctx, "stored token expired")
		return User{}, s.endSession(ctx, ErrSessionExpired)
	}

	if s.monitor != nil {
		stale, err := s.monitor.Stale(ctx, s.audience)
		if err != nil {
			return User{}, s.endSession(ctx, err)
		}
		if stale {
			s.logger.InfoContext(ctx, "stored session idle too long")
			return User{}, s.endSession(ctx, ErrSessionExpired)
		}
	}

	u, err := s.me(ctx)
	if err == nil {
		err = s.checkRole(u)
	}
	if err != nil {
		return User{}, s.endSession(ctx, err)
	}

	if s.monitor != nil {
		if _, err := s.monitor.Resume(ctx, s.audience, s.expire); err != nil {
			if errors.Is(err, idle.ErrExpired) {
				err = ErrSessionExpired
			}
			return User{}, s.endSession(ctx, err)
		}
	}

	s.setUser(&u)
	s.logger.InfoContext(ctx, "session restored", logger.UserID(u.ID))
	return u, nil
}

// Refresh re-reads the profile of the active session. A 401 or a role that
// no longer passes the gate ends the session.
func (s *Service) Refresh(ctx context.Context) (User, error) {
	if _, ok, err := s.tokens.Get(ctx, s.audience); err != nil {
		return User{}, err
	} else if !ok {
		return User{}, ErrNoSession
	}

	u, err := s.me(ctx)
	if err == nil {
		err = s.checkRole(u)
	}
	if err != nil {
		var rm *RoleMismatchError
		if errors.Is(err, pipeline.ErrUnauthorized) || errors.As(err, &rm) || errors.Is(err, ErrUnknownRole) {
			return User{}, s.endSession(ctx, err)
		}
		return User{}, err
	}

	s.setUser(&u)
	return u, nil
}

// CurrentUser returns the signed-in user, if any.
func (s *Service) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Service) me(ctx context.Context) (User, error) {
	resp, err := s.api.Do(ctx, pipeline.Request{
		Method:   http.MethodGet,
		Path:     s.endpoints.Me,
		Audience: s.audience,
	})
	if err != nil {
		return User{}, err
	}

	payload := decodeObject(resp.Body)
	if payload == nil {
		return User{}, ErrInvalidProfile
	}
	return NormalizeUser(payload), nil
}

func (s *Service) checkRole(u User) error {
	if u.Role == "" {
		if s.required != "" {
			return &RoleMismatchError{Want: s.required}
		}
		return fmt.Errorf("%w: %q", ErrUnknownRole, u.UserType)
	}
	if s.required != "" && u.Role != s.required {
		return &RoleMismatchError{Want: s.required, Got: u.Role}
	}
	return nil
}

// endSession logs out and returns cause, joined with any logout failure.
func (s *Service) endSession(ctx context.Context, cause error) error {
	if err := s.Logout(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// expire is the idle monitor callback.
func (s *Service) expire() {
	ctx := context.Background()
	s.logger.InfoContext(ctx, "session ended after inactivity")
	_ = s.Logout(ctx)
}

func (s *Service) setUser(u *User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}
