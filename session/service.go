// Package session tracks who is using the dashboard. Every login, with a
// custom-fields API token or as the built-in admin, gets its own opaque
// session id; the caller presents that id on later requests and the session
// state is looked up by it.
//
// The API token never becomes a default header on a shared HTTP client.
// Callers attach Session.Token to the requests made on behalf of that
// session only.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/fieldsadmin/customfields"
	"github.com/gaborage/fieldsadmin/logger"
)

var (
	ErrInvalidToken       = errors.New("session: invalid access token")
	ErrInvalidCredentials = errors.New("session: invalid admin credentials")
	ErrNotLoggedIn        = errors.New("session: not logged in")
)

// AccountLookup validates a token and returns its account
type AccountLookup interface {
	Me(ctx context.Context, token string) (*customfields.Account, error)
}

// Config names the storage namespace, the session lifetime and the admin
// credentials. A zero TTL keeps sessions until logout.
type Config struct {
	TokenKey      string
	TTL           time.Duration
	AdminEmail    string
	AdminPassword string
}

func (c Config) key(id string) string {
	return c.TokenKey + ":" + id
}

// Session is one signed-in caller. Token is empty for admin sessions.
type Session struct {
	ID        string               `json:"id"`
	Token     string               `json:"token,omitempty"`
	Account   customfields.Account `json:"account"`
	Admin     bool                 `json:"admin"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Service creates, looks up and ends sessions
type Service struct {
	store  TokenStore
	lookup AccountLookup
	cfg    Config
	log    logger.Logger
	now    func() time.Time
}

// NewService creates a session service
func NewService(store TokenStore, lookup AccountLookup, cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, lookup: lookup, cfg: cfg, log: log, now: time.Now}
}

// Login validates token against the account endpoint and starts a session
// for it.
func (s *Service) Login(ctx context.Context, token string) (*Session, error) {
	account, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	sess, err := s.start(ctx, Session{Token: token, Account: *account})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info().
		Int64("account_id", account.ID).
		Msg("Session started")
	return sess, nil
}

// LoginAsAdmin checks email and password against the configured admin and
// starts an admin session.
func (s *Service) LoginAsAdmin(ctx context.Context, email, password string) (*Session, error) {
	if s.cfg.AdminEmail == "" ||
		subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) != 1 {
		s.log.WithContext(ctx).Warn().Str("email", email).Msg("Admin login rejected")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.start(ctx, Session{Account: customfields.Account{Name: "admin", Email: email}, Admin: true})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info().Str("email", email).Msg("Admin session started")
	return sess, nil
}

func (s *Service) start(ctx context.Context, sess Session) (*Session, error) {
	sess.ID = uuid.NewString()
	sess.CreatedAt = s.now().UTC()

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, s.cfg.key(sess.ID), string(raw)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &sess, nil
}

// Get returns the session with id. An unknown, expired or empty id is
// ErrNotLoggedIn. It does not contact the API.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotLoggedIn
	}
	raw, err := s.store.Get(ctx, s.cfg.key(id))
	if errors.Is(err, ErrTokenNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.ID != id {
		s.drop(ctx, id, "Dropping unreadable session")
		return nil, ErrNotLoggedIn
	}
	if s.cfg.TTL > 0 && s.now().Sub(sess.CreatedAt) > s.cfg.TTL {
		s.drop(ctx, id, "Dropping expired session")
		return nil, ErrNotLoggedIn
	}
	return &sess, nil
}

// Restore resumes a session, such as after a page reload or a restart, by
// re-validating its token. A token the API no longer accepts ends the
// session. Admin sessions are not re-validated.
func (s *Service) Restore(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil || sess.Admin {
		return sess, err
	}

	account, err := s.validate(ctx, sess.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			s.drop(ctx, id, "Dropping session with rejected token")
		}
		return nil, err
	}
	sess.Account = *account
	return sess, nil
}

// Logout ends the session with id. Ending an unknown session is not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, s.cfg.key(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) IsLoggedIn(ctx context.Context, id string) bool {
	_, err := s.Get(ctx, id)
	return err == nil
}

func (s *Service) IsAdmin(ctx context.Context, id string) bool {
	sess, err := s.Get(ctx, id)
	return err == nil && sess.Admin
}

// CurrentUser returns the account of the session with id
func (s *Service) CurrentUser(ctx context.Context, id string) (*customfields.Account, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sess.Account, nil
}

func (s *Service) drop(ctx context.Context, id, msg string) {
	if err := s.store.Delete(ctx, s.cfg.key(id)); err != nil {
		s.log.WithContext(ctx).Warn().Err(err).Msg("Failed to delete session")
		return
	}
	s.log.WithContext(ctx).Info().Msg(msg)
}

func (s *Service) validate(ctx context.Context, token string) (*customfields.Account, error) {
	account, err := s.lookup.Me(ctx, token)
	if err != nil {
		if errors.Is(err, customfields.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}
	return account, nil
}
