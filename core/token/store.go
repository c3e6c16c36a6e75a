package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/kvstore"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
)

const (
	// Namespace is the first key segment for everything session related.
	Namespace = "session"
	keyName   = "token"
)

// Store owns bearer session tokens, one per audience, persisted in a kvstore.
// Writes are last-write-wins; callers only ever write "this new token" or "no token".
type Store struct {
	kv     kvstore.Store
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a token store on top of kv.
func NewStore(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key for audience.
func Key(audience string) (string, error) {
	return kvstore.Key(Namespace, audience, keyName)
}

// Get returns the live token for audience. ok is false when none is stored.
func (s *Store) Get(ctx context.Context, audience string) (tok string, ok bool, err error) {
	key, err := Key(audience)
	if err != nil {
		return "", false, err
	}

	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("token: get %s: %w", audience, err)
	}
	if v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set replaces the token for audience. An empty token removes it.
func (s *Store) Set(ctx context.Context, audience, tok string) error {
	if tok == "" {
		return s.Clear(ctx, audience)
	}

	key, err := Key(audience)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, tok); err != nil {
		return fmt.Errorf("token: set %s: %w", audience, err)
	}

	s.logger.DebugContext(ctx, "session token stored", logger.Audience(audience))
	return nil
}

// Clear removes the token for audience. Clearing an absent token is not an error.
func (s *Store) Clear(ctx context.Context, audience string) error {
	key, err := Key(audience)
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("token: clear %s: %w", audience, err)
	}

	s.logger.DebugContext(ctx, "session token cleared", logger.Audience(audience))
	return nil
}
