// Package session implements the server-side session lifecycle. Tokens
// are opaque random strings handed to clients as bearer credentials;
// all state lives on the session row, so revocation is immediate and
// there is no refresh mechanism. Redis, when available, serves as a
// fast path for token lookups; the database row stays authoritative.
package session

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
	"github.com/menupress/menupress/internal/utils"
)

// ErrUnauthenticated is returned for a missing, unknown or otherwise
// unusable token, including tokens of deactivated accounts.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrSessionExpired is returned when a token's expiry has elapsed. The
// backing row is removed as a side effect; expiry is detected lazily on
// use, never by a background sweep.
var ErrSessionExpired = errors.New("session expired")

// ErrUserNotFound is returned when a valid session references a user
// that no longer exists.
var ErrUserNotFound = errors.New("session user not found")

// Store is the persistence surface the manager needs for sessions.
type Store interface {
	Create(ctx context.Context, s *model.Session) error
	GetByToken(ctx context.Context, token string) (model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

// UserStore resolves session owners.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Manager issues, validates and revokes sessions.
type Manager struct {
	sessions Store
	users    UserStore
	cache    *redis.Client // optional; nil disables the fast path
	ttl      time.Duration
	now      func() time.Time
}

// NewManager builds a Manager with the given fixed session TTL. cache
// may be nil.
func NewManager(sessions Store, users UserStore, cache *redis.Client, ttl time.Duration) *Manager {
	return &Manager{sessions: sessions, users: users, cache: cache, ttl: ttl, now: time.Now}
}

// Issue creates a session for a user, recording the source address. The
// returned session carries the token the client must present.
func (m *Manager) Issue(ctx context.Context, userID uint64, sourceAddr string) (model.Session, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return model.Session{}, err
	}
	now := m.now().UTC()
	s := model.Session{
		UserID:    userID,
		Token:     token,
		IPAddress: sourceAddr,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.Create(ctx, &s); err != nil {
		return model.Session{}, err
	}
	m.cacheSet(ctx, token, userID, m.ttl)
	return s, nil
}

// Validate resolves a token to its owning user. Expired sessions are
// deleted on detection. Sessions of deactivated accounts fail
// ErrUnauthenticated even before their natural expiry.
func (m *Manager) Validate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrUnauthenticated
	}
	userID, hit := m.cacheGet(ctx, token)
	if !hit {
		s, err := m.sessions.GetByToken(ctx, token)
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUnauthenticated
		}
		if err != nil {
			return model.User{}, err
		}
		if m.now().UTC().After(s.ExpiresAt) {
			// Lazy cleanup: the row is useless once past expiry.
			if derr := m.sessions.DeleteByToken(ctx, token); derr != nil {
				log.Printf("session: delete expired token failed: %v", derr)
			}
			m.cacheDel(ctx, token)
			return model.User{}, ErrSessionExpired
		}
		userID = s.UserID
		if remain := s.ExpiresAt.Sub(m.now().UTC()); remain > 0 {
			m.cacheSet(ctx, token, userID, remain)
		}
	}
	u, err := m.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if !u.Active {
		return model.User{}, ErrUnauthenticated
	}
	return u, nil
}

// Revoke deletes a session. Revoking an unknown token is a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	m.cacheDel(ctx, token)
	return m.sessions.DeleteByToken(ctx, token)
}

func cacheKey(token string) string { return "sess:" + token }

func (m *Manager) cacheSet(ctx context.Context, token string, userID uint64, ttl time.Duration) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, cacheKey(token), strconv.FormatUint(userID, 10), ttl).Err(); err != nil {
		log.Printf("session: cache set failed: %v", err)
	}
}

func (m *Manager) cacheGet(ctx context.Context, token string) (uint64, bool) {
	if m.cache == nil {
		return 0, false
	}
	v, err := m.cache.Get(ctx, cacheKey(token)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (m *Manager) cacheDel(ctx context.Context, token string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, cacheKey(token)).Err(); err != nil && err != redis.Nil {
		log.Printf("session: cache del failed: %v", err)
	}
}
