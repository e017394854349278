package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
)

// -------- test fakes --------

type fakeSessionStore struct {
	sessions map[string]model.Session
	nextID   uint64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]model.Session)}
}

func (f *fakeSessionStore) Create(ctx context.Context, s *model.Session) error {
	f.nextID++
	s.ID = f.nextID
	f.sessions[s.Token] = *s
	return nil
}

func (f *fakeSessionStore) GetByToken(ctx context.Context, token string) (model.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return model.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) DeleteByToken(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

type fakeUserStore struct {
	users map[uint64]model.User
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newManagerUnderTest(ttl time.Duration) (*Manager, *fakeSessionStore, *fakeUserStore) {
	sessions := newFakeSessionStore()
	users := &fakeUserStore{users: map[uint64]model.User{
		1: {ID: 1, Username: "alice", Active: true},
		2: {ID: 2, Username: "bob", Active: false},
	}}
	return NewManager(sessions, users, nil, ttl), sessions, users
}

func TestIssueAndValidate(t *testing.T) {
	m, _, _ := newManagerUnderTest(24 * time.Hour)
	ctx := context.Background()

	s, err := m.Issue(ctx, 1, "10.0.0.1")
	require.NoError(t, err)
	assert.Len(t, s.Token, 64)
	assert.Equal(t, s.CreatedAt.Add(24*time.Hour), s.ExpiresAt)

	u, err := m.Validate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestValidateRejectsBadTokens(t *testing.T) {
	m, _, _ := newManagerUnderTest(24 * time.Hour)
	ctx := context.Background()

	_, err := m.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = m.Validate(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidateExpiredSessionDeletesRow(t *testing.T) {
	m, sessions, _ := newManagerUnderTest(time.Hour)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	s, err := m.Issue(ctx, 1, "10.0.0.1")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = m.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Lazy cleanup removed the row, so the next check is a plain miss.
	_, err = m.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, sessions.sessions)
}

func TestValidateInactiveUser(t *testing.T) {
	m, _, _ := newManagerUnderTest(24 * time.Hour)
	ctx := context.Background()

	s, err := m.Issue(ctx, 2, "10.0.0.1")
	require.NoError(t, err)

	_, err = m.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestValidateDeletedUser(t *testing.T) {
	m, _, users := newManagerUnderTest(24 * time.Hour)
	ctx := context.Background()

	s, err := m.Issue(ctx, 1, "10.0.0.1")
	require.NoError(t, err)

	delete(users.users, 1)
	_, err = m.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRevoke(t *testing.T) {
	m, _, _ := newManagerUnderTest(24 * time.Hour)
	ctx := context.Background()

	s, err := m.Issue(ctx, 1, "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, s.Token))
	_, err = m.Validate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Revoking again is a no-op.
	assert.NoError(t, m.Revoke(ctx, s.Token))
}
