package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/menupress/menupress/internal/guard"
	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/otp"
	"github.com/menupress/menupress/internal/queue"
	"github.com/menupress/menupress/internal/repository"
	"github.com/menupress/menupress/internal/session"
	"github.com/menupress/menupress/internal/utils"
)

// -------- test fakes --------

type fakeUsers struct {
	byID        map[uint64]model.User
	nextID      uint64
	updated     map[uint64]string
	deactivated []uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uint64]model.User), updated: make(map[uint64]string)}
}

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Username == u.Username || existing.Email == u.Email || existing.MobileNo == u.MobileNo {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	f.updated[id] = hash
	return nil
}

func (f *fakeUsers) Deactivate(ctx context.Context, id uint64) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = false
	f.byID[id] = u
	f.deactivated = append(f.deactivated, id)
	return nil
}

type fakeAttempts struct {
	attempts []model.LoginAttempt
}

func (f *fakeAttempts) CountRecentFailed(ctx context.Context, ip string, since time.Time) (int, error) {
	n := 0
	for _, a := range f.attempts {
		if a.IPAddress == ip && !a.Success && !a.AttemptedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttempts) Record(ctx context.Context, a *model.LoginAttempt) error {
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeAttempts) MarkOutcome(ctx context.Context, ip, username string, at time.Time, success bool) error {
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := &f.attempts[i]
		if a.IPAddress == ip && a.Username == username && a.AttemptedAt.Equal(at) {
			a.Success = success
			return nil
		}
	}
	return nil
}

type fakeSessions struct {
	byToken map[string]model.Session
	nextID  uint64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: make(map[string]model.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, s *model.Session) error {
	f.nextID++
	s.ID = f.nextID
	f.byToken[s.Token] = *s
	return nil
}

func (f *fakeSessions) GetByToken(ctx context.Context, token string) (model.Session, error) {
	s, ok := f.byToken[token]
	if !ok {
		return model.Session{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) DeleteByToken(ctx context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

type fakeVerifications struct {
	pending map[string]model.OTPVerification
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{pending: make(map[string]model.OTPVerification)}
}

func (f *fakeVerifications) Upsert(ctx context.Context, v *model.OTPVerification) error {
	f.pending[v.Email] = *v
	return nil
}

func (f *fakeVerifications) Find(ctx context.Context, email, code string) (model.OTPVerification, error) {
	v, ok := f.pending[email]
	if !ok || v.Code != code {
		return model.OTPVerification{}, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeVerifications) Delete(ctx context.Context, email string) error {
	delete(f.pending, email)
	return nil
}

type publishRecorder struct {
	events []queue.NotificationEvent
	err    error
}

func (p *publishRecorder) publish(ctx context.Context, ev queue.NotificationEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type testEnv struct {
	svc      *Service
	users    *fakeUsers
	verifs   *fakeVerifications
	attempts *fakeAttempts
	pub      *publishRecorder
}

func newTestEnv() *testEnv {
	users := newFakeUsers()
	attempts := &fakeAttempts{}
	verifs := newFakeVerifications()
	pub := &publishRecorder{}

	sm := session.NewManager(newFakeSessions(), users, nil, 24*time.Hour)
	g := guard.New(attempts, 30*time.Minute, 5)
	otps := otp.New(verifs, 10*time.Minute, 5*time.Minute)
	svc := NewService(users, g, sm, otps, pub.publish, bcrypt.MinCost)

	return &testEnv{svc: svc, users: users, verifs: verifs, attempts: attempts, pub: pub}
}

func validInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Email:     "a@x.com",
		Password:  "Secret1!",
		FirstName: "Alice",
		LastName:  "Smith",
		MobileNo:  "5550001",
		DOB:       time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.True(t, u.Active)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "Secret1!", u.PasswordHash)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "Secret1!"))

	require.Len(t, env.pub.events, 1)
	assert.Equal(t, queue.KindWelcome, env.pub.events[0].Kind)
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv()
	in := validInput()
	in.Email = ""

	_, err := env.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, validInput())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterPublishFailureIsBestEffort(t *testing.T) {
	env := newTestEnv()
	env.pub.err = assert.AnError

	_, err := env.svc.Register(context.Background(), validInput())
	assert.NoError(t, err)
}

func TestRequestRegistrationOTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestRegistrationOTP(ctx, "new@x.com"))
	require.Len(t, env.pub.events, 1)
	assert.Equal(t, queue.KindOTP, env.pub.events[0].Kind)
	assert.Len(t, env.pub.events[0].Code, 6)
}

func TestRequestRegistrationOTPExistingEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.RequestRegistrationOTP(ctx, "a@x.com"), ErrConflict)
}

func TestRequestRegistrationOTPDeliveryFailure(t *testing.T) {
	env := newTestEnv()
	env.pub.err = assert.AnError

	// The code cannot reach the user, so the caller must see a failure.
	err := env.svc.RequestRegistrationOTP(context.Background(), "new@x.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestRegisterWithOTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestRegistrationOTP(ctx, "a@x.com"))
	code := env.pub.events[0].Code

	u, err := env.svc.RegisterWithOTP(ctx, code, validInput())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	// The code is burnt.
	_, err = env.svc.RegisterWithOTP(ctx, code, validInput())
	assert.Error(t, err)
}

func TestRegisterWithOTPInvalidCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestRegistrationOTP(ctx, "a@x.com"))

	_, err := env.svc.RegisterWithOTP(ctx, "999999x", validInput())
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
}

func TestRegisterWithOTPWeakPassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestRegistrationOTP(ctx, "a@x.com"))
	code := env.pub.events[0].Code

	in := validInput()
	in.Password = "weakweak"
	_, err := env.svc.RegisterWithOTP(ctx, code, in)
	assert.ErrorIs(t, err, utils.ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	sess, u, err := env.svc.Login(ctx, "alice", "Secret1!", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Len(t, sess.Token, 64)

	// A successful login leaves no failed attempt behind.
	n, err := env.attempts.CountRecentFailed(ctx, "10.0.0.1", time.Time{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	_, _, err = env.svc.Login(ctx, "alice", "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown username reads exactly the same.
	_, _, err = env.svc.Login(ctx, "nobody", "Secret1!", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := env.svc.Login(ctx, "alice", "wrong", "10.0.0.1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Correct credentials do not bypass the block.
	_, _, err = env.svc.Login(ctx, "alice", "Secret1!", "10.0.0.1")
	assert.ErrorIs(t, err, guard.ErrRateLimited)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, env.users.Deactivate(ctx, u.ID))

	_, _, err = env.svc.Login(ctx, "alice", "Secret1!", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, env.svc.ChangePassword(ctx, u.ID, "Secret1!", "NewSecret2@"))

	_, _, err = env.svc.Login(ctx, "alice", "NewSecret2@", "10.0.0.1")
	assert.NoError(t, err)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	err = env.svc.ChangePassword(ctx, u.ID, "wrong", "NewSecret2@")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePasswordWeakNew(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)

	err = env.svc.ChangePassword(ctx, u.ID, "Secret1!", "weakweak")
	assert.ErrorIs(t, err, utils.ErrWeakPassword)
}

func TestDeletionFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)
	env.pub.events = nil

	require.NoError(t, env.svc.RequestDeletion(ctx, u.ID))
	require.Len(t, env.pub.events, 1)
	assert.Equal(t, queue.KindOTP, env.pub.events[0].Kind)
	assert.Equal(t, "a@x.com", env.pub.events[0].Email)
	code := env.pub.events[0].Code

	require.NoError(t, env.svc.ConfirmDeletion(ctx, u.ID, code))
	assert.Equal(t, []uint64{u.ID}, env.users.deactivated)

	// Soft delete: the row still exists, just inactive.
	got, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestConfirmDeletionWrongCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	u, err := env.svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, env.svc.RequestDeletion(ctx, u.ID))

	err = env.svc.ConfirmDeletion(ctx, u.ID, "000000x")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
	assert.Empty(t, env.users.deactivated)
}
