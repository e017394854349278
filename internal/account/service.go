// Package account orchestrates the owner account lifecycle: direct and
// OTP-gated registration, login with brute-force guarding, password
// rotation and OTP-gated soft deletion. It composes the session manager,
// the login-attempt guard and the OTP store, and emits notification
// events that are delivered out of band.
package account

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/menupress/menupress/internal/guard"
	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/otp"
	"github.com/menupress/menupress/internal/queue"
	"github.com/menupress/menupress/internal/repository"
	"github.com/menupress/menupress/internal/session"
	"github.com/menupress/menupress/internal/utils"
)

// ErrMissingFields is returned when a registration payload lacks a
// required field.
var ErrMissingFields = errors.New("missing required fields")

// ErrConflict is returned when a unique field (username, email, mobile
// number) is already taken.
var ErrConflict = errors.New("account already exists")

// ErrInvalidCredentials is returned for any credential failure. Unknown
// username and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrDeliveryFailed is returned when an OTP email could not be handed to
// the broker. The issued code would be unreachable, so the caller must
// not report success.
var ErrDeliveryFailed = errors.New("verification email could not be sent")

// UserStore is the persistence surface the lifecycle needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	Deactivate(ctx context.Context, id uint64) error
}

// PublishFunc hands a notification event to the broker.
type PublishFunc func(ctx context.Context, ev queue.NotificationEvent) error

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	MobileNo  string
	DOB       time.Time
}

func (in RegisterInput) complete() bool {
	return in.Username != "" && in.Email != "" && in.Password != "" &&
		in.FirstName != "" && in.LastName != "" && in.MobileNo != "" && !in.DOB.IsZero()
}

// Service implements the account lifecycle.
type Service struct {
	users      UserStore
	guard      *guard.Guard
	sessions   *session.Manager
	otps       *otp.Store
	publish    PublishFunc
	bcryptCost int
	now        func() time.Time
}

// NewService wires the lifecycle dependencies together.
func NewService(users UserStore, g *guard.Guard, sm *session.Manager, otps *otp.Store, publish PublishFunc, bcryptCost int) *Service {
	return &Service{users: users, guard: g, sessions: sm, otps: otps, publish: publish, bcryptCost: bcryptCost, now: time.Now}
}

// Register creates an account directly (the legacy path, no OTP and no
// strength policy). The welcome email is best-effort; its failure never
// fails the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if !in.complete() {
		return model.User{}, ErrMissingFields
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MobileNo:     in.MobileNo,
		DOB:          in.DOB,
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, ErrConflict
		}
		return model.User{}, err
	}
	s.publishBestEffort(ctx, queue.NotificationEvent{
		Kind:       queue.KindWelcome,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		OccurredAt: s.now().UTC().Format(time.RFC1123),
	})
	return u, nil
}

// RequestRegistrationOTP issues a registration code for an email that is
// not yet registered and queues its delivery. Publish failure surfaces
// as ErrDeliveryFailed because the code has no other way to reach the
// user.
func (s *Service) RequestRegistrationOTP(ctx context.Context, email string) error {
	if email == "" {
		return ErrMissingFields
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	code, err := s.otps.Issue(ctx, email, model.OTPPurposeRegister)
	if err != nil {
		return err
	}
	ev := queue.NotificationEvent{
		Kind:       queue.KindOTP,
		Email:      email,
		Code:       code,
		Purpose:    string(model.OTPPurposeRegister),
		OccurredAt: s.now().UTC().Format(time.RFC1123),
	}
	if err := s.publish(ctx, ev); err != nil {
		return ErrDeliveryFailed
	}
	return nil
}

// RegisterWithOTP consumes a registration code and creates the account.
// Unlike the legacy path it enforces the password strength policy.
func (s *Service) RegisterWithOTP(ctx context.Context, code string, in RegisterInput) (model.User, error) {
	if !in.complete() || code == "" {
		return model.User{}, ErrMissingFields
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}
	if err := s.otps.Consume(ctx, in.Email, code, model.OTPPurposeRegister); err != nil {
		return model.User{}, err
	}
	if err := utils.ValidatePasswordStrength(in.Password); err != nil {
		return model.User{}, err
	}
	return s.Register(ctx, in)
}

// Login authenticates a user and issues a session. The guard runs
// before any credential work; a blocked address fails ErrRateLimited
// even with correct credentials. The sign-in alert is best-effort.
func (s *Service) Login(ctx context.Context, username, password, sourceAddr string) (model.Session, model.User, error) {
	at, err := s.guard.CheckAndRecord(ctx, sourceAddr, username)
	if err != nil {
		return model.Session{}, model.User{}, err
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, model.User{}, err
	}
	if !u.Active || !utils.VerifyPassword(u.PasswordHash, password) {
		return model.Session{}, model.User{}, ErrInvalidCredentials
	}
	if err := s.guard.MarkOutcome(ctx, sourceAddr, username, at, true); err != nil {
		// The login itself succeeded; a stuck failure flag only costs
		// this address one slot in the block window.
		log.Printf("account: mark login outcome failed: %v", err)
	}
	sess, err := s.sessions.Issue(ctx, u.ID, sourceAddr)
	if err != nil {
		return model.Session{}, model.User{}, err
	}
	s.publishBestEffort(ctx, queue.NotificationEvent{
		Kind:       queue.KindLoginAlert,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		OccurredAt: s.now().UTC().Format(time.RFC1123),
	})
	return sess, u, nil
}

// ChangePassword rotates a user's secret after re-verifying the current
// one and checking the new one against the strength policy.
func (s *Service) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := utils.ValidatePasswordStrength(next); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// RequestDeletion issues a deletion code to the authenticated user's own
// email and queues its delivery. As with registration codes, a failed
// publish surfaces as ErrDeliveryFailed.
func (s *Service) RequestDeletion(ctx context.Context, userID uint64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	code, err := s.otps.Issue(ctx, u.Email, model.OTPPurposeDelete)
	if err != nil {
		return err
	}
	ev := queue.NotificationEvent{
		Kind:       queue.KindOTP,
		Email:      u.Email,
		Username:   u.Username,
		Code:       code,
		Purpose:    string(model.OTPPurposeDelete),
		OccurredAt: s.now().UTC().Format(time.RFC1123),
	}
	if err := s.publish(ctx, ev); err != nil {
		return ErrDeliveryFailed
	}
	return nil
}

// ConfirmDeletion consumes the deletion code tied to the caller's email
// and soft-deletes the account. The user row is never removed.
func (s *Service) ConfirmDeletion(ctx context.Context, userID uint64, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.otps.Consume(ctx, u.Email, code, model.OTPPurposeDelete); err != nil {
		return err
	}
	return s.users.Deactivate(ctx, userID)
}

func (s *Service) publishBestEffort(ctx context.Context, ev queue.NotificationEvent) {
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("account: publish %s notification failed: %v", ev.Kind, err)
	}
}
