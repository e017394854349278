package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/account"
	"github.com/menupress/menupress/internal/guard"
	"github.com/menupress/menupress/internal/otp"
	"github.com/menupress/menupress/internal/session"
	"github.com/menupress/menupress/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Accounts *account.Service
	Sessions *session.Manager
}

func NewAuthHandler(a *account.Service, s *session.Manager) *AuthHandler {
	return &AuthHandler{Accounts: a, Sessions: s}
}

// ----- DTOs -----

type sendOTPReq struct {
	Email string `json:"email"`
}

type verifyOTPReq struct {
	OTP         string `json:"otp"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MobileNo    string `json:"mobileNo"`
	DateOfBirth string `json:"dateOfBirth"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type verifyDeleteReq struct {
	OTP string `json:"otp"`
}

func (r verifyOTPReq) registerInput() (account.RegisterInput, error) {
	in := account.RegisterInput{
		Username:  strings.TrimSpace(r.Username),
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		Password:  r.Password,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		MobileNo:  strings.TrimSpace(r.MobileNo),
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return account.RegisterInput{}, err
		}
		in.DOB = dob
	}
	return in, nil
}

// SendOTP issues a registration code to an email that has no account yet.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch err := h.Accounts.RequestRegistrationOTP(ctx, email); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent successfully"})
	case errors.Is(err, account.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email is required"})
	case errors.Is(err, account.ErrConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already registered"})
	case errors.Is(err, account.ErrDeliveryFailed):
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to send OTP"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to send OTP"})
	}
}

// VerifyOTP consumes a registration code and creates the account.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	in, err := req.registerInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date of birth"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch _, err := h.Accounts.RegisterWithOTP(ctx, strings.TrimSpace(req.OTP), in); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "user registered successfully"})
	case errors.Is(err, account.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "all fields are required"})
	case errors.Is(err, account.ErrConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username, email or mobile number already in use"})
	case errors.Is(err, otp.ErrInvalidCode):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid OTP"})
	case errors.Is(err, otp.ErrCodeExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "OTP has expired"})
	case errors.Is(err, utils.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password does not meet the strength requirements"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}
}

// Login verifies credentials and returns the opaque session token. The
// login-attempt guard runs first; a blocked address gets 429 regardless
// of credential validity.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	sess, _, err := h.Accounts.Login(ctx, req.Username, req.Password, clientIP(c))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "login successful",
			"sessionHash": sess.Token,
		})
	case errors.Is(err, guard.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "too many failed login attempts, try again later"})
	case errors.Is(err, account.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid username or password"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
}

// Logout revokes the presented session. Revocation is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := bearerToken(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	if err := h.Sessions.Revoke(ctx, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

// ValidateSession checks the presented token without requiring the
// middleware, so clients can probe their session state directly.
func (h *AuthHandler) ValidateSession(c echo.Context) error {
	token := bearerToken(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	u, err := h.Sessions.Validate(ctx, token)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "session is valid", "username": u.Username})
	case errors.Is(err, session.ErrSessionExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "session expired"})
	case errors.Is(err, session.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "user not found"})
	case errors.Is(err, session.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to validate session"})
	}
}

// Protected is a trivial authenticated probe behind the session
// middleware.
func (h *AuthHandler) Protected(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "access granted", "username": u.Username})
}

// ChangePassword rotates the caller's password after re-verifying the
// current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "current and new password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch err := h.Accounts.ChangePassword(ctx, u.ID, req.CurrentPassword, req.NewPassword); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
	case errors.Is(err, account.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "current password is incorrect"})
	case errors.Is(err, utils.ErrWeakPassword):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password does not meet the strength requirements"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to change password"})
	}
}

// DeleteOTP issues a deletion code to the caller's own email. The
// request body carries no email; the target account is always the
// authenticated one.
func (h *AuthHandler) DeleteOTP(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch err := h.Accounts.RequestDeletion(ctx, u.ID); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent successfully"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to send OTP"})
	}
}

// VerifyDeleteOTP consumes the deletion code and soft-deletes the
// account.
func (h *AuthHandler) VerifyDeleteOTP(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	var req verifyDeleteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch err := h.Accounts.ConfirmDeletion(ctx, u.ID, strings.TrimSpace(req.OTP)); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "account deleted successfully"})
	case errors.Is(err, otp.ErrInvalidCode):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid OTP"})
	case errors.Is(err, otp.ErrCodeExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "OTP has expired"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete account"})
	}
}

// bearerToken returns the raw token from the Authorization header, empty
// when the header is absent or malformed.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}
