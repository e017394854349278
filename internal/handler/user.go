package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/account"
	"github.com/menupress/menupress/internal/repository"
)

// UserHandler serves the profile, sign-in history and the legacy direct
// registration endpoint.
type UserHandler struct {
	Accounts *account.Service
	Attempts *repository.LoginAttemptRepo
}

func NewUserHandler(a *account.Service, attempts *repository.LoginAttemptRepo) *UserHandler {
	return &UserHandler{Accounts: a, Attempts: attempts}
}

type registerReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MobileNo    string `json:"mobileNo"`
	DateOfBirth string `json:"dateOfBirth"`
}

type profileResp struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MobileNo    string `json:"mobileNo"`
	DateOfBirth string `json:"dateOfBirth"`
	CreatedAt   string `json:"createdAt"`
}

type signInLogEntry struct {
	IPAddress string    `json:"ipAddress"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile returns the authenticated user's account details. The password
// hash never leaves the server.
func (h *UserHandler) Profile(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	return c.JSON(http.StatusOK, profileResp{
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		MobileNo:    u.MobileNo,
		DateOfBirth: u.DOB.Format("2006-01-02"),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// SignInLogs returns the caller's successful sign-ins, newest first.
// Failed attempts stay internal to the guard.
func (h *UserHandler) SignInLogs(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	attempts, err := h.Attempts.ListSuccessfulByUsername(ctx, u.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load sign-in logs"})
	}
	logs := make([]signInLogEntry, 0, len(attempts))
	for _, a := range attempts {
		logs = append(logs, signInLogEntry{IPAddress: a.IPAddress, Timestamp: a.AttemptedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logs})
}

// Register is the legacy direct registration path: no OTP and no
// password strength policy, kept for clients that predate the OTP flow.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	in := account.RegisterInput{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		MobileNo:  strings.TrimSpace(req.MobileNo),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date of birth"})
		}
		in.DOB = dob
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch u, err := h.Accounts.Register(ctx, in); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "user registered successfully", "username": u.Username})
	case errors.Is(err, account.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "all fields are required"})
	case errors.Is(err, account.ErrConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username, email or mobile number already in use"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}
}
