package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
)

// ContactHandler stores sales contact leads submitted from the landing
// page.
type ContactHandler struct {
	Leads *repository.ContactRepo
}

func NewContactHandler(leads *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Leads: leads}
}

type contactReq struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Company     string `json:"company"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	Agreed      bool   `json:"agreed"`
}

// Submit stores one lead. Only the contact fields are mandatory.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "first name, last name, email and message are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	lead := model.ContactLead{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Company:     req.Company,
		Message:     req.Message,
		Country:     req.Country,
		Agreed:      req.Agreed,
	}
	if err := h.Leads.Insert(ctx, &lead); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to submit message"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "message received"})
}
