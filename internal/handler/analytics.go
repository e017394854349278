package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
)

// AnalyticsHandler records and reports public menu page visits.
type AnalyticsHandler struct {
	Events *repository.AnalyticsRepo
}

func NewAnalyticsHandler(events *repository.AnalyticsRepo) *AnalyticsHandler {
	return &AnalyticsHandler{Events: events}
}

type visitReq struct {
	RestaurantName string   `json:"restaurantName"`
	DurationSec    int      `json:"duration"`
	ViewedSections []string `json:"viewedSections"`
	Referrer       string   `json:"referrer"`
}

type visitView struct {
	RestaurantName string    `json:"restaurantName"`
	DurationSec    int       `json:"duration"`
	ViewedSections []string  `json:"viewedSections"`
	Referrer       string    `json:"referrer,omitempty"`
	IPAddress      string    `json:"ipAddress"`
	VisitedAt      time.Time `json:"visitedAt"`
}

// LogVisit stores one page visit reported by the public menu page.
func (h *AnalyticsHandler) LogVisit(c echo.Context) error {
	var req visitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	if req.RestaurantName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "restaurant name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	ev := model.VisitEvent{
		RestaurantName: req.RestaurantName,
		DurationSec:    req.DurationSec,
		ViewedSections: req.ViewedSections,
		Referrer:       req.Referrer,
		IPAddress:      clientIP(c),
	}
	if err := h.Events.Insert(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to log visit"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "visit logged"})
}

// All returns every recorded visit, newest first.
func (h *AnalyticsHandler) All(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	events, err := h.Events.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load analytics"})
	}
	views := make([]visitView, 0, len(events))
	for _, ev := range events {
		views = append(views, visitView{
			RestaurantName: ev.RestaurantName,
			DurationSec:    ev.DurationSec,
			ViewedSections: ev.ViewedSections,
			Referrer:       ev.Referrer,
			IPAddress:      ev.IPAddress,
			VisitedAt:      ev.VisitedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": views})
}
