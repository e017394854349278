package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/menupress/menupress/internal/menu"
	"github.com/menupress/menupress/internal/model"
)

// maxImageBytes caps an uploaded logo or background image.
const maxImageBytes = 8 << 20

// MenuHandler serves the menu CRUD, audit log and public read endpoints.
type MenuHandler struct {
	Engine *menu.Engine
}

func NewMenuHandler(e *menu.Engine) *MenuHandler {
	return &MenuHandler{Engine: e}
}

// menuPayload is the JSON shape of a create or update request. Pointer
// fields distinguish "absent" from "set to zero value" so partial
// updates work.
type menuPayload struct {
	DisplayName     *string             `json:"displayName"`
	Sections        *[]model.Section    `json:"sections"`
	TodaysSpecial   *model.Item         `json:"todaysSpecial"`
	QRCodeURL       *string             `json:"qrCodeUrl"`
	DisplayMode     *string             `json:"displayMode"`
	BackgroundType  *string             `json:"backgroundType"`
	BackgroundValue *string             `json:"backgroundValue"`
	SocialLinks     *[]model.SocialLink `json:"socialLinks"`
}

// menuView is the JSON shape of a menu response. Image blobs render as
// data URIs so the payload stays self-contained.
type menuView struct {
	ID              uint64             `json:"id"`
	RestaurantName  string             `json:"restaurantName"`
	DisplayName     string             `json:"displayName"`
	Sections        []model.Section    `json:"sections"`
	TodaysSpecial   *model.Item        `json:"todaysSpecial,omitempty"`
	QRCodeURL       string             `json:"qrCodeUrl,omitempty"`
	DisplayMode     string             `json:"displayMode"`
	BackgroundType  string             `json:"backgroundType"`
	BackgroundValue string             `json:"backgroundValue"`
	BackgroundImage string             `json:"backgroundImage,omitempty"`
	Logo            string             `json:"logo,omitempty"`
	SocialLinks     []model.SocialLink `json:"socialLinks"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type menuLogView struct {
	ID        uint64                       `json:"id"`
	Action    string                       `json:"action"`
	Target    string                       `json:"target"`
	TargetID  uint64                       `json:"targetId"`
	Details   map[string]model.FieldChange `json:"details,omitempty"`
	IPAddress string                       `json:"ipAddress,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func viewOf(m model.Menu) menuView {
	v := menuView{
		ID:              m.ID,
		RestaurantName:  m.RestaurantName,
		DisplayName:     m.DisplayName,
		Sections:        m.Sections,
		TodaysSpecial:   m.TodaysSpecial,
		QRCodeURL:       m.QRCodeURL,
		DisplayMode:     m.DisplayMode,
		BackgroundType:  m.BackgroundType,
		BackgroundValue: m.BackgroundValue,
		SocialLinks:     m.SocialLinks,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if v.Sections == nil {
		v.Sections = []model.Section{}
	}
	if v.SocialLinks == nil {
		v.SocialLinks = []model.SocialLink{}
	}
	if uri, ok := dataURI(m.Logo); ok {
		v.Logo = uri
	}
	if uri, ok := dataURI(m.BackgroundImg); ok {
		v.BackgroundImage = uri
	}
	return v
}

func logViewsOf(logs []model.MenuLog) []menuLogView {
	out := make([]menuLogView, 0, len(logs))
	for _, l := range logs {
		out = append(out, menuLogView{
			ID:        l.ID,
			Action:    l.Action,
			Target:    l.TargetType,
			TargetID:  l.TargetID,
			Details:   l.Details,
			IPAddress: l.IPAddress,
			Timestamp: l.CreatedAt,
		})
	}
	return out
}

// Create builds the caller's menu.
func (h *MenuHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	in, err := parseMenuInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch m, err := h.Engine.Create(ctx, u, in, clientIP(c)); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"message": "menu created successfully", "menu": viewOf(m)})
	case errors.Is(err, menu.ErrConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "menu already exists for this account"})
	case errors.Is(err, menu.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid menu payload"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create menu"})
	}
}

// MyMenu returns the caller's own menu.
func (h *MenuHandler) MyMenu(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch m, err := h.Engine.GetOwn(ctx, u.ID); {
	case err == nil:
		return c.JSON(http.StatusOK, viewOf(m))
	case errors.Is(err, menu.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "menu not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load menu"})
	}
}

// Logs returns the caller's audit trail, newest first, optionally
// narrowed to one menu via the menuId query parameter.
func (h *MenuHandler) Logs(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	var target *uint64
	if raw := c.QueryParam("menuId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid menu id"})
		}
		target = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	logs, err := h.Engine.ListLogs(ctx, u.ID, target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load logs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logViewsOf(logs)})
}

// RecentLogs returns the caller's latest audit entries.
func (h *MenuHandler) RecentLogs(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	logs, err := h.Engine.RecentLogs(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load logs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"logs": logViewsOf(logs)})
}

// Update applies a partial payload to one of the caller's menus.
func (h *MenuHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	menuID, err := strconv.ParseUint(c.Param("menuId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid menu id"})
	}
	in, err := parseMenuInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch m, err := h.Engine.Update(ctx, u.ID, menuID, in, clientIP(c)); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "menu updated successfully", "menu": viewOf(m)})
	case errors.Is(err, menu.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "menu not found"})
	case errors.Is(err, menu.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid menu payload"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update menu"})
	}
}

// Delete removes one of the caller's menus.
func (h *MenuHandler) Delete(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid session"})
	}
	menuID, err := strconv.ParseUint(c.Param("menuId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid menu id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch err := h.Engine.Delete(ctx, u.ID, menuID, clientIP(c)); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "menu deleted successfully"})
	case errors.Is(err, menu.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "menu not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete menu"})
	}
}

// PublicByRestaurant is the unauthenticated diner-facing read.
func (h *MenuHandler) PublicByRestaurant(c echo.Context) error {
	name := c.Param("restaurantName")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSeconds*time.Second)
	defer cancel()

	switch m, err := h.Engine.GetPublic(ctx, name); {
	case err == nil:
		return c.JSON(http.StatusOK, viewOf(m))
	case errors.Is(err, menu.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "menu not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load menu"})
	}
}

// parseMenuInput accepts either a JSON body or a multipart form. In the
// multipart case the structured fields arrive as JSON strings and images
// as file parts named logo and backgroundImage.
func parseMenuInput(c echo.Context) (menu.Input, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return parseMultipartInput(c)
	}

	var p menuPayload
	if err := c.Bind(&p); err != nil {
		return menu.Input{}, errors.New("invalid body")
	}
	return menu.Input{
		DisplayName:     p.DisplayName,
		Sections:        p.Sections,
		TodaysSpecial:   p.TodaysSpecial,
		QRCodeURL:       p.QRCodeURL,
		DisplayMode:     p.DisplayMode,
		BackgroundType:  p.BackgroundType,
		BackgroundValue: p.BackgroundValue,
		SocialLinks:     p.SocialLinks,
	}, nil
}

func parseMultipartInput(c echo.Context) (menu.Input, error) {
	var in menu.Input

	if v, ok := formValue(c, "displayName"); ok {
		in.DisplayName = &v
	}
	if v, ok := formValue(c, "qrCodeUrl"); ok {
		in.QRCodeURL = &v
	}
	if v, ok := formValue(c, "displayMode"); ok {
		in.DisplayMode = &v
	}
	if v, ok := formValue(c, "backgroundType"); ok {
		in.BackgroundType = &v
	}
	if v, ok := formValue(c, "backgroundValue"); ok {
		in.BackgroundValue = &v
	}
	if v, ok := formValue(c, "sections"); ok {
		var sections []model.Section
		if err := json.Unmarshal([]byte(v), &sections); err != nil {
			return menu.Input{}, errors.New("invalid sections")
		}
		in.Sections = &sections
	}
	if v, ok := formValue(c, "socialLinks"); ok {
		var links []model.SocialLink
		if err := json.Unmarshal([]byte(v), &links); err != nil {
			return menu.Input{}, errors.New("invalid social links")
		}
		in.SocialLinks = &links
	}
	if v, ok := formValue(c, "todaysSpecial"); ok {
		var item model.Item
		if err := json.Unmarshal([]byte(v), &item); err != nil {
			return menu.Input{}, errors.New("invalid todays special")
		}
		in.TodaysSpecial = &item
	}

	logo, err := formImage(c, "logo")
	if err != nil {
		return menu.Input{}, err
	}
	in.Logo = logo

	bg, err := formImage(c, "backgroundImage")
	if err != nil {
		return menu.Input{}, err
	}
	in.BackgroundImage = bg

	return in, nil
}

func formValue(c echo.Context, name string) (string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", false
	}
	vals, ok := form.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formImage(c echo.Context, name string) (*model.ImageBlob, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, nil // part absent
	}
	if fh.Size > maxImageBytes {
		return nil, errors.New("image too large")
	}
	data, ct, err := readUpload(fh)
	if err != nil {
		return nil, errors.New("failed to read uploaded image")
	}
	return &model.ImageBlob{Data: data, ContentType: ct}, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}

// dataURI renders a blob in the same form the audit diff records.
func dataURI(b *model.ImageBlob) (string, bool) {
	if b == nil || len(b.Data) == 0 {
		return "", false
	}
	return "data:" + b.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data), true
}
