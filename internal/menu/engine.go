// Package menu implements the menu mutation engine: create, partial
// update with a field-level diff, delete and the read paths, each
// mutation paired with an append-only audit entry.
package menu

import (
	"context"
	"errors"
	"log"

	"github.com/menupress/menupress/internal/model"
	"github.com/menupress/menupress/internal/repository"
)

// ErrNotFound covers both a missing menu and an ownership mismatch; a
// caller probing another tenant's menu id learns nothing beyond 404.
var ErrNotFound = errors.New("menu not found")

// ErrConflict is returned when the owner already has a menu.
var ErrConflict = errors.New("menu already exists for this account")

// ErrInvalidInput is returned when a payload carries a value outside a
// field's declared set, such as an unknown display mode.
var ErrInvalidInput = errors.New("invalid menu payload")

// MenuStore is the persistence surface the engine mutates.
type MenuStore interface {
	Create(ctx context.Context, m *model.Menu) error
	GetByOwner(ctx context.Context, ownerID uint64) (model.Menu, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Menu, error)
	GetByRestaurantName(ctx context.Context, name string) (model.Menu, error)
	Update(ctx context.Context, m *model.Menu) error
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error
}

// LogStore receives the audit trail.
type LogStore interface {
	Insert(ctx context.Context, l *model.MenuLog) error
	ListByUser(ctx context.Context, userID uint64, targetID *uint64) ([]model.MenuLog, error)
	Recent(ctx context.Context, userID uint64, n int) ([]model.MenuLog, error)
}

// recentLogCount is how many entries the recent-activity endpoint shows.
const recentLogCount = 4

// Engine coordinates menu mutations with their audit entries.
type Engine struct {
	menus MenuStore
	logs  LogStore
}

func NewEngine(menus MenuStore, logs LogStore) *Engine {
	return &Engine{menus: menus, logs: logs}
}

// Input is a partial menu payload. Nil pointers mean "field not present";
// for updates an absent field keeps its stored value, so clearing a value
// requires sending it explicitly (empty string, empty slice).
type Input struct {
	DisplayName     *string
	Sections        *[]model.Section
	TodaysSpecial   *model.Item
	QRCodeURL       *string
	DisplayMode     *string
	BackgroundType  *string
	BackgroundValue *string
	SocialLinks     *[]model.SocialLink
	Logo            *model.ImageBlob
	BackgroundImage *model.ImageBlob
}

// Create builds the owner's menu. The restaurant name is always the
// owner's username regardless of what the client sent, and absent fields
// fall back to defaults (stacked layout, white color background, display
// name equal to the username). A second create for the same owner fails
// with ErrConflict.
func (e *Engine) Create(ctx context.Context, owner model.User, in Input, sourceAddr string) (model.Menu, error) {
	if err := validateInput(in); err != nil {
		return model.Menu{}, err
	}
	if _, err := e.menus.GetByOwner(ctx, owner.ID); err == nil {
		return model.Menu{}, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Menu{}, err
	}

	m := model.Menu{
		RestaurantID:    owner.ID,
		RestaurantName:  owner.Username,
		DisplayName:     owner.Username,
		Sections:        []model.Section{},
		DisplayMode:     model.DisplayModeStacked,
		BackgroundType:  model.BackgroundColor,
		BackgroundValue: "#ffffff",
		SocialLinks:     []model.SocialLink{},
	}
	applyInput(&m, in)

	if err := e.menus.Create(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Menu{}, ErrConflict
		}
		return model.Menu{}, err
	}
	e.appendLog(ctx, owner.ID, model.ActionCreate, m.ID, nil, sourceAddr)
	return m, nil
}

// Update applies a partial payload to the caller's own menu and records
// a field-level diff. When nothing actually changes, the stored row is
// left untouched and no audit entry is written.
func (e *Engine) Update(ctx context.Context, ownerID, menuID uint64, in Input, sourceAddr string) (model.Menu, error) {
	if err := validateInput(in); err != nil {
		return model.Menu{}, err
	}
	m, err := e.menus.GetByIDAndOwner(ctx, menuID, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Menu{}, ErrNotFound
	}
	if err != nil {
		return model.Menu{}, err
	}
	if m.RestaurantID != ownerID {
		return model.Menu{}, ErrNotFound
	}

	changes := diffAndApply(&m, in)
	if len(changes) == 0 {
		return m, nil
	}

	if err := e.menus.Update(ctx, &m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Menu{}, ErrNotFound
		}
		return model.Menu{}, err
	}
	e.appendLog(ctx, ownerID, model.ActionUpdate, m.ID, changes, sourceAddr)
	return m, nil
}

// Delete removes the caller's menu in a single owner-scoped statement and
// appends a delete entry. The audit trail for the menu survives the menu.
func (e *Engine) Delete(ctx context.Context, ownerID, menuID uint64, sourceAddr string) error {
	err := e.menus.DeleteByIDAndOwner(ctx, menuID, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	e.appendLog(ctx, ownerID, model.ActionDelete, menuID, nil, sourceAddr)
	return nil
}

// GetOwn returns the caller's own menu.
func (e *Engine) GetOwn(ctx context.Context, ownerID uint64) (model.Menu, error) {
	m, err := e.menus.GetByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Menu{}, ErrNotFound
	}
	return m, err
}

// GetPublic returns the menu published under a restaurant name. No
// authentication is involved; this is the diner-facing read.
func (e *Engine) GetPublic(ctx context.Context, restaurantName string) (model.Menu, error) {
	m, err := e.menus.GetByRestaurantName(ctx, restaurantName)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Menu{}, ErrNotFound
	}
	return m, err
}

// ListLogs returns the caller's audit entries, newest first, optionally
// narrowed to one menu.
func (e *Engine) ListLogs(ctx context.Context, ownerID uint64, menuID *uint64) ([]model.MenuLog, error) {
	return e.logs.ListByUser(ctx, ownerID, menuID)
}

// RecentLogs returns the caller's latest audit entries.
func (e *Engine) RecentLogs(ctx context.Context, ownerID uint64) ([]model.MenuLog, error) {
	return e.logs.Recent(ctx, ownerID, recentLogCount)
}

// appendLog writes one audit row. A failed append is logged but does not
// undo the mutation; the data change has already been committed.
func (e *Engine) appendLog(ctx context.Context, userID uint64, action string, targetID uint64, details map[string]model.FieldChange, sourceAddr string) {
	l := model.MenuLog{
		UserID:     userID,
		Action:     action,
		TargetType: model.TargetTypeMenu,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  sourceAddr,
	}
	if err := e.logs.Insert(ctx, &l); err != nil {
		log.Printf("menu: append %s log for menu %d failed: %v", action, targetID, err)
	}
}

// validateInput rejects values outside the declared field sets before
// anything is diffed or persisted. Empty strings pass; they mean "keep
// the default" on create and are a no-op change on update.
func validateInput(in Input) error {
	if in.DisplayMode != nil && *in.DisplayMode != "" &&
		*in.DisplayMode != model.DisplayModeStacked && *in.DisplayMode != model.DisplayModeTabs {
		return ErrInvalidInput
	}
	if in.BackgroundType != nil && *in.BackgroundType != "" &&
		*in.BackgroundType != model.BackgroundColor && *in.BackgroundType != model.BackgroundImage {
		return ErrInvalidInput
	}
	return nil
}

// applyInput copies present fields from a create payload onto the menu.
// The restaurant name is never taken from the input.
func applyInput(m *model.Menu, in Input) {
	if in.DisplayName != nil && *in.DisplayName != "" {
		m.DisplayName = *in.DisplayName
	}
	if in.Sections != nil {
		m.Sections = *in.Sections
	}
	if in.TodaysSpecial != nil {
		m.TodaysSpecial = in.TodaysSpecial
	}
	if in.QRCodeURL != nil {
		m.QRCodeURL = *in.QRCodeURL
	}
	if in.DisplayMode != nil && *in.DisplayMode != "" {
		m.DisplayMode = *in.DisplayMode
	}
	if in.BackgroundType != nil && *in.BackgroundType != "" {
		m.BackgroundType = *in.BackgroundType
	}
	if in.BackgroundValue != nil && *in.BackgroundValue != "" {
		m.BackgroundValue = *in.BackgroundValue
	}
	if in.SocialLinks != nil {
		m.SocialLinks = *in.SocialLinks
	}
	if in.Logo != nil {
		m.Logo = in.Logo
	}
	if in.BackgroundImage != nil && m.BackgroundType == model.BackgroundImage {
		m.BackgroundImg = in.BackgroundImage
	}
}

// diffAndApply mutates the menu with the present fields of the payload
// and returns the per-field before/after map of what actually changed.
// Image fields are recorded in their data-URI form so the audit row stays
// JSON-safe.
func diffAndApply(m *model.Menu, in Input) map[string]model.FieldChange {
	changes := make(map[string]model.FieldChange)

	if in.DisplayName != nil && recordChange(changes, "displayName", m.DisplayName, *in.DisplayName) {
		m.DisplayName = *in.DisplayName
	}
	if in.Sections != nil && recordChange(changes, "sections", m.Sections, *in.Sections) {
		m.Sections = *in.Sections
	}
	if in.TodaysSpecial != nil && recordChange(changes, "todaysSpecial", m.TodaysSpecial, in.TodaysSpecial) {
		m.TodaysSpecial = in.TodaysSpecial
	}
	if in.QRCodeURL != nil && recordChange(changes, "qrCodeUrl", m.QRCodeURL, *in.QRCodeURL) {
		m.QRCodeURL = *in.QRCodeURL
	}
	if in.DisplayMode != nil && recordChange(changes, "displayMode", m.DisplayMode, *in.DisplayMode) {
		m.DisplayMode = *in.DisplayMode
	}
	if in.BackgroundType != nil && recordChange(changes, "backgroundType", m.BackgroundType, *in.BackgroundType) {
		m.BackgroundType = *in.BackgroundType
	}
	if in.BackgroundValue != nil && recordChange(changes, "backgroundValue", m.BackgroundValue, *in.BackgroundValue) {
		m.BackgroundValue = *in.BackgroundValue
	}
	if in.SocialLinks != nil && recordChange(changes, "socialLinks", m.SocialLinks, *in.SocialLinks) {
		m.SocialLinks = *in.SocialLinks
	}
	if in.Logo != nil && recordChange(changes, "logo", blobDataURI(m.Logo), blobDataURI(in.Logo)) {
		m.Logo = in.Logo
	}
	// A background image only applies while the background type is image;
	// the type may have been switched by this same payload.
	if in.BackgroundImage != nil && m.BackgroundType == model.BackgroundImage &&
		recordChange(changes, "backgroundImage", blobDataURI(m.BackgroundImg), blobDataURI(in.BackgroundImage)) {
		m.BackgroundImg = in.BackgroundImage
	}
	return changes
}
