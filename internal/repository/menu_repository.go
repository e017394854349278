package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/menupress/menupress/internal/model"
)

// MenuRepo persists menu documents in the 'menus' table. Structured
// fields (sections, today's special, social links) live in JSON columns;
// image blobs are stored inline with their MIME types alongside.
type MenuRepo struct{ DB *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{DB: db} }

const menuColumns = "id,restaurant_id,restaurant_name,display_name,sections,todays_special,qr_code_url," +
	"display_mode,background_type,background_value,background_image,background_image_type," +
	"logo,logo_type,social_links,created_at,updated_at"

// Create inserts a menu and fills in its ID. The unique key on
// restaurant_id guarantees at most one menu per owner even under
// concurrent creates; violations surface as ErrDuplicate.
func (r *MenuRepo) Create(ctx context.Context, m *model.Menu) error {
	sections, special, links, err := marshalMenuJSON(m)
	if err != nil {
		return err
	}
	logoData, logoType := blobColumns(m.Logo)
	bgData, bgType := blobColumns(m.BackgroundImg)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO menus (restaurant_id, restaurant_name, display_name, sections, todays_special, qr_code_url, "+
			"display_mode, background_type, background_value, background_image, background_image_type, "+
			"logo, logo_type, social_links) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		m.RestaurantID, m.RestaurantName, m.DisplayName, sections, special, m.QRCodeURL,
		m.DisplayMode, m.BackgroundType, m.BackgroundValue, bgData, bgType,
		logoData, logoType, links)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByOwner returns the single menu owned by a user.
func (r *MenuRepo) GetByOwner(ctx context.Context, ownerID uint64) (model.Menu, error) {
	return r.getOne(ctx, "SELECT "+menuColumns+" FROM menus WHERE restaurant_id=? LIMIT 1", ownerID)
}

// GetByIDAndOwner returns a menu only when both the id and the owner
// match; a mismatch on either reads as ErrNotFound.
func (r *MenuRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Menu, error) {
	return r.getOne(ctx, "SELECT "+menuColumns+" FROM menus WHERE id=? AND restaurant_id=? LIMIT 1", id, ownerID)
}

// GetByRestaurantName returns the menu published under a restaurant name.
func (r *MenuRepo) GetByRestaurantName(ctx context.Context, name string) (model.Menu, error) {
	return r.getOne(ctx, "SELECT "+menuColumns+" FROM menus WHERE restaurant_name=? LIMIT 1", name)
}

// Update persists the mutable fields of a menu in one statement.
func (r *MenuRepo) Update(ctx context.Context, m *model.Menu) error {
	sections, special, links, err := marshalMenuJSON(m)
	if err != nil {
		return err
	}
	logoData, logoType := blobColumns(m.Logo)
	bgData, bgType := blobColumns(m.BackgroundImg)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE menus SET display_name=?, sections=?, todays_special=?, qr_code_url=?, display_mode=?, "+
			"background_type=?, background_value=?, background_image=?, background_image_type=?, "+
			"logo=?, logo_type=?, social_links=? WHERE id=? AND restaurant_id=?",
		m.DisplayName, sections, special, m.QRCodeURL, m.DisplayMode,
		m.BackgroundType, m.BackgroundValue, bgData, bgType,
		logoData, logoType, links, m.ID, m.RestaurantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDAndOwner atomically removes the menu matching (id, owner).
// Zero rows affected reads as ErrNotFound, covering both absence and
// ownership mismatch.
func (r *MenuRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM menus WHERE id=? AND restaurant_id=?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MenuRepo) getOne(ctx context.Context, query string, args ...any) (model.Menu, error) {
	var (
		m                  model.Menu
		sections, links    []byte
		special            []byte
		logoData, bgData   []byte
		logoType, bgTypeNS sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&m.ID, &m.RestaurantID, &m.RestaurantName, &m.DisplayName, &sections, &special, &m.QRCodeURL,
		&m.DisplayMode, &m.BackgroundType, &m.BackgroundValue, &bgData, &bgTypeNS,
		&logoData, &logoType, &links, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Menu{}, ErrNotFound
	}
	if err != nil {
		return model.Menu{}, err
	}
	if err := json.Unmarshal(sections, &m.Sections); err != nil {
		return model.Menu{}, fmt.Errorf("decode sections: %w", err)
	}
	if err := json.Unmarshal(links, &m.SocialLinks); err != nil {
		return model.Menu{}, fmt.Errorf("decode social links: %w", err)
	}
	if len(special) > 0 {
		var item model.Item
		if err := json.Unmarshal(special, &item); err != nil {
			return model.Menu{}, fmt.Errorf("decode todays special: %w", err)
		}
		m.TodaysSpecial = &item
	}
	if len(logoData) > 0 {
		m.Logo = &model.ImageBlob{Data: logoData, ContentType: logoType.String}
	}
	if len(bgData) > 0 {
		m.BackgroundImg = &model.ImageBlob{Data: bgData, ContentType: bgTypeNS.String}
	}
	return m, nil
}

// marshalMenuJSON encodes the structured columns. Sections and social
// links always serialize to arrays (never SQL NULL) so reads round-trip.
func marshalMenuJSON(m *model.Menu) (sections, special, links []byte, err error) {
	secs := m.Sections
	if secs == nil {
		secs = []model.Section{}
	}
	if sections, err = json.Marshal(secs); err != nil {
		return nil, nil, nil, err
	}
	sl := m.SocialLinks
	if sl == nil {
		sl = []model.SocialLink{}
	}
	if links, err = json.Marshal(sl); err != nil {
		return nil, nil, nil, err
	}
	if m.TodaysSpecial != nil {
		if special, err = json.Marshal(m.TodaysSpecial); err != nil {
			return nil, nil, nil, err
		}
	}
	return sections, special, links, nil
}

// blobColumns splits an optional blob into its two columns.
func blobColumns(b *model.ImageBlob) ([]byte, sql.NullString) {
	if b == nil || len(b.Data) == 0 {
		return nil, sql.NullString{}
	}
	return b.Data, sql.NullString{String: b.ContentType, Valid: true}
}
