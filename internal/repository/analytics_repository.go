package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/menupress/menupress/internal/model"
)

// AnalyticsRepo records public menu page views in 'analytics_events'.
type AnalyticsRepo struct{ DB *sql.DB }

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// Insert appends one visit event.
func (r *AnalyticsRepo) Insert(ctx context.Context, e *model.VisitEvent) error {
	var sections []byte
	if len(e.ViewedSections) > 0 {
		var err error
		if sections, err = json.Marshal(e.ViewedSections); err != nil {
			return fmt.Errorf("encode viewed sections: %w", err)
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO analytics_events (restaurant_name, duration_sec, viewed_sections, referrer, ip_address) VALUES (?,?,?,?,?)",
		e.RestaurantName, e.DurationSec, sections, e.Referrer, e.IPAddress)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListAll dumps every visit event, newest first.
func (r *AnalyticsRepo) ListAll(ctx context.Context) ([]model.VisitEvent, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,restaurant_name,duration_sec,viewed_sections,referrer,ip_address,visited_at FROM analytics_events ORDER BY visited_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VisitEvent
	for rows.Next() {
		var (
			e        model.VisitEvent
			sections []byte
			referrer sql.NullString
			ip       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RestaurantName, &e.DurationSec, &sections, &referrer, &ip, &e.VisitedAt); err != nil {
			return nil, err
		}
		e.Referrer = referrer.String
		e.IPAddress = ip.String
		if len(sections) > 0 {
			if err := json.Unmarshal(sections, &e.ViewedSections); err != nil {
				return nil, fmt.Errorf("decode viewed sections: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
