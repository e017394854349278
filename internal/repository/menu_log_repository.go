package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/menupress/menupress/internal/model"
)

// MenuLogRepo appends immutable audit rows to the 'menu_logs' table.
// There is no update or delete path; the trail only grows.
type MenuLogRepo struct{ DB *sql.DB }

func NewMenuLogRepo(db *sql.DB) *MenuLogRepo { return &MenuLogRepo{DB: db} }

// Insert appends one audit row. Details may be nil for create and delete
// entries.
func (r *MenuLogRepo) Insert(ctx context.Context, l *model.MenuLog) error {
	var details []byte
	if len(l.Details) > 0 {
		var err error
		if details, err = json.Marshal(l.Details); err != nil {
			return fmt.Errorf("encode details: %w", err)
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO menu_logs (user_id, action, target_type, target_id, details, ip_address) VALUES (?,?,?,?,?,?)",
		l.UserID, l.Action, l.TargetType, l.TargetID, details, l.IPAddress)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// ListByUser returns all audit rows for one actor, newest first,
// optionally narrowed to a single target menu.
func (r *MenuLogRepo) ListByUser(ctx context.Context, userID uint64, targetID *uint64) ([]model.MenuLog, error) {
	query := "SELECT id,user_id,action,target_type,target_id,details,ip_address,created_at FROM menu_logs WHERE user_id=?"
	args := []any{userID}
	if targetID != nil {
		query += " AND target_id=?"
		args = append(args, *targetID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	return r.list(ctx, query, args...)
}

// Recent returns the newest n audit rows for one actor.
func (r *MenuLogRepo) Recent(ctx context.Context, userID uint64, n int) ([]model.MenuLog, error) {
	return r.list(ctx,
		"SELECT id,user_id,action,target_type,target_id,details,ip_address,created_at FROM menu_logs WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, n)
}

func (r *MenuLogRepo) list(ctx context.Context, query string, args ...any) ([]model.MenuLog, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MenuLog
	for rows.Next() {
		var (
			l       model.MenuLog
			details []byte
			ip      sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.TargetType, &l.TargetID, &details, &ip, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.IPAddress = ip.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &l.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
