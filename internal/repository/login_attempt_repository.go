package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/menupress/menupress/internal/model"
)

// LoginAttemptRepo appends and amends rows in the 'login_attempts' table.
// Rows are never deleted here; retention is an external concern.
type LoginAttemptRepo struct{ DB *sql.DB }

func NewLoginAttemptRepo(db *sql.DB) *LoginAttemptRepo { return &LoginAttemptRepo{DB: db} }

// CountRecentFailed counts failed attempts from one source address since
// the given instant. Successes never count toward the limit.
func (r *LoginAttemptRepo) CountRecentFailed(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM login_attempts WHERE ip_address=? AND success=0 AND attempted_at>=?",
		ip, since).Scan(&n)
	return n, err
}

// Record appends one attempt row and fills in its ID.
func (r *LoginAttemptRepo) Record(ctx context.Context, a *model.LoginAttempt) error {
	username := sql.NullString{String: a.Username, Valid: a.Username != ""}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_attempts (ip_address, username, success, attempted_at) VALUES (?,?,?,?)",
		a.IPAddress, username, a.Success, a.AttemptedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// MarkOutcome amends the attempt identified by the same
// (ip, username, timestamp) tuple used at record time. The newest match
// wins when the tuple is not unique.
func (r *LoginAttemptRepo) MarkOutcome(ctx context.Context, ip, username string, at time.Time, success bool) error {
	nullName := sql.NullString{String: username, Valid: username != ""}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE login_attempts SET success=? WHERE ip_address=? AND username<=>? AND attempted_at=? ORDER BY id DESC LIMIT 1",
		success, ip, nullName, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSuccessfulByUsername returns a user's successful sign-ins, newest
// first, for the account activity view.
func (r *LoginAttemptRepo) ListSuccessfulByUsername(ctx context.Context, username string) ([]model.LoginAttempt, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,ip_address,username,success,attempted_at FROM login_attempts WHERE username=? AND success=1 ORDER BY attempted_at DESC",
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LoginAttempt
	for rows.Next() {
		var a model.LoginAttempt
		var name sql.NullString
		if err := rows.Scan(&a.ID, &a.IPAddress, &name, &a.Success, &a.AttemptedAt); err != nil {
			return nil, err
		}
		a.Username = name.String
		out = append(out, a)
	}
	return out, rows.Err()
}
