package repository

import (
	"context"
	"database/sql"

	"github.com/menupress/menupress/internal/model"
)

// SessionRepo persists opaque session tokens in the 'sessions' table.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row and fills in its ID.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, session_token, ip_address, created_at, expires_at) VALUES (?,?,?,?,?)",
		s.UserID, s.Token, s.IPAddress, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByToken returns the session row holding the given token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,session_token,ip_address,created_at,expires_at FROM sessions WHERE session_token=? LIMIT 1",
		token).Scan(&s.ID, &s.UserID, &s.Token, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	return s, err
}

// DeleteByToken removes a session row. Deleting an absent token is not an
// error; revocation is idempotent.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE session_token=?", token)
	return err
}
