package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menupress/menupress/internal/model"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUserRepoCreate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "a@x.com", "hash", "Alice", "Smith", "5550001", sqlmock.AnyArg(), "user", true).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := model.User{
		Username:     "alice",
		Email:        "  A@X.COM ", // normalized before insert
		PasswordHash: "hash",
		FirstName:    "Alice",
		LastName:     "Smith",
		MobileNo:     "5550001",
		DOB:          time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Role:         model.RoleUser,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), &u))
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.uq_users_username'"))

	u := model.User{Username: "alice", Email: "a@x.com"}
	err := repo.Create(context.Background(), &u)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByUsername(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "mobile_no", "dob", "role", "active", "created_at"}).
		AddRow(7, "alice", "a@x.com", "hash", "Alice", "Smith", "5550001", dob, "user", true, created)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id,username,email,password_hash,first_name,last_name,mobile_no,dob,role,active,created_at FROM users WHERE username=?")).
		WithArgs("alice").
		WillReturnRows(rows)

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.True(t, u.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByUsernameNotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeactivate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active=0 WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Deactivate(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeactivateNotFound(t *testing.T) {
	db, mock := newSQLMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active=0 WHERE id=?")).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), 404), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
