package repository

import (
	"context"
	"database/sql"

	"github.com/menupress/menupress/internal/model"
)

// ContactRepo stores submitted contact forms in 'contact_leads'.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// Insert appends one lead.
func (r *ContactRepo) Insert(ctx context.Context, l *model.ContactLead) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_leads (first_name, last_name, email, phone_number, company, message, country, agreed) VALUES (?,?,?,?,?,?,?,?)",
		l.FirstName, l.LastName, l.Email, l.PhoneNumber, l.Company, l.Message, l.Country, l.Agreed)
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
