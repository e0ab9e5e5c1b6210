package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

const userColumns = "id, name, email, password_hash, role, host_status, bank_account_name, bank_account_number, created_at"

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// SetHostStatus moves a host through the approval flow. Only approved hosts
// may create withdrawal requests.
func (r *Repository) SetHostStatus(ctx context.Context, id int, status string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user,
		`UPDATE users SET host_status = $1 WHERE id = $2 RETURNING `+userColumns,
		status, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// UpdateBankDetails stores the payout destination a host's withdrawals
// default to.
func (r *Repository) UpdateBankDetails(ctx context.Context, id int, accountName, accountNumber string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user,
		`UPDATE users SET bank_account_name = $1, bank_account_number = $2 WHERE id = $3 RETURNING `+userColumns,
		accountName, accountNumber, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}
