package user

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	return repo, mock, func() { sqlxDB.Close() }
}

func userRows(id int, email, role, hostStatus string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "host_status", "bank_account_name", "bank_account_number", "created_at"}).
		AddRow(id, "Abebe Bikila", email, "hash", role, hostStatus, "", "", time.Now())
}

func TestCreate_DefaultsToPendingHost(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING "+userColumns)).
		WithArgs("Abebe Bikila", "abebe@example.com", "hash", RoleHost).
		WillReturnRows(userRows(1, "abebe@example.com", RoleHost, HostStatusPending))

	u, err := repo.Create(context.Background(), "Abebe Bikila", "abebe@example.com", "hash", RoleHost)
	require.NoError(t, err)
	require.Equal(t, HostStatusPending, u.HostStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetHostStatus_Approves(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET host_status = $1 WHERE id = $2 RETURNING "+userColumns)).
		WithArgs(HostStatusApproved, 7).
		WillReturnRows(userRows(7, "abebe@example.com", RoleHost, HostStatusApproved))

	u, err := repo.SetHostStatus(context.Background(), 7, HostStatusApproved)
	require.NoError(t, err)
	require.Equal(t, HostStatusApproved, u.HostStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBankDetails_Persists(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "host_status", "bank_account_name", "bank_account_number", "created_at"}).
		AddRow(7, "Abebe Bikila", "abebe@example.com", "hash", RoleHost, HostStatusApproved, "Abebe Bikila", "100023456789", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET bank_account_name = $1, bank_account_number = $2 WHERE id = $3 RETURNING "+userColumns)).
		WithArgs("Abebe Bikila", "100023456789", 7).
		WillReturnRows(rows)

	u, err := repo.UpdateBankDetails(context.Background(), 7, "Abebe Bikila", "100023456789")
	require.NoError(t, err)
	require.Equal(t, "100023456789", u.BankAccountNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
