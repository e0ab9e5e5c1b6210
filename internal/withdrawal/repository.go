package withdrawal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bisrat6/Huletfish/internal/wallet"
)

var (
	ErrNotFound               = errors.New("withdrawal not found")
	ErrInvalidStateTransition = errors.New("withdrawal is not pending transfer")
)

const columns = "id, host_id, client_request_id, amount_cents, currency, status, bank_name, account_name, account_number_last4, routing_last4, export_batch_id, processed_at, failure_reason, created_at, updated_at"

const ledgerRefType = "WithdrawalRequest"

type Repository struct {
	db      *sqlx.DB
	wallets *wallet.Repository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db:      db,
		wallets: wallet.NewRepository(db),
	}
}

type CreateParams struct {
	HostID          int
	AmountCents     int64
	Currency        string
	ClientRequestID *string
	Destination     Destination
}

// CreateWithReservation inserts the request row and reserves the funds in one
// database transaction. If the reserve fails the row is rolled back with it,
// so a request in pending_transfer always has reserved funds behind it and a
// failed reservation leaves no trace. Returns created=false when an existing
// request with the same (host, client_request_id) was returned instead.
func (r *Repository) CreateWithReservation(ctx context.Context, p CreateParams) (*WithdrawalRequest, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if p.ClientRequestID != nil {
		existing, err := getByClientRequestID(ctx, tx, p.HostID, *p.ClientRequestID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
	}

	var wr WithdrawalRequest
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO withdrawal_requests (host_id, client_request_id, amount_cents, currency, status, bank_name, account_name, account_number_last4, routing_last4)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+columns,
		p.HostID, p.ClientRequestID, p.AmountCents, p.Currency, StatusPendingTransfer,
		p.Destination.BankName, p.Destination.AccountName, p.Destination.AccountNumberLast4, p.Destination.RoutingLast4,
	).StructScan(&wr)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && p.ClientRequestID != nil {
			// Lost a duplicate-submission race; the winner's row is the answer.
			tx.Rollback()
			var existing WithdrawalRequest
			gerr := r.db.GetContext(ctx, &existing,
				`SELECT `+columns+` FROM withdrawal_requests WHERE host_id = $1 AND client_request_id = $2`,
				p.HostID, *p.ClientRequestID)
			if gerr != nil {
				return nil, false, gerr
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	ref := wallet.LedgerRef{Type: ledgerRefType, ID: wallet.RefIDForWithdrawal(wr.ID)}
	if _, err := r.wallets.ReserveTx(ctx, tx, p.HostID, p.AmountCents, ref); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &wr, true, nil
}

func getByClientRequestID(ctx context.Context, tx *sqlx.Tx, hostID int, clientRequestID string) (*WithdrawalRequest, error) {
	var wr WithdrawalRequest
	err := tx.QueryRowxContext(ctx,
		`SELECT `+columns+` FROM withdrawal_requests WHERE host_id = $1 AND client_request_id = $2`,
		hostID, clientRequestID,
	).StructScan(&wr)
	if err != nil {
		return nil, err
	}
	return &wr, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*WithdrawalRequest, error) {
	var wr WithdrawalRequest
	err := r.db.GetContext(ctx, &wr, `SELECT `+columns+` FROM withdrawal_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wr, nil
}

// MarkPaid settles the reserved funds and flips the request to paid. The row
// is locked for the duration, so a terminal request can never transition
// twice or produce a second ledger entry.
func (r *Repository) MarkPaid(ctx context.Context, id int) (*WithdrawalRequest, error) {
	return r.finalize(ctx, id, StatusPaid, nil)
}

// MarkFailed returns the reserved funds to the available balance and records
// the failure reason.
func (r *Repository) MarkFailed(ctx context.Context, id int, reason string) (*WithdrawalRequest, error) {
	return r.finalize(ctx, id, StatusFailed, &reason)
}

func (r *Repository) finalize(ctx context.Context, id int, target string, reason *string) (*WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var wr WithdrawalRequest
	err = tx.QueryRowxContext(ctx,
		`SELECT `+columns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id,
	).StructScan(&wr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if wr.Status != StatusPendingTransfer {
		return nil, ErrInvalidStateTransition
	}

	ref := wallet.LedgerRef{Type: ledgerRefType, ID: wallet.RefIDForWithdrawal(wr.ID)}
	switch target {
	case StatusPaid:
		_, err = r.wallets.FinalizePayoutTx(ctx, tx, wr.HostID, wr.AmountCents, ref)
	case StatusFailed:
		_, err = r.wallets.ReleaseTx(ctx, tx, wr.HostID, wr.AmountCents, ref)
	}
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE withdrawal_requests
		 SET status = $1, failure_reason = $2, processed_at = NOW(), updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+columns,
		target, reason, id,
	).StructScan(&wr)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &wr, nil
}

func (r *Repository) ListByHost(ctx context.Context, hostID, page, limit int) ([]WithdrawalRequest, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit

	var items []WithdrawalRequest
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+columns+` FROM withdrawal_requests WHERE host_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		hostID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM withdrawal_requests WHERE host_id = $1`, hostID)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListAll powers the admin surface, newest first, optionally filtered by
// status. Capped at 500 rows.
func (r *Repository) ListAll(ctx context.Context, status string) ([]WithdrawalRequest, error) {
	var items []WithdrawalRequest
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &items,
			`SELECT `+columns+` FROM withdrawal_requests WHERE status = $1 ORDER BY created_at DESC LIMIT 500`,
			status)
	} else {
		err = r.db.SelectContext(ctx, &items,
			`SELECT `+columns+` FROM withdrawal_requests ORDER BY created_at DESC LIMIT 500`)
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}
