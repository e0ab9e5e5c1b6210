package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/metrics"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient available balance")
	ErrInsufficientPending = errors.New("insufficient pending payout balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

const walletColumns = "id, host_id, available_balance_cents, pending_payout_cents, currency, created_at, updated_at"

// mutation describes one balance-affecting operation. The precondition lives
// in the UPDATE's WHERE clause, so check and mutate are a single atomic
// statement against the row.
type mutation struct {
	ledgerType string
	query      string
	guardErr   error
}

var (
	mutCredit = mutation{
		ledgerType: LedgerTypeCredit,
		query: `UPDATE wallets
			SET available_balance_cents = available_balance_cents + $1, updated_at = NOW()
			WHERE host_id = $2
			RETURNING ` + walletColumns,
	}
	mutDebit = mutation{
		ledgerType: LedgerTypeDebit,
		query: `UPDATE wallets
			SET available_balance_cents = available_balance_cents - $1, updated_at = NOW()
			WHERE host_id = $2 AND available_balance_cents >= $1
			RETURNING ` + walletColumns,
		guardErr: ErrInsufficientFunds,
	}
	mutReserve = mutation{
		ledgerType: LedgerTypeReserve,
		query: `UPDATE wallets
			SET available_balance_cents = available_balance_cents - $1, pending_payout_cents = pending_payout_cents + $1, updated_at = NOW()
			WHERE host_id = $2 AND available_balance_cents >= $1
			RETURNING ` + walletColumns,
		guardErr: ErrInsufficientFunds,
	}
	mutRelease = mutation{
		ledgerType: LedgerTypeRelease,
		query: `UPDATE wallets
			SET available_balance_cents = available_balance_cents + $1, pending_payout_cents = pending_payout_cents - $1, updated_at = NOW()
			WHERE host_id = $2 AND pending_payout_cents >= $1
			RETURNING ` + walletColumns,
		guardErr: ErrInsufficientPending,
	}
	mutPayout = mutation{
		ledgerType: LedgerTypePayout,
		query: `UPDATE wallets
			SET pending_payout_cents = pending_payout_cents - $1, updated_at = NOW()
			WHERE host_id = $2 AND pending_payout_cents >= $1
			RETURNING ` + walletColumns,
		guardErr: ErrInsufficientPending,
	}
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreateWallet lazily creates a zero-balance wallet on first reference.
// The insert is ON CONFLICT DO NOTHING, so concurrent first access resolves
// to the same row.
func (r *Repository) GetOrCreateWallet(ctx context.Context, hostID int) (*Wallet, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (host_id) VALUES ($1) ON CONFLICT (host_id) DO NOTHING`,
		hostID,
	); err != nil {
		return nil, err
	}

	w := &Wallet{}
	err := r.db.GetContext(ctx, w,
		`SELECT `+walletColumns+` FROM wallets WHERE host_id = $1`,
		hostID,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Repository) Credit(ctx context.Context, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return r.mutate(ctx, hostID, amountCents, ref, mutCredit)
}

func (r *Repository) Debit(ctx context.Context, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return r.mutate(ctx, hostID, amountCents, ref, mutDebit)
}

func (r *Repository) Reserve(ctx context.Context, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return r.mutate(ctx, hostID, amountCents, ref, mutReserve)
}

func (r *Repository) Release(ctx context.Context, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return r.mutate(ctx, hostID, amountCents, ref, mutRelease)
}

func (r *Repository) FinalizePayout(ctx context.Context, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return r.mutate(ctx, hostID, amountCents, ref, mutPayout)
}

// Tx variants let a caller that owns a transaction (the withdrawal repository)
// fold a wallet mutation into it. The wallet row is still only ever written
// through this package.

func (r *Repository) ReserveTx(ctx context.Context, tx *sqlx.Tx, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return applyTx(ctx, tx, hostID, amountCents, ref, mutReserve)
}

func (r *Repository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return applyTx(ctx, tx, hostID, amountCents, ref, mutRelease)
}

func (r *Repository) FinalizePayoutTx(ctx context.Context, tx *sqlx.Tx, hostID int, amountCents int64, ref LedgerRef) (*Wallet, error) {
	return applyTx(ctx, tx, hostID, amountCents, ref, mutPayout)
}

func (r *Repository) mutate(ctx context.Context, hostID int, amountCents int64, ref LedgerRef, m mutation) (*Wallet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := applyTx(ctx, tx, hostID, amountCents, ref, m)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return w, nil
}

// applyTx performs one conditional balance update and appends the matching
// ledger entry. BalanceAfterCents comes from the RETURNING row, so the
// snapshot cannot interleave with another mutation.
func applyTx(ctx context.Context, tx *sqlx.Tx, hostID int, amountCents int64, ref LedgerRef, m mutation) (*Wallet, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (host_id) VALUES ($1) ON CONFLICT (host_id) DO NOTHING`,
		hostID,
	); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.QueryRowxContext(ctx, m.query, amountCents, hostID).StructScan(&w)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) && m.guardErr != nil {
			metrics.RecordWalletOperation(m.ledgerType, "rejected")
			return nil, m.guardErr
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger_entries (wallet_id, type, amount_cents, ref_type, ref_id, balance_after_cents)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, m.ledgerType, amountCents, ref.Type, ref.ID, w.AvailableBalanceCents+w.PendingPayoutCents,
	); err != nil {
		return nil, err
	}

	metrics.RecordWalletOperation(m.ledgerType, "ok")
	return &w, nil
}

// ListLedgerEntries returns a wallet's journal in creation order. Replaying
// the signed amounts reproduces the wallet's current balances.
func (r *Repository) ListLedgerEntries(ctx context.Context, hostID int, f LedgerFilter) ([]LedgerEntry, error) {
	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE host_id = $1`, hostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []LedgerEntry{}, nil
		}
		return nil, err
	}

	query := `SELECT id, wallet_id, type, amount_cents, ref_type, ref_id, balance_after_cents, created_at
		FROM wallet_ledger_entries
		WHERE wallet_id = $1`
	args := []interface{}{walletID}

	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.RefID != "" {
		args = append(args, f.RefID)
		query += fmt.Sprintf(" AND ref_id = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var entries []LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// RefIDForWithdrawal formats the ledger reference id for a withdrawal request.
func RefIDForWithdrawal(withdrawalID int) string {
	return strconv.Itoa(withdrawalID)
}
