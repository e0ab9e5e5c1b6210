package wallet

import "time"

// Ledger entry types. Credit and release add to the available balance,
// debit and reserve take from it, payout settles reserved funds.
const (
	LedgerTypeCredit  = "credit"
	LedgerTypeDebit   = "debit"
	LedgerTypeReserve = "reserve"
	LedgerTypeRelease = "release"
	LedgerTypePayout  = "payout"
)

// Wallet holds a host's earned funds, split into the amount eligible for new
// withdrawal requests and the amount reserved against in-flight ones. Both
// fields are kept non-negative by the database.
type Wallet struct {
	ID                    int       `db:"id" json:"id"`
	HostID                int       `db:"host_id" json:"host_id"`
	AvailableBalanceCents int64     `db:"available_balance_cents" json:"available_balance_cents"`
	PendingPayoutCents    int64     `db:"pending_payout_cents" json:"pending_payout_cents"`
	Currency              string    `db:"currency" json:"currency"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is the append-only audit record of one balance mutation.
// BalanceAfterCents snapshots available+pending as of this entry.
type LedgerEntry struct {
	ID                int       `db:"id" json:"id"`
	WalletID          int       `db:"wallet_id" json:"wallet_id"`
	Type              string    `db:"type" json:"type"`
	AmountCents       int64     `db:"amount_cents" json:"amount_cents"`
	RefType           string    `db:"ref_type" json:"ref_type"`
	RefID             string    `db:"ref_id" json:"ref_id"`
	BalanceAfterCents int64     `db:"balance_after_cents" json:"balance_after_cents"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// LedgerRef points a ledger entry at the business event that caused it,
// e.g. {Type: "WithdrawalRequest", ID: "42"}.
type LedgerRef struct {
	Type string
	ID   string
}

// LedgerFilter narrows ListLedgerEntries. Zero values mean no filtering.
type LedgerFilter struct {
	Type   string
	RefID  string
	Limit  int
	Offset int
}
