package withdrawal

import "time"

// Withdrawal lifecycle. A request enters pending_transfer only after funds
// were reserved and leaves it through exactly one terminal transition.
// Canceled exists in the schema for a future cancellation flow; no code path
// sets it.
const (
	StatusPendingTransfer = "pending_transfer"
	StatusPaid            = "paid"
	StatusFailed          = "failed"
	StatusCanceled        = "canceled"
)

// MinWithdrawalCents is the smallest amount a host may request, ETB 10.00.
const MinWithdrawalCents int64 = 1000

type WithdrawalRequest struct {
	ID                 int        `db:"id" json:"id"`
	HostID             int        `db:"host_id" json:"host_id"`
	ClientRequestID    *string    `db:"client_request_id" json:"client_request_id,omitempty"`
	AmountCents        int64      `db:"amount_cents" json:"amount_cents"`
	Currency           string     `db:"currency" json:"currency"`
	Status             string     `db:"status" json:"status"`
	BankName           string     `db:"bank_name" json:"bank_name"`
	AccountName        string     `db:"account_name" json:"account_name"`
	AccountNumberLast4 string     `db:"account_number_last4" json:"account_number_last4"`
	RoutingLast4       string     `db:"routing_last4" json:"routing_last4"`
	ExportBatchID      *int       `db:"export_batch_id" json:"export_batch_id,omitempty"`
	ProcessedAt        *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	FailureReason      *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Destination is the bank routing metadata carried on a request. The ledger
// core treats it as opaque; only the export file reads it.
type Destination struct {
	BankName           string `json:"bank_name" validate:"max=100"`
	AccountName        string `json:"account_name" validate:"max=100"`
	AccountNumberLast4 string `json:"account_number_last4" validate:"max=4"`
	RoutingLast4       string `json:"routing_last4" validate:"max=4"`
}
