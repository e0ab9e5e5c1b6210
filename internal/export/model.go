package export

import "time"

// Batch lifecycle: a batch is created open, becomes exported once the
// transfer file is produced, and reconciled after the operator reports every
// member's outcome. Reconciliation is an operator bookkeeping state; it never
// changes withdrawal statuses.
const (
	BatchStatusOpen       = "open"
	BatchStatusExported   = "exported"
	BatchStatusReconciled = "reconciled"
)

type ExportBatch struct {
	ID               int       `db:"id" json:"id"`
	Filename         string    `db:"filename" json:"filename"`
	Count            int       `db:"count" json:"count"`
	TotalAmountCents int64     `db:"total_amount_cents" json:"total_amount_cents"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Result is what one export run produced. An empty run has Count zero and no
// batch row behind it.
type Result struct {
	BatchID          int    `json:"batch_id,omitempty"`
	Filename         string `json:"filename,omitempty"`
	Count            int    `json:"count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	CSV              string `json:"csv"`
}
