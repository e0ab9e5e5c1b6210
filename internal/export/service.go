package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/logger"
	"github.com/bisrat6/Huletfish/internal/metrics"
)

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

type exportItem struct {
	ID                 int    `db:"id"`
	HostID             int    `db:"host_id"`
	AmountCents        int64  `db:"amount_cents"`
	BankName           string `db:"bank_name"`
	AccountName        string `db:"account_name"`
	AccountNumberLast4 string `db:"account_number_last4"`
	RoutingLast4       string `db:"routing_last4"`
}

// CreateExportBatch claims every pending_transfer withdrawal not yet in a
// batch and emits the transfer file. The claim is a single conditional
// UPDATE stamping the batch id, so two concurrent export runs divide the
// eligible set between them and no withdrawal ever lands in two batches.
// Withdrawal status is untouched; only MarkPaid/MarkFailed move it.
func (s *Service) CreateExportBatch(ctx context.Context) (*Result, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	filename := fmt.Sprintf("payouts_%s_%s.csv",
		time.Now().UTC().Format("2006-01-02T15-04-05"),
		uuid.NewString()[:8],
	)

	var batch ExportBatch
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO payout_export_batches (filename, status)
		 VALUES ($1, $2)
		 RETURNING id, filename, count, total_amount_cents, status, created_at`,
		filename, BatchStatusOpen,
	).StructScan(&batch)
	if err != nil {
		return nil, err
	}

	var items []exportItem
	err = tx.SelectContext(ctx, &items,
		`UPDATE withdrawal_requests
		 SET export_batch_id = $1, updated_at = NOW()
		 WHERE status = 'pending_transfer' AND export_batch_id IS NULL
		 RETURNING id, host_id, amount_cents, bank_name, account_name, account_number_last4, routing_last4`,
		batch.ID,
	)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		// Nothing eligible: the rollback discards the batch row too.
		return &Result{}, nil
	}

	// RETURNING carries no order guarantee; sort for a deterministic file.
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	var total int64
	for _, item := range items {
		total += item.AmountCents
	}

	artifact, err := buildCSV(items)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payout_export_batches
		 SET count = $1, total_amount_cents = $2, status = $3
		 WHERE id = $4`,
		len(items), total, BatchStatusExported, batch.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RecordPayoutExport(total)
	logger.Info("payout_export_created",
		"batch_id", batch.ID,
		"filename", filename,
		"count", len(items),
		"total_amount_cents", total,
	)

	return &Result{
		BatchID:          batch.ID,
		Filename:         filename,
		Count:            len(items),
		TotalAmountCents: total,
		CSV:              artifact,
	}, nil
}

// buildCSV renders one row per withdrawal. encoding/csv applies RFC 4180
// quoting, so commas, quotes, and newlines in destination fields survive.
func buildCSV(items []exportItem) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"withdrawal_id", "host_id", "amount_cents", "bank_name", "account_name", "account_number_last4", "routing_last4", "memo"}); err != nil {
		return "", err
	}

	for _, item := range items {
		record := []string{
			strconv.Itoa(item.ID),
			strconv.Itoa(item.HostID),
			strconv.FormatInt(item.AmountCents, 10),
			item.BankName,
			item.AccountName,
			item.AccountNumberLast4,
			item.RoutingLast4,
			fmt.Sprintf("Withdrawal %d", item.ID),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) ListBatches(ctx context.Context, limit int) ([]ExportBatch, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var batches []ExportBatch
	err := s.db.SelectContext(ctx, &batches,
		`SELECT id, filename, count, total_amount_cents, status, created_at
		 FROM payout_export_batches
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	return batches, nil
}
