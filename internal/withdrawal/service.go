package withdrawal

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/email"
	"github.com/bisrat6/Huletfish/internal/logger"
	"github.com/bisrat6/Huletfish/internal/metrics"
	"github.com/bisrat6/Huletfish/internal/user"
)

var ErrAmountBelowMinimum = errors.New("withdrawal amount is below the minimum")

const defaultBankName = "CBE"

type Service struct {
	repo     *Repository
	users    *user.Repository
	email    *email.Service
	currency string
}

func NewService(db *sqlx.DB, emailService *email.Service, currency string) *Service {
	return &Service{
		repo:     NewRepository(db),
		users:    user.NewRepository(db),
		email:    emailService,
		currency: currency,
	}
}

// Create reserves funds and records the withdrawal request as one unit.
// Approval of the caller is enforced by the route middleware; retries with
// the same client request id return the original request without reserving
// again. Notification delivery is best-effort and never fails the call.
func (s *Service) Create(ctx context.Context, hostID int, amountCents int64, clientRequestID *string, dest Destination) (*WithdrawalRequest, error) {
	if amountCents < MinWithdrawalCents {
		return nil, ErrAmountBelowMinimum
	}

	u, err := s.users.FindByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	wr, created, err := s.repo.CreateWithReservation(ctx, CreateParams{
		HostID:          hostID,
		AmountCents:     amountCents,
		Currency:        s.currency,
		ClientRequestID: clientRequestID,
		Destination:     normalizeDestination(u, dest),
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.RecordWithdrawalCreated()
		logger.Info("withdrawal_created",
			"withdrawal_id", wr.ID,
			"host_id", hostID,
			"amount_cents", amountCents,
		)
		s.email.SendWithdrawalCreated(ctx, u.Email, u.Name, wr.ID, wr.AmountCents)
	}

	return wr, nil
}

// normalizeDestination fills the request's bank routing metadata from the
// host's stored bank details, falling back to whatever the caller supplied.
func normalizeDestination(u *user.User, dest Destination) Destination {
	out := Destination{
		BankName:           defaultBankName,
		AccountName:        u.BankAccountName,
		AccountNumberLast4: last4(u.BankAccountNumber),
		RoutingLast4:       dest.RoutingLast4,
	}
	if out.AccountName == "" {
		out.AccountName = dest.AccountName
	}
	if out.AccountNumberLast4 == "" {
		out.AccountNumberLast4 = dest.AccountNumberLast4
	}
	if dest.BankName != "" {
		out.BankName = dest.BankName
	}
	return out
}

func last4(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func (s *Service) MarkPaid(ctx context.Context, adminID, id int) (*WithdrawalRequest, error) {
	wr, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalProcessed(StatusPaid)
	logger.Info("withdrawal_mark_paid",
		"admin_id", adminID,
		"withdrawal_id", wr.ID,
		"host_id", wr.HostID,
		"amount_cents", wr.AmountCents,
	)

	s.notify(ctx, wr)
	return wr, nil
}

func (s *Service) MarkFailed(ctx context.Context, adminID, id int, reason string) (*WithdrawalRequest, error) {
	if reason == "" {
		reason = "Unknown"
	}

	wr, err := s.repo.MarkFailed(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawalProcessed(StatusFailed)
	logger.Info("withdrawal_mark_failed",
		"admin_id", adminID,
		"withdrawal_id", wr.ID,
		"host_id", wr.HostID,
		"amount_cents", wr.AmountCents,
		"reason", reason,
	)

	s.notify(ctx, wr)
	return wr, nil
}

func (s *Service) notify(ctx context.Context, wr *WithdrawalRequest) {
	u, err := s.users.FindByID(ctx, wr.HostID)
	if err != nil {
		logger.Errorf("Failed to load host %d for notification: %v", wr.HostID, err)
		return
	}

	switch wr.Status {
	case StatusPaid:
		s.email.SendWithdrawalPaid(ctx, u.Email, u.Name, wr.ID, wr.AmountCents)
	case StatusFailed:
		reason := "Unknown"
		if wr.FailureReason != nil {
			reason = *wr.FailureReason
		}
		s.email.SendWithdrawalFailed(ctx, u.Email, u.Name, wr.ID, reason)
	}
}

func (s *Service) Get(ctx context.Context, id int) (*WithdrawalRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByHost(ctx context.Context, hostID, page, limit int) ([]WithdrawalRequest, int, error) {
	return s.repo.ListByHost(ctx, hostID, page, limit)
}

func (s *Service) ListAll(ctx context.Context, status string) ([]WithdrawalRequest, error) {
	return s.repo.ListAll(ctx, status)
}
