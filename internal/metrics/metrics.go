package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huletfish_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WithdrawalsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huletfish_withdrawals_created_total",
			Help: "Total number of withdrawal requests created",
		},
	)

	WithdrawalsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_withdrawals_processed_total",
			Help: "Total number of withdrawal requests marked paid or failed",
		},
		[]string{"status"},
	)

	WalletOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_wallet_operations_total",
			Help: "Total number of wallet balance mutations by ledger type",
		},
		[]string{"type", "outcome"},
	)

	PayoutExportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huletfish_payout_exports_total",
			Help: "Total number of payout export batches created",
		},
	)

	PayoutExportAmountCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huletfish_payout_export_amount_cents_total",
			Help: "Total amount in cents stamped into payout export batches",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huletfish_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordWithdrawalCreated() {
	WithdrawalsCreatedTotal.Inc()
}

func RecordWithdrawalProcessed(status string) {
	WithdrawalsProcessedTotal.WithLabelValues(status).Inc()
}

func RecordWalletOperation(ledgerType, outcome string) {
	WalletOperationsTotal.WithLabelValues(ledgerType, outcome).Inc()
}

func RecordPayoutExport(totalAmountCents int64) {
	PayoutExportsTotal.Inc()
	PayoutExportAmountCents.Add(float64(totalAmountCents))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
