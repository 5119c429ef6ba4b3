package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus metrics. Every use case takes a
// *Metrics and tolerates nil, so tests run without a registry.
type Metrics struct {
	// Posting metrics
	TransactionsPosted prometheus.Counter
	PostingDuration    prometheus.Histogram
	PostingErrors      *prometheus.CounterVec
	EntryAmount        prometheus.Histogram
	ReversalsCreated   prometheus.Counter

	// Account metrics
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Balance metrics
	BalanceQueries       prometheus.Counter
	BalanceQueryDuration prometheus.Histogram

	// Outbox metrics
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		// Posting metrics
		TransactionsPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_posted_total",
			Help: "Total number of transactions posted",
		}),
		PostingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostingErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_posting_errors_total",
				Help: "Total number of failed postings by stage",
			},
			[]string{"stage"},
		),
		EntryAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_entry_amount",
			Help:    "Posted entry amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		ReversalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_reversals_created_total",
			Help: "Total number of reversal transactions posted",
		}),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Balance metrics
		BalanceQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_queries_total",
			Help: "Total number of balance queries",
		}),
		BalanceQueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_balance_query_duration_seconds",
			Help:    "Duration of balance queries",
			Buckets: prometheus.DefBuckets,
		}),

		// Outbox metrics
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_events_published_total",
			Help: "Total number of outbox events published",
		}),
		EventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_events_failed_total",
			Help: "Total number of outbox events that failed to publish",
		}),
	}
}
