package postgresengine

import (
	"github.com/lendkit/lending-ledger-go/ledger"
)

// Option defines a functional option for configuring LendingStore.
type Option func(*LendingStore) error

// WithTableNames overrides the default table names for books, members, and loans.
func WithTableNames(booksTable string, membersTable string, loansTable string) Option {
	return func(s *LendingStore) error {
		if booksTable == "" || membersTable == "" || loansTable == "" {
			return ledger.ErrEmptyTableName
		}

		s.booksTable = booksTable
		s.membersTable = membersTable
		s.loansTable = loansTable

		return nil
	}
}

// WithLogger sets the logger for the LendingStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: operation outcomes, concurrency conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures, including invariant violations.
func WithLogger(logger ledger.Logger) Option {
	return func(s *LendingStore) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger used for automatic
// trace correlation. When both loggers are configured, the contextual
// logger takes precedence.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(s *LendingStore) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for store instrumentation.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(s *LendingStore) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for store instrumentation.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(s *LendingStore) error {
		s.tracingCollector = collector
		return nil
	}
}
