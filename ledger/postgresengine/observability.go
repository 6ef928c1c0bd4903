package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgSQLExecuted        = "executed sql"
	logMsgOperation          = "lendingstore operation: "
	logMsgInvariantViolation = "inventory invariant violated: release would exceed total copies"
	logMsgConcurrencyRetry   = "concurrency conflict detected"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
	logAttrOperation  = "operation"
	logAttrBookID     = "book_id"
	logAttrLoanID     = "loan_id"
	logAttrCopies     = "copies"

	// Metric names exported by the store through the MetricsCollector port.
	metricOperationDuration    = "lendingstore_operation_duration"
	metricConcurrencyConflicts = "lendingstore_concurrency_conflicts"
	metricInvariantViolations  = "lendingstore_invariant_violations"

	labelOperation = "operation"
	labelStatus    = "status"

	statusSuccess = "success"
	statusError   = "error"

	spanNamePrefix = "lendingstore."
)

// startObservation opens a tracing span for a store operation and returns a
// finish func which records the duration metric, conflict counters, and span
// outcome. All collectors are optional.
func (s LendingStore) startObservation(ctx context.Context, operation string) (context.Context, func(err error)) {
	start := time.Now()

	obsCtx := ctx
	var span ledger.SpanContext

	if s.tracingCollector != nil {
		obsCtx, span = s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{labelOperation: operation})
	}

	finish := func(err error) {
		duration := time.Since(start)
		status := statusSuccess
		if err != nil {
			status = statusError
		}

		labels := map[string]string{labelOperation: operation, labelStatus: status}
		s.recordDuration(obsCtx, metricOperationDuration, duration, labels)

		if errors.Is(err, ledger.ErrConcurrencyConflict) {
			s.incrementCounter(obsCtx, metricConcurrencyConflicts, map[string]string{labelOperation: operation})
			s.logInfo(obsCtx, logMsgConcurrencyRetry, logAttrOperation, operation)
		}

		if span != nil && s.tracingCollector != nil {
			s.tracingCollector.FinishSpan(span, status, nil)
		}

		s.logDebug(obsCtx, logMsgOperation+operation,
			logAttrDurationMS, durationToMilliseconds(duration),
			labelStatus, status)
	}

	return obsCtx, finish
}

// reportInvariantViolation logs and counts a rejected release that would have
// pushed a book's available copies above its total. This indicates a
// bookkeeping bug and is never auto-corrected.
func (s LendingStore) reportInvariantViolation(ctx context.Context, bookID string, copies int) {
	s.logError(ctx, logMsgInvariantViolation, logAttrBookID, bookID, logAttrCopies, copies)
	s.incrementCounter(ctx, metricInvariantViolations, map[string]string{logAttrBookID: bookID})
}

/*** nil-safe logging helpers, preferring the contextual logger ***/

func (s LendingStore) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s LendingStore) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s LendingStore) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s LendingStore) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level.
func (s LendingStore) logQueryWithDuration(ctx context.Context, sqlQuery string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
}

/*** nil-safe metrics helpers, preferring context-aware collectors ***/

func (s LendingStore) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metric, duration, labels)
}

func (s LendingStore) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(ledger.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
