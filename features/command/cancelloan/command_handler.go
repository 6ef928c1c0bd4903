package cancelloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/shared/shell"
)

// LendingStore defines the interface needed by the CommandHandler for ledger operations.
type LendingStore interface {
	CancelLoan(ctx context.Context, loanID uuid.UUID) error
}

// CommandHandler orchestrates the cancel workflow with retry on concurrency
// conflicts. Cancelling removes the loan and releases its copies; returned
// loans stay in the ledger and cannot be cancelled.
type CommandHandler struct {
	store        LendingStore
	retryOptions []shell.RetryOption
	metrics      ledger.MetricsCollector
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithMetrics attaches a collector for retry metrics, labeled with this
// handler's command type.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(h *CommandHandler) {
		h.metrics = collector
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store LendingStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the cancel workflow with exponential backoff retry on
// concurrency conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		retryCtx = ledger.WithStrongConsistency(retryCtx)

		return h.store.CancelLoan(retryCtx, command.LoanID)
	}, h.commandRetryOptions(command)...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) commandRetryOptions(command Command) []shell.RetryOption {
	if h.metrics == nil {
		return h.retryOptions
	}

	return append([]shell.RetryOption{shell.WithMetricsForCommand(h.metrics, command)}, h.retryOptions...)
}
