package adjustloancopies

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/shared/shell"
)

// LendingStore defines the interface needed by the CommandHandler for ledger operations.
type LendingStore interface {
	AdjustLoanCopies(ctx context.Context, loanID uuid.UUID, newCopies int, newDueAt *time.Time) (ledger.Loan, error)
}

// CommandHandler orchestrates the adjust workflow with retry on concurrency
// conflicts. The store reserves or releases the copy difference against the
// book's availability in the same atomic section that updates the loan.
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

// Handle executes the adjust workflow with exponential backoff retry on
// concurrency conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		retryCtx = ledger.WithStrongConsistency(retryCtx)

		_, execErr := h.store.AdjustLoanCopies(retryCtx, command.LoanID, command.NewCopies, command.NewDueAt)

		return execErr
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
