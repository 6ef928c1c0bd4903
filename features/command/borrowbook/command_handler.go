package borrowbook

import (
	"context"

	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/shared/shell"
)

// LendingStore defines the interface needed by the CommandHandler for ledger operations.
type LendingStore interface {
	BorrowBook(ctx context.Context, loan ledger.Loan) error
}

// CommandHandler orchestrates the borrow workflow with pure business logic and retry.
// The store runs the eligibility check and the inventory reservation in one
// atomic section; the handler only builds the loan and retries conflicts.
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

// Handle executes the borrow workflow with exponential backoff retry on
// concurrency conflicts. All other errors fail fast.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command)
	}, h.commandRetryOptions(command)...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), err
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	loan, err := ledger.BuildLoan(command.LoanID, command.BookID, command.MemberID, command.Copies, command.BorrowedAt)
	if err != nil {
		return err
	}

	ctx = ledger.WithStrongConsistency(ctx)

	return h.store.BorrowBook(ctx, loan)
}

func (h CommandHandler) commandRetryOptions(command Command) []shell.RetryOption {
	if h.metrics == nil {
		return h.retryOptions
	}

	return append([]shell.RetryOption{shell.WithMetricsForCommand(h.metrics, command)}, h.retryOptions...)
}
