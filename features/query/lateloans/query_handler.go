package lateloans

import (
	"context"

	"github.com/lendkit/lending-ledger-go/ledger"
)

// LendingStore defines the interface needed by the QueryHandler for ledger operations.
type LendingStore interface {
	ActiveLoans(ctx context.Context) (ledger.Loans, error)
}

// QueryHandler orchestrates the query processing workflow. It loads the
// active loans and delegates the overdue projection to the pure core
// function.
type QueryHandler struct {
	store LendingStore
}

// NewQueryHandler creates a new QueryHandler with the provided store dependency.
func NewQueryHandler(store LendingStore) QueryHandler {
	return QueryHandler{
		store: store,
	}
}

// Handle executes the query. Reading a slightly stale replica is acceptable
// for an overdue report, so the read is marked eventually consistent.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LateLoansResult, error) {
	ctx = ledger.WithEventualConsistency(ctx)

	activeLoans, err := h.store.ActiveLoans(ctx)
	if err != nil {
		return LateLoansResult{}, err
	}

	return ProjectLateLoans(activeLoans, query), nil
}
