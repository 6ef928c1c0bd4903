package memberloans

import (
	"context"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

// LendingStore defines the interface needed by the QueryHandler for ledger operations.
type LendingStore interface {
	GetMember(ctx context.Context, memberID uuid.UUID) (ledger.Member, error)
	LoansByMember(ctx context.Context, memberID uuid.UUID) (ledger.Loans, error)
}

// QueryHandler orchestrates the query processing workflow. It loads the
// member and their loans and delegates the projection to the pure core
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

// Handle executes the query against an eventually consistent read.
func (h QueryHandler) Handle(ctx context.Context, query Query) (MemberLoansResult, error) {
	ctx = ledger.WithEventualConsistency(ctx)

	member, err := h.store.GetMember(ctx, query.MemberID)
	if err != nil {
		return MemberLoansResult{}, err
	}

	loans, err := h.store.LoansByMember(ctx, query.MemberID)
	if err != nil {
		return MemberLoansResult{}, err
	}

	return ProjectMemberLoans(member, loans, query), nil
}
