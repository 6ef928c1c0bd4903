package lateloans

import (
	"slices"

	"github.com/lendkit/lending-ledger-go/ledger"
)

// ProjectLateLoans implements the query logic to determine overdue loans.
// This is a pure function with no side effects - it takes the active loans
// and a query and returns the loans whose due date has passed at the query's
// reference time, most overdue first.
func ProjectLateLoans(activeLoans ledger.Loans, query Query) LateLoansResult {
	lateLoans := make([]LateLoan, 0)

	for _, loan := range activeLoans {
		if !loan.IsLate(query.AsOf) {
			continue
		}

		lateLoans = append(lateLoans, LateLoan{
			LoanID:    loan.ID,
			BookID:    loan.BookID,
			MemberID:  loan.MemberID,
			Copies:    loan.Copies,
			DueAt:     loan.DueAt,
			OverdueBy: query.AsOf.Sub(loan.DueAt),
		})
	}

	slices.SortFunc(lateLoans, func(a, b LateLoan) int {
		return a.DueAt.Compare(b.DueAt)
	})

	return LateLoansResult{
		AsOf:  query.AsOf,
		Loans: lateLoans,
		Count: len(lateLoans),
	}
}
