package memberloans

import (
	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

// ProjectMemberLoans implements the query logic for a member's borrowing
// standing. This is a pure function with no side effects - it takes the
// member, their loans, and a query and returns the projected state including
// lateness per loan and whether another borrow would currently be allowed.
func ProjectMemberLoans(member ledger.Member, loans ledger.Loans, query Query) MemberLoansResult {
	memberLoans := make([]MemberLoan, 0, len(loans))
	activeBooks := make(map[uuid.UUID]struct{})

	for _, loan := range loans {
		if loan.IsActive() {
			activeBooks[loan.BookID] = struct{}{}
		}

		memberLoans = append(memberLoans, MemberLoan{
			LoanID:         loan.ID,
			BookID:         loan.BookID,
			Copies:         loan.Copies,
			BorrowedAt:     loan.BorrowedAt,
			DueAt:          loan.DueAt,
			ReturnedAt:     loan.ReturnedAt,
			ExtensionCount: loan.ExtensionCount,
			Late:           loan.IsLate(query.AsOf),
		})
	}

	return MemberLoansResult{
		MemberID:          member.ID,
		Name:              member.Name,
		CardNumber:        member.CardNumber,
		MembershipValidTo: member.MembershipValidTo,
		Eligible:          ledger.IsEligible(member, len(activeBooks), query.AsOf),
		ActiveBookCount:   len(activeBooks),
		Loans:             memberLoans,
		Count:             len(memberLoans),
	}
}
