package lateloans

import (
	"time"

	"github.com/google/uuid"
)

// LateLoan represents one overdue loan in the result.
type LateLoan struct {
	LoanID    uuid.UUID     `json:"loanId"`
	BookID    uuid.UUID     `json:"bookId"`
	MemberID  uuid.UUID     `json:"memberId"`
	Copies    int           `json:"copies"`
	DueAt     time.Time     `json:"dueAt"`
	OverdueBy time.Duration `json:"overdueBy"`
}

// LateLoansResult represents the query result containing all overdue loans,
// most overdue first.
type LateLoansResult struct {
	AsOf  time.Time  `json:"asOf"`
	Loans []LateLoan `json:"loans"`
	Count int        `json:"count"`
}
