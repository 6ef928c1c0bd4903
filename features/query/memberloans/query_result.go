package memberloans

import (
	"time"

	"github.com/google/uuid"
)

// MemberLoan represents one loan, active or closed, in the result.
type MemberLoan struct {
	LoanID         uuid.UUID  `json:"loanId"`
	BookID         uuid.UUID  `json:"bookId"`
	Copies         int        `json:"copies"`
	BorrowedAt     time.Time  `json:"borrowedAt"`
	DueAt          time.Time  `json:"dueAt"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`
	ExtensionCount int        `json:"extensionCount"`
	Late           bool       `json:"late"`
}

// MemberLoansResult represents the query result: the member's loan history
// plus their current borrowing standing.
type MemberLoansResult struct {
	MemberID          uuid.UUID    `json:"memberId"`
	Name              string       `json:"name"`
	CardNumber        string       `json:"cardNumber"`
	MembershipValidTo time.Time    `json:"membershipValidTo"`
	Eligible          bool         `json:"eligible"`
	ActiveBookCount   int          `json:"activeBookCount"`
	Loans             []MemberLoan `json:"loans"`
	Count             int          `json:"count"`
}
