package ledger

import (
	"time"

	"github.com/google/uuid"
)

const (
	// LoanPeriod is the lending window granted at borrow time and again at
	// each extension. Extensions are measured from the moment of extension,
	// they do not stack onto the previous due date.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxExtensions is the number of times a single loan may be extended.
	MaxExtensions = 2
)

// Loan is one borrow event: some number of copies of one book held by one
// member, from borrow until return.
//
// A loan is active while ReturnedAt is nil and closed afterwards; closing is
// a one-way transition. This row shape round-trips exactly through every
// storage engine.
type Loan struct {
	ID             uuid.UUID  `json:"id"`
	BookID         uuid.UUID  `json:"bookId"`
	MemberID       uuid.UUID  `json:"memberId"`
	Copies         int        `json:"copies"`
	BorrowedAt     time.Time  `json:"borrowedAt"`
	DueAt          time.Time  `json:"dueAt"`
	ReturnedAt     *time.Time `json:"returnedAt"`
	ExtensionCount int        `json:"extensionCount"`
}

// Loans is a collection of loan records.
type Loans []Loan

// BuildLoan creates a new active loan with the full lending window and no
// extensions used.
func BuildLoan(id uuid.UUID, bookID uuid.UUID, memberID uuid.UUID, copies int, borrowedAt time.Time) (Loan, error) {
	if copies < 1 {
		return Loan{}, ErrInvalidCopyCount
	}

	ts := ToTimestamp(borrowedAt)

	loan := Loan{
		ID:             id,
		BookID:         bookID,
		MemberID:       memberID,
		Copies:         copies,
		BorrowedAt:     ts,
		DueAt:          ts.Add(LoanPeriod),
		ReturnedAt:     nil,
		ExtensionCount: 0,
	}

	return loan, nil
}

// IsActive reports whether the loan has not been returned yet.
func (l Loan) IsActive() bool {
	return l.ReturnedAt == nil
}

// Extend grants one more lending window measured from now and returns the
// updated loan. It fails with ErrAlreadyReturned on a closed loan and with
// ErrMaxExtensionsReached once the extension limit is used up; the receiver
// is never mutated, so a failed extension cannot move the due date.
func (l Loan) Extend(now time.Time) (Loan, error) {
	if !l.IsActive() {
		return Loan{}, ErrAlreadyReturned
	}

	if l.ExtensionCount >= MaxExtensions {
		return Loan{}, ErrMaxExtensionsReached
	}

	l.ExtensionCount++
	l.DueAt = ToTimestamp(now).Add(LoanPeriod)

	return l, nil
}

// Close marks the loan as returned now and returns the updated loan. Closing
// a closed loan fails with ErrAlreadyReturned so that a duplicate return can
// never credit inventory twice.
func (l Loan) Close(now time.Time) (Loan, error) {
	if !l.IsActive() {
		return Loan{}, ErrAlreadyReturned
	}

	ts := ToTimestamp(now)
	l.ReturnedAt = &ts

	return l, nil
}

// WithCopies applies an administrative copy-count correction and returns the
// updated loan. The caller is responsible for routing the copy delta through
// the inventory guard; this method only validates and records the new count.
func (l Loan) WithCopies(newCopies int) (Loan, error) {
	if newCopies < 1 {
		return Loan{}, ErrInvalidCopyCount
	}

	if !l.IsActive() {
		return Loan{}, ErrAlreadyReturned
	}

	l.Copies = newCopies

	return l, nil
}

// IsLate reports whether the loan missed its due date: an active loan is late
// once asOf passes DueAt, a closed loan is late when it was returned after
// DueAt. Lateness is a read-time projection and is never persisted.
func (l Loan) IsLate(asOf time.Time) bool {
	if l.ReturnedAt != nil {
		return l.ReturnedAt.After(l.DueAt)
	}

	return asOf.After(l.DueAt)
}
