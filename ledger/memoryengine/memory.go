package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

// LendingStore keeps the catalog, the member registry, and the loan ledger in
// maps guarded by one mutex. Every operation that touches a book's available
// counter runs its check and its mutation under the same lock.
type LendingStore struct {
	mu      sync.RWMutex
	books   map[uuid.UUID]ledger.Book
	members map[uuid.UUID]ledger.Member
	loans   map[uuid.UUID]ledger.Loan
}

// NewLendingStore creates an empty in-memory store.
func NewLendingStore() *LendingStore {
	return &LendingStore{
		books:   make(map[uuid.UUID]ledger.Book),
		members: make(map[uuid.UUID]ledger.Member),
		loans:   make(map[uuid.UUID]ledger.Loan),
	}
}

// AddBook inserts a new catalog record.
func (s *LendingStore) AddBook(_ context.Context, book ledger.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books[book.ID] = book

	return nil
}

// GetBook loads a catalog record by id.
func (s *LendingStore) GetBook(_ context.Context, bookID uuid.UUID) (ledger.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, found := s.books[bookID]
	if !found {
		return ledger.Book{}, ledger.ErrBookNotFound
	}

	return book, nil
}

// SetBookTotalCopies applies a total-copies correction, moving the same delta
// onto the available counter so that copies on loan stay untouched.
func (s *LendingStore) SetBookTotalCopies(_ context.Context, bookID uuid.UUID, newTotal int) (ledger.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, found := s.books[bookID]
	if !found {
		return ledger.Book{}, ledger.ErrBookNotFound
	}

	corrected, err := book.WithTotalCopies(newTotal)
	if err != nil {
		return ledger.Book{}, err
	}

	s.books[bookID] = corrected

	return corrected, nil
}

// RegisterMember creates a member record, assigning the next card number for
// the joining year.
func (s *LendingStore) RegisterMember(
	_ context.Context,
	memberID uuid.UUID,
	name string,
	email string,
	joinedAt time.Time,
) (ledger.Member, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	joined := ledger.ToTimestamp(joinedAt)

	sequence := 1
	for _, existing := range s.members {
		if existing.FirstJoinedAt.Year() == joined.Year() {
			sequence++
		}
	}

	member := ledger.BuildMember(memberID, name, email, sequence, joined)
	s.members[memberID] = member

	return member, nil
}

// GetMember loads a member record by id.
func (s *LendingStore) GetMember(_ context.Context, memberID uuid.UUID) (ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, found := s.members[memberID]
	if !found {
		return ledger.Member{}, ledger.ErrMemberNotFound
	}

	return member, nil
}

// RenewMembership extends a member's validity by one year from the renewal
// time.
func (s *LendingStore) RenewMembership(_ context.Context, memberID uuid.UUID, now time.Time) (ledger.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, found := s.members[memberID]
	if !found {
		return ledger.Member{}, ledger.ErrMemberNotFound
	}

	renewed := member.Renew(now)
	s.members[memberID] = renewed

	return renewed, nil
}

// CountActiveBookLoans reports how many distinct books a member currently has
// on loan.
func (s *LendingStore) CountActiveBookLoans(_ context.Context, memberID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countActiveBookLoansLocked(memberID), nil
}

func (s *LendingStore) countActiveBookLoansLocked(memberID uuid.UUID) int {
	activeBooks := make(map[uuid.UUID]struct{})

	for _, loan := range s.loans {
		if loan.MemberID == memberID && loan.IsActive() {
			activeBooks[loan.BookID] = struct{}{}
		}
	}

	return len(activeBooks)
}

// BorrowBook opens a loan: it checks the member's eligibility, reserves the
// requested copies, and records the loan, all under one lock.
func (s *LendingStore) BorrowBook(_ context.Context, loan ledger.Loan) error {
	if loan.Copies < 1 {
		return ledger.ErrInvalidCopyCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	member, found := s.members[loan.MemberID]
	if !found {
		return ledger.ErrMemberNotFound
	}

	if err := ledger.CheckEligibility(member, s.countActiveBookLoansLocked(loan.MemberID), loan.BorrowedAt); err != nil {
		return err
	}

	if err := s.reserveCopiesLocked(loan.BookID, loan.Copies); err != nil {
		return err
	}

	s.loans[loan.ID] = loan

	return nil
}

// ExtendLoan pushes the due date out by one loan period, up to the extension
// limit.
func (s *LendingStore) ExtendLoan(_ context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, found := s.loans[loanID]
	if !found {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	extended, err := loan.Extend(now)
	if err != nil {
		return ledger.Loan{}, err
	}

	s.loans[loanID] = extended

	return extended, nil
}

// ReturnLoan closes a loan and releases its copies back onto the book.
// Returning an already returned loan fails and changes nothing.
func (s *LendingStore) ReturnLoan(_ context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, found := s.loans[loanID]
	if !found {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	closed, err := loan.Close(now)
	if err != nil {
		return ledger.Loan{}, err
	}

	if err = s.releaseCopiesLocked(loan.BookID, loan.Copies); err != nil {
		return ledger.Loan{}, err
	}

	s.loans[loanID] = closed

	return closed, nil
}

// AdjustLoanCopies changes how many copies an active loan holds, reserving or
// releasing the difference, and optionally moves the due date.
func (s *LendingStore) AdjustLoanCopies(
	_ context.Context,
	loanID uuid.UUID,
	newCopies int,
	newDueAt *time.Time,
) (ledger.Loan, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, found := s.loans[loanID]
	if !found {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	adjusted, err := loan.WithCopies(newCopies)
	if err != nil {
		return ledger.Loan{}, err
	}

	if newDueAt != nil {
		adjusted.DueAt = ledger.ToTimestamp(*newDueAt)
	}

	delta := newCopies - loan.Copies

	switch {
	case delta > 0:
		err = s.reserveCopiesLocked(loan.BookID, delta)
	case delta < 0:
		err = s.releaseCopiesLocked(loan.BookID, -delta)
	}

	if err != nil {
		return ledger.Loan{}, err
	}

	s.loans[loanID] = adjusted

	return adjusted, nil
}

// CancelLoan removes an active loan as if it never happened, releasing its
// copies. Returned loans stay in the ledger and cannot be cancelled.
func (s *LendingStore) CancelLoan(_ context.Context, loanID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, found := s.loans[loanID]
	if !found {
		return ledger.ErrLoanNotFound
	}

	if !loan.IsActive() {
		return ledger.ErrAlreadyReturned
	}

	if err := s.releaseCopiesLocked(loan.BookID, loan.Copies); err != nil {
		return err
	}

	delete(s.loans, loanID)

	return nil
}

// GetLoan loads a loan by id.
func (s *LendingStore) GetLoan(_ context.Context, loanID uuid.UUID) (ledger.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, found := s.loans[loanID]
	if !found {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	return loan, nil
}

// LoansByMember returns all loans of a member, active and closed, oldest
// first.
func (s *LendingStore) LoansByMember(_ context.Context, memberID uuid.UUID) (ledger.Loans, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make(ledger.Loans, 0)

	for _, loan := range s.loans {
		if loan.MemberID == memberID {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		if loans[i].BorrowedAt.Equal(loans[j].BorrowedAt) {
			return loans[i].ID.String() < loans[j].ID.String()
		}

		return loans[i].BorrowedAt.Before(loans[j].BorrowedAt)
	})

	return loans, nil
}

// ActiveLoans returns every open loan in the ledger, ordered by due date.
func (s *LendingStore) ActiveLoans(_ context.Context) (ledger.Loans, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make(ledger.Loans, 0)

	for _, loan := range s.loans {
		if loan.IsActive() {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		if loans[i].DueAt.Equal(loans[j].DueAt) {
			return loans[i].ID.String() < loans[j].ID.String()
		}

		return loans[i].DueAt.Before(loans[j].DueAt)
	})

	return loans, nil
}

// reserveCopiesLocked takes copies off a book's available counter, refusing
// when not enough copies are available. Callers must hold the write lock.
func (s *LendingStore) reserveCopiesLocked(bookID uuid.UUID, copies int) error {
	book, found := s.books[bookID]
	if !found {
		return ledger.ErrBookNotFound
	}

	if book.AvailableCopies < copies {
		return ledger.ErrInsufficientInventory
	}

	book.AvailableCopies -= copies
	s.books[bookID] = book

	return nil
}

// releaseCopiesLocked credits copies back onto a book's available counter.
// Pushing the counter past the total means the ledger and the book have
// diverged, which is rejected rather than clamped. Callers must hold the
// write lock.
func (s *LendingStore) releaseCopiesLocked(bookID uuid.UUID, copies int) error {
	book, found := s.books[bookID]
	if !found {
		return ledger.ErrInvariantViolation
	}

	if book.AvailableCopies+copies > book.TotalCopies {
		return ledger.ErrInvariantViolation
	}

	book.AvailableCopies += copies
	s.books[bookID] = book

	return nil
}
