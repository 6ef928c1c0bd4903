// Package ledger provides the core types and rules for the loan lifecycle
// and inventory consistency engine of a library lending backend.
//
// This package defines the domain records (Book, Member, Loan), the pure
// business rules that govern them (borrowing eligibility, the loan state
// machine, lateness projection), and the common error definitions shared
// across different store engines.
//
// The central invariant protected by every engine:
//
//	0 <= availableCopies <= totalCopies
//	availableCopies == totalCopies - sum(copies of active loans for the book)
//
// Key types:
//   - Book: a catalog record with its copy counters
//   - Member: a registry record with its membership validity window
//   - Loan: one borrow event, from borrow until return
//
// Common usage pattern:
//
//	loan, err := ledger.BuildLoan(uuid.New(), bookID, memberID, copies, time.Now())
//	if err != nil {
//		// handle error
//	}
//	err = store.BorrowBook(ctx, loan)
//
// All state transitions on Loan are value-returning and leave the receiver
// unchanged, so engines can apply them inside their own atomic sections.
package ledger
