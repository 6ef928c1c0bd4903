package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	operationBorrowBook       = "borrow_book"
	operationExtendLoan       = "extend_loan"
	operationReturnLoan       = "return_loan"
	operationAdjustLoanCopies = "adjust_loan_copies"
	operationCancelLoan       = "cancel_loan"
	operationGetLoan          = "get_loan"
	operationLoansByMember    = "loans_by_member"
	operationActiveLoans      = "active_loans"
)

// BorrowBook opens a loan. Inside one transaction it locks the member row,
// checks eligibility against the member's active distinct books, reserves the
// requested copies through a conditional update on the book row, and inserts
// the loan. The member row is always locked before the book row so that
// concurrent borrows cannot deadlock.
func (s LendingStore) BorrowBook(ctx context.Context, loan ledger.Loan) error {
	ctx, finish := s.startObservation(ctx, operationBorrowBook)
	err := s.borrowBook(ctx, loan)
	finish(err)

	return err
}

func (s LendingStore) borrowBook(ctx context.Context, loan ledger.Loan) error {
	if loan.Copies < 1 {
		return ledger.ErrInvalidCopyCount
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	member, err := s.getMember(ctx, tx, loan.MemberID, true)
	if err != nil {
		return err
	}

	activeBooks, err := s.countActiveBookLoans(ctx, tx, loan.MemberID)
	if err != nil {
		return err
	}

	if err = ledger.CheckEligibility(member, activeBooks, loan.BorrowedAt); err != nil {
		return err
	}

	if err = s.reserveCopies(ctx, tx, loan.BookID, loan.Copies); err != nil {
		return err
	}

	if err = s.insertLoan(ctx, tx, loan); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return mapConcurrencyError(err)
	}

	return nil
}

// ExtendLoan pushes the due date out by one loan period, up to the extension
// limit. The new due date is measured from the moment of extension, so
// consecutive extensions do not stack onto the original one.
func (s LendingStore) ExtendLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	ctx, finish := s.startObservation(ctx, operationExtendLoan)
	loan, err := s.extendLoan(ctx, loanID, now)
	finish(err)

	return loan, err
}

func (s LendingStore) extendLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	loan, err := s.getLoan(ctx, tx, loanID, true)
	if err != nil {
		return ledger.Loan{}, err
	}

	extended, err := loan.Extend(now)
	if err != nil {
		return ledger.Loan{}, err
	}

	if err = s.updateLoanRow(ctx, tx, extended); err != nil {
		return ledger.Loan{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}

	return extended, nil
}

// ReturnLoan closes a loan and releases its copies back onto the book row.
// Returning an already returned loan fails with ledger.ErrAlreadyReturned and
// changes nothing, so the copies are never credited twice.
func (s LendingStore) ReturnLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	ctx, finish := s.startObservation(ctx, operationReturnLoan)
	loan, err := s.returnLoan(ctx, loanID, now)
	finish(err)

	return loan, err
}

func (s LendingStore) returnLoan(ctx context.Context, loanID uuid.UUID, now time.Time) (ledger.Loan, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	loan, err := s.getLoan(ctx, tx, loanID, true)
	if err != nil {
		return ledger.Loan{}, err
	}

	closed, err := loan.Close(now)
	if err != nil {
		return ledger.Loan{}, err
	}

	if err = s.updateLoanRow(ctx, tx, closed); err != nil {
		return ledger.Loan{}, err
	}

	if err = s.releaseCopies(ctx, tx, loan.BookID, loan.Copies); err != nil {
		return ledger.Loan{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}

	return closed, nil
}

// AdjustLoanCopies changes how many copies an active loan holds, reserving or
// releasing the difference on the book row, and optionally moves the due
// date. Setting the current copy count again is an idempotent no-op on the
// inventory.
func (s LendingStore) AdjustLoanCopies(
	ctx context.Context,
	loanID uuid.UUID,
	newCopies int,
	newDueAt *time.Time,
) (ledger.Loan, error) {

	ctx, finish := s.startObservation(ctx, operationAdjustLoanCopies)
	loan, err := s.adjustLoanCopies(ctx, loanID, newCopies, newDueAt)
	finish(err)

	return loan, err
}

func (s LendingStore) adjustLoanCopies(
	ctx context.Context,
	loanID uuid.UUID,
	newCopies int,
	newDueAt *time.Time,
) (ledger.Loan, error) {

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	loan, err := s.getLoan(ctx, tx, loanID, true)
	if err != nil {
		return ledger.Loan{}, err
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
		err = s.reserveCopies(ctx, tx, loan.BookID, delta)
	case delta < 0:
		err = s.releaseCopies(ctx, tx, loan.BookID, -delta)
	}

	if err != nil {
		return ledger.Loan{}, err
	}

	if err = s.updateLoanRow(ctx, tx, adjusted); err != nil {
		return ledger.Loan{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return ledger.Loan{}, mapConcurrencyError(err)
	}

	return adjusted, nil
}

// CancelLoan deletes an active loan as if it never happened, releasing its
// copies. Returned loans stay in the ledger and cannot be cancelled.
func (s LendingStore) CancelLoan(ctx context.Context, loanID uuid.UUID) error {
	ctx, finish := s.startObservation(ctx, operationCancelLoan)
	err := s.cancelLoan(ctx, loanID)
	finish(err)

	return err
}

func (s LendingStore) cancelLoan(ctx context.Context, loanID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return mapConcurrencyError(err)
	}
	defer s.rollbackTx(ctx, tx)

	loan, err := s.getLoan(ctx, tx, loanID, true)
	if err != nil {
		return err
	}

	if !loan.IsActive() {
		return ledger.ErrAlreadyReturned
	}

	if err = s.releaseCopies(ctx, tx, loan.BookID, loan.Copies); err != nil {
		return err
	}

	deleteStmt := s.builder().
		Delete(s.loansTable).
		Where(goqu.C(colLoanID).Eq(loanID.String()))

	sqlQuery, err := s.toSQL(ctx, deleteStmt)
	if err != nil {
		return err
	}

	if _, err = s.executeStatement(ctx, tx, sqlQuery); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return mapConcurrencyError(err)
	}

	return nil
}

// GetLoan loads a loan by id, failing with ledger.ErrLoanNotFound when it
// does not exist.
func (s LendingStore) GetLoan(ctx context.Context, loanID uuid.UUID) (ledger.Loan, error) {
	ctx, finish := s.startObservation(ctx, operationGetLoan)
	loan, err := s.getLoan(ctx, s.db, loanID, false)
	finish(err)

	return loan, err
}

// LoansByMember returns all loans of a member, active and closed, oldest
// first.
func (s LendingStore) LoansByMember(ctx context.Context, memberID uuid.UUID) (ledger.Loans, error) {
	ctx, finish := s.startObservation(ctx, operationLoansByMember)

	selectStmt := s.builder().
		From(s.loansTable).
		Select(loanColumns()...).
		Where(goqu.C(colMemberID).Eq(memberID.String())).
		Order(goqu.C(colBorrowedAt).Asc())

	loans, err := s.queryLoans(ctx, selectStmt)
	finish(err)

	return loans, err
}

// ActiveLoans returns every open loan in the ledger, ordered by due date.
func (s LendingStore) ActiveLoans(ctx context.Context) (ledger.Loans, error) {
	ctx, finish := s.startObservation(ctx, operationActiveLoans)

	selectStmt := s.builder().
		From(s.loansTable).
		Select(loanColumns()...).
		Where(goqu.C(colReturnedAt).IsNull()).
		Order(goqu.C(colDueAt).Asc())

	loans, err := s.queryLoans(ctx, selectStmt)
	finish(err)

	return loans, err
}

/*** inventory guard ***/

// reserveCopies takes copies off a book's available counter with a single
// conditional update, so the check and the decrement cannot be separated by
// a concurrent writer. Zero affected rows means either the book is missing
// or not enough copies are available; a follow-up read inside the same
// transaction tells the two apart.
func (s LendingStore) reserveCopies(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID, copies int) error {
	updateStmt := s.builder().
		Update(s.booksTable).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies+" - ?", copies),
		}).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colAvailableCopies).Gte(copies),
		)

	sqlQuery, err := s.toSQL(ctx, updateStmt)
	if err != nil {
		return err
	}

	rowsAffected, err := s.executeStatement(ctx, tx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, getErr := s.getBook(ctx, tx, bookID); getErr != nil {
			return getErr
		}

		return ledger.ErrInsufficientInventory
	}

	return nil
}

// releaseCopies credits copies back onto a book's available counter. The
// conditional update refuses to push the counter past the total; hitting
// that condition means the ledger and the book row have diverged, which is
// reported and rejected rather than clamped.
func (s LendingStore) releaseCopies(ctx context.Context, tx adapters.DBTx, bookID uuid.UUID, copies int) error {
	updateStmt := s.builder().
		Update(s.booksTable).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies+" + ?", copies),
		}).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.L(colAvailableCopies+" + ?", copies).Lte(goqu.C(colTotalCopies)),
		)

	sqlQuery, err := s.toSQL(ctx, updateStmt)
	if err != nil {
		return err
	}

	rowsAffected, err := s.executeStatement(ctx, tx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		s.reportInvariantViolation(ctx, bookID.String(), copies)
		return ledger.ErrInvariantViolation
	}

	return nil
}

/*** loan row helpers ***/

func (s LendingStore) getLoan(
	ctx context.Context,
	runner queryRunner,
	loanID uuid.UUID,
	forUpdate bool,
) (ledger.Loan, error) {

	selectStmt := s.builder().
		From(s.loansTable).
		Select(loanColumns()...).
		Where(goqu.C(colLoanID).Eq(loanID.String()))

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, err := s.toSQL(ctx, selectStmt)
	if err != nil {
		return ledger.Loan{}, err
	}

	rows, err := s.executeQuery(ctx, runner, sqlQuery)
	if err != nil {
		return ledger.Loan{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ledger.Loan{}, ledger.ErrLoanNotFound
	}

	return scanLoan(rows)
}

func (s LendingStore) insertLoan(ctx context.Context, tx adapters.DBTx, loan ledger.Loan) error {
	insertStmt := s.builder().
		Insert(s.loansTable).
		Cols(loanColumns()...).
		Vals(goqu.Vals{
			loan.ID.String(),
			loan.BookID.String(),
			loan.MemberID.String(),
			loan.Copies,
			loan.BorrowedAt,
			loan.DueAt,
			nullableTime(loan.ReturnedAt),
			loan.ExtensionCount,
		})

	sqlQuery, err := s.toSQL(ctx, insertStmt)
	if err != nil {
		return err
	}

	_, err = s.executeStatement(ctx, tx, sqlQuery)

	return err
}

func (s LendingStore) updateLoanRow(ctx context.Context, tx adapters.DBTx, loan ledger.Loan) error {
	updateStmt := s.builder().
		Update(s.loansTable).
		Set(goqu.Record{
			colCopies:         loan.Copies,
			colDueAt:          loan.DueAt,
			colReturnedAt:     nullableTime(loan.ReturnedAt),
			colExtensionCount: loan.ExtensionCount,
		}).
		Where(goqu.C(colLoanID).Eq(loan.ID.String()))

	sqlQuery, err := s.toSQL(ctx, updateStmt)
	if err != nil {
		return err
	}

	_, err = s.executeStatement(ctx, tx, sqlQuery)

	return err
}

func (s LendingStore) queryLoans(
	ctx context.Context,
	selectStmt *goqu.SelectDataset,
) (ledger.Loans, error) {

	sqlQuery, err := s.toSQL(ctx, selectStmt)
	if err != nil {
		return nil, err
	}

	rows, err := s.executeQuery(ctx, s.db, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(ctx, rows)

	loans := make(ledger.Loans, 0)

	for rows.Next() {
		loan, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}
