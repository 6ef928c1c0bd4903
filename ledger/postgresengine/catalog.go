package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	operationAddBook            = "add_book"
	operationGetBook            = "get_book"
	operationSetBookTotalCopies = "set_book_total_copies"
)

// AddBook inserts a new catalog record. The record should be built with
// ledger.BuildBook so that all copies start available.
func (s LendingStore) AddBook(ctx context.Context, book ledger.Book) error {
	ctx, finish := s.startObservation(ctx, operationAddBook)
	err := s.addBook(ctx, book)
	finish(err)

	return err
}

func (s LendingStore) addBook(ctx context.Context, book ledger.Book) error {
	authorsJSON, err := marshalStrings(book.Authors)
	if err != nil {
		return err
	}

	tagsJSON, err := marshalStrings(book.Tags)
	if err != nil {
		return err
	}

	insertStmt := s.builder().
		Insert(s.booksTable).
		Cols(bookColumns()...).
		Vals(goqu.Vals{
			book.ID.String(),
			book.Title,
			authorsJSON,
			tagsJSON,
			book.TotalCopies,
			book.AvailableCopies,
			book.AddedAt,
		})

	sqlQuery, err := s.toSQL(ctx, insertStmt)
	if err != nil {
		return err
	}

	_, err = s.executeStatement(ctx, s.db, sqlQuery)

	return err
}

// GetBook loads a catalog record by id, failing with ledger.ErrBookNotFound
// when it does not exist.
func (s LendingStore) GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error) {
	ctx, finish := s.startObservation(ctx, operationGetBook)
	book, err := s.getBook(ctx, s.db, bookID)
	finish(err)

	return book, err
}

func (s LendingStore) getBook(ctx context.Context, runner queryRunner, bookID uuid.UUID) (ledger.Book, error) {
	selectStmt := s.builder().
		From(s.booksTable).
		Select(bookColumns()...).
		Where(goqu.C(colBookID).Eq(bookID.String()))

	sqlQuery, err := s.toSQL(ctx, selectStmt)
	if err != nil {
		return ledger.Book{}, err
	}

	rows, err := s.executeQuery(ctx, runner, sqlQuery)
	if err != nil {
		return ledger.Book{}, err
	}
	defer s.closeRows(ctx, rows)

	if !rows.Next() {
		return ledger.Book{}, ledger.ErrBookNotFound
	}

	return scanBook(rows)
}

// SetBookTotalCopies applies a total-copies correction, moving the same delta
// onto the available counter in a single conditional update so that copies on
// loan stay untouched. It fails with ledger.ErrInsufficientInventory when
// more copies are on loan than the new total allows.
func (s LendingStore) SetBookTotalCopies(ctx context.Context, bookID uuid.UUID, newTotal int) (ledger.Book, error) {
	ctx, finish := s.startObservation(ctx, operationSetBookTotalCopies)
	book, err := s.setBookTotalCopies(ctx, bookID, newTotal)
	finish(err)

	return book, err
}

func (s LendingStore) setBookTotalCopies(ctx context.Context, bookID uuid.UUID, newTotal int) (ledger.Book, error) {
	if newTotal < 0 {
		return ledger.Book{}, ledger.ErrNegativeTotalCopies
	}

	// available_copies moves by (newTotal - total_copies); the WHERE clause
	// rejects a correction that would drive it negative.
	newAvailable := goqu.L(colAvailableCopies+" + ? - "+colTotalCopies, newTotal)

	updateStmt := s.builder().
		Update(s.booksTable).
		Set(goqu.Record{
			colTotalCopies:     newTotal,
			colAvailableCopies: newAvailable,
		}).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			newAvailable.Gte(0),
		).
		Returning(bookColumns()...)

	sqlQuery, err := s.toSQL(ctx, updateStmt)
	if err != nil {
		return ledger.Book{}, err
	}

	rows, err := s.executeQuery(ctx, s.db, sqlQuery)
	if err != nil {
		return ledger.Book{}, err
	}
	defer s.closeRows(ctx, rows)

	if rows.Next() {
		return scanBook(rows)
	}

	// No row updated: either the book is absent or the correction would have
	// left more copies on loan than the new total.
	if _, getErr := s.getBook(ctx, s.db, bookID); getErr != nil {
		return ledger.Book{}, getErr
	}

	return ledger.Book{}, ledger.ErrInsufficientInventory
}
