package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/lendkit/lending-ledger-go/ledger"
	"github.com/lendkit/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName   = "books"
	defaultMembersTableName = "members"
	defaultLoansTableName   = "loans"

	dialectPostgres = "postgres"

	colBookID            = "book_id"
	colTitle             = "title"
	colAuthors           = "authors"
	colTags              = "tags"
	colTotalCopies       = "total_copies"
	colAvailableCopies   = "available_copies"
	colAddedAt           = "added_at"
	colMemberID          = "member_id"
	colName              = "name"
	colEmail             = "email"
	colCardNumber        = "card_number"
	colFirstJoinedAt     = "first_joined_at"
	colRenewedAt         = "renewed_at"
	colMembershipValidTo = "membership_valid_to"
	colLoanID            = "loan_id"
	colCopies            = "copies"
	colBorrowedAt        = "borrowed_at"
	colDueAt             = "due_at"
	colExtensionCount    = "extension_count"
	colReturnedAt        = "returned_at"

	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeUniqueViolation      = "23505"
)

type sqlQueryString = string

// LendingStore is a PostgreSQL-backed store for the catalog, the member
// registry, and the loan ledger. It leverages a database adapter and supports
// customizable logging, metrics, tracing, and table configuration.
type LendingStore struct {
	db               adapters.DBAdapter
	booksTable       string
	membersTable     string
	loansTable       string
	logger           ledger.Logger
	contextualLogger ledger.ContextualLogger
	metricsCollector ledger.MetricsCollector
	tracingCollector ledger.TracingCollector
}

// NewLendingStoreFromPGXPool creates a new LendingStore using a pgx pool with optional configuration.
func NewLendingStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, ledger.ErrNilDatabaseConnection
	}

	return applyOptions(newLendingStore(adapters.NewPGXAdapter(db)), options)
}

// NewLendingStoreFromPGXPoolAndReplica creates a new LendingStore using a pgx
// pool for writes and a replica pool for eventually consistent reads.
func NewLendingStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (LendingStore, error) {
	if db == nil || replica == nil {
		return LendingStore{}, ledger.ErrNilDatabaseConnection
	}

	return applyOptions(newLendingStore(adapters.NewPGXAdapterWithReplica(db, replica)), options)
}

// NewLendingStoreFromSQLDB creates a new LendingStore using a sql.DB with optional configuration.
func NewLendingStoreFromSQLDB(db *sql.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, ledger.ErrNilDatabaseConnection
	}

	return applyOptions(newLendingStore(adapters.NewSQLAdapter(db)), options)
}

// NewLendingStoreFromSQLX creates a new LendingStore using a sqlx.DB with optional configuration.
func NewLendingStoreFromSQLX(db *sqlx.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, ledger.ErrNilDatabaseConnection
	}

	return applyOptions(newLendingStore(adapters.NewSQLXAdapter(db)), options)
}

func newLendingStore(db adapters.DBAdapter) LendingStore {
	return LendingStore{
		db:           db,
		booksTable:   defaultBooksTableName,
		membersTable: defaultMembersTableName,
		loansTable:   defaultLoansTableName,
	}
}

func applyOptions(store LendingStore, options []Option) (LendingStore, error) {
	for _, option := range options {
		if err := option(&store); err != nil {
			return LendingStore{}, err
		}
	}

	return store, nil
}

func (s LendingStore) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// toSQL renders any goqu statement into its interpolated SQL string.
func (s LendingStore) toSQL(
	ctx context.Context,
	stmt interface {
		ToSQL() (string, []interface{}, error)
	},
) (sqlQueryString, error) {

	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, logAttrError, err.Error())
		return "", err
	}

	return sqlQuery, nil
}

/*** query execution helpers ***/

type queryRunner interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// executeStatement runs a statement on the given runner (adapter or open
// transaction) and returns the number of affected rows.
func (s LendingStore) executeStatement(ctx context.Context, runner queryRunner, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()
	result, execErr := runner.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, time.Since(start))

	if execErr != nil {
		mappedErr := mapConcurrencyError(execErr)
		if !errors.Is(mappedErr, ledger.ErrConcurrencyConflict) {
			s.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, mappedErr
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		return 0, rowsAffectedErr
	}

	return rowsAffected, nil
}

// executeQuery runs a query on the given runner and returns the rows.
// The caller owns closing them.
func (s LendingStore) executeQuery(ctx context.Context, runner queryRunner, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := runner.Query(ctx, sqlQuery)
	s.logQueryWithDuration(ctx, sqlQuery, time.Since(start))

	if queryErr != nil {
		mappedErr := mapConcurrencyError(queryErr)
		if !errors.Is(mappedErr, ledger.ErrConcurrencyConflict) {
			s.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, mappedErr
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (s LendingStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// rollbackTx aborts a transaction, logging any failure. Safe after commit.
func (s LendingStore) rollbackTx(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error())
	}
}

// mapConcurrencyError translates serialization failures and deadlocks from
// either Postgres driver into the retryable ledger.ErrConcurrencyConflict.
func mapConcurrencyError(err error) error {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code == pgCodeSerializationFailure || pgxErr.Code == pgCodeDeadlockDetected {
			return errors.Join(ledger.ErrConcurrencyConflict, err)
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) == pgCodeSerializationFailure || string(pqErr.Code) == pgCodeDeadlockDetected {
			return errors.Join(ledger.ErrConcurrencyConflict, err)
		}
	}

	return err
}

/*** row conversion helpers ***/

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}

	data, err := jsoniter.ConfigFastest.Marshal(values)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func unmarshalStrings(data []byte) ([]string, error) {
	values := make([]string, 0)
	if len(data) == 0 {
		return values, nil
	}

	if err := jsoniter.ConfigFastest.Unmarshal(data, &values); err != nil {
		return nil, err
	}

	return values, nil
}

func scanBook(rows adapters.DBRows) (ledger.Book, error) {
	var (
		idRaw      string
		title      string
		authorsRaw []byte
		tagsRaw    []byte
		total      int
		available  int
		addedAt    time.Time
	)

	if err := rows.Scan(&idRaw, &title, &authorsRaw, &tagsRaw, &total, &available, &addedAt); err != nil {
		return ledger.Book{}, err
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return ledger.Book{}, err
	}

	authors, err := unmarshalStrings(authorsRaw)
	if err != nil {
		return ledger.Book{}, err
	}

	tags, err := unmarshalStrings(tagsRaw)
	if err != nil {
		return ledger.Book{}, err
	}

	return ledger.Book{
		ID:              id,
		Title:           title,
		Authors:         authors,
		Tags:            tags,
		TotalCopies:     total,
		AvailableCopies: available,
		AddedAt:         ledger.ToTimestamp(addedAt),
	}, nil
}

func scanMember(rows adapters.DBRows) (ledger.Member, error) {
	var (
		idRaw       string
		name        string
		email       string
		cardNumber  string
		firstJoined time.Time
		renewedAt   time.Time
		validTo     time.Time
	)

	if err := rows.Scan(&idRaw, &name, &email, &cardNumber, &firstJoined, &renewedAt, &validTo); err != nil {
		return ledger.Member{}, err
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return ledger.Member{}, err
	}

	return ledger.Member{
		ID:                id,
		Name:              name,
		Email:             email,
		CardNumber:        cardNumber,
		FirstJoinedAt:     ledger.ToTimestamp(firstJoined),
		RenewedAt:         ledger.ToTimestamp(renewedAt),
		MembershipValidTo: ledger.ToTimestamp(validTo),
	}, nil
}

func scanLoan(rows adapters.DBRows) (ledger.Loan, error) {
	var (
		idRaw          string
		bookIDRaw      string
		memberIDRaw    string
		copies         int
		borrowedAt     time.Time
		dueAt          time.Time
		returnedAt     sql.NullTime
		extensionCount int
	)

	err := rows.Scan(&idRaw, &bookIDRaw, &memberIDRaw, &copies, &borrowedAt, &dueAt, &returnedAt, &extensionCount)
	if err != nil {
		return ledger.Loan{}, err
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return ledger.Loan{}, err
	}

	bookID, err := uuid.Parse(bookIDRaw)
	if err != nil {
		return ledger.Loan{}, err
	}

	memberID, err := uuid.Parse(memberIDRaw)
	if err != nil {
		return ledger.Loan{}, err
	}

	loan := ledger.Loan{
		ID:             id,
		BookID:         bookID,
		MemberID:       memberID,
		Copies:         copies,
		BorrowedAt:     ledger.ToTimestamp(borrowedAt),
		DueAt:          ledger.ToTimestamp(dueAt),
		ExtensionCount: extensionCount,
	}

	if returnedAt.Valid {
		ts := ledger.ToTimestamp(returnedAt.Time)
		loan.ReturnedAt = &ts
	}

	return loan, nil
}

func loanColumns() []any {
	return []any{colLoanID, colBookID, colMemberID, colCopies, colBorrowedAt, colDueAt, colReturnedAt, colExtensionCount}
}

func bookColumns() []any {
	return []any{colBookID, colTitle, colAuthors, colTags, colTotalCopies, colAvailableCopies, colAddedAt}
}

func memberColumns() []any {
	return []any{colMemberID, colName, colEmail, colCardNumber, colFirstJoinedAt, colRenewedAt, colMembershipValidTo}
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
