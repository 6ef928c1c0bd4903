package ledger

import "errors"

var (
	// ErrBookNotFound is returned when a referenced book does not exist in the catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrMemberNotFound is returned when a referenced member does not exist in the registry.
	ErrMemberNotFound = errors.New("member not found")

	// ErrLoanNotFound is returned when a referenced loan does not exist in the ledger.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrInsufficientInventory is returned when a reservation asks for more copies
	// than are currently available. Retrying without changing the input is pointless.
	ErrInsufficientInventory = errors.New("not enough available copies")

	// ErrMembershipExpired is joined onto ErrNotEligible when the membership
	// window is the reason a borrow was refused.
	ErrMembershipExpired = errors.New("membership has expired")

	// ErrNotEligible is returned when a member's membership has expired or the
	// active-loan limit is reached at the moment of borrowing.
	ErrNotEligible = errors.New("member is not eligible to borrow")

	// ErrMaxExtensionsReached is returned when a loan has already been extended
	// the maximum number of times.
	ErrMaxExtensionsReached = errors.New("maximum extensions reached")

	// ErrAlreadyReturned is returned for any lifecycle transition attempted on a
	// closed loan. It guards against duplicate return requests double-crediting
	// inventory.
	ErrAlreadyReturned = errors.New("loan is already returned")

	// ErrInvariantViolation indicates that a release would push availableCopies
	// above totalCopies. This is a bookkeeping bug: the operation is rejected
	// and logged, never silently clamped.
	ErrInvariantViolation = errors.New("inventory invariant violation: release would exceed total copies")

	// ErrConcurrencyConflict is returned when the database aborts an atomic
	// section because of a serialization failure or deadlock. It is the only
	// retryable error.
	ErrConcurrencyConflict = errors.New("concurrency conflict detected")

	// ErrInvalidCopyCount is returned when a borrow or adjustment asks for a
	// non-positive number of copies.
	ErrInvalidCopyCount = errors.New("copy count must be positive")

	// ErrNegativeTotalCopies is returned when a book is created or edited with
	// a negative total-copies count.
	ErrNegativeTotalCopies = errors.New("total copies must not be negative")

	// ErrNilDatabaseConnection is returned by engine factories when no database
	// handle is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned by engine options when an empty table name
	// is supplied.
	ErrEmptyTableName = errors.New("empty table name supplied")
)
