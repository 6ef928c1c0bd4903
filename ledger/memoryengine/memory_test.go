package memoryengine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lendkit/lending-ledger-go/ledger"
)

func givenStoreWithBook(t *testing.T, totalCopies int) (*LendingStore, ledger.Book) {
	t.Helper()

	store := NewLendingStore()

	book, err := ledger.BuildBook(uuid.New(), "The Left Hand of Darkness", []string{"Ursula K. Le Guin"}, []string{"sci-fi"}, totalCopies, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.AddBook(context.Background(), book))

	return store, book
}

func givenMember(t *testing.T, store *LendingStore) ledger.Member {
	t.Helper()

	member, err := store.RegisterMember(context.Background(), uuid.New(), "Ada Lovelace", "ada@example.org", time.Now())
	require.NoError(t, err)

	return member
}

func givenActiveLoan(t *testing.T, store *LendingStore, book ledger.Book, member ledger.Member, copies int) ledger.Loan {
	t.Helper()

	loan, err := ledger.BuildLoan(uuid.New(), book.ID, member.ID, copies, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.BorrowBook(context.Background(), loan))

	return loan
}

func assertAvailable(t *testing.T, store *LendingStore, bookID uuid.UUID, want int) {
	t.Helper()

	book, err := store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	assert.Equal(t, want, book.AvailableCopies)
}

func Test_LendingStore_BorrowAndReturnLifecycle(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 3)
	member := givenMember(t, store)

	// act - borrow 2 of 3 copies
	loan := givenActiveLoan(t, store, book, member, 2)
	assertAvailable(t, store, book.ID, 1)

	// act - extend twice, then the third attempt fails
	_, err := store.ExtendLoan(ctx, loan.ID, time.Now())
	require.NoError(t, err)
	_, err = store.ExtendLoan(ctx, loan.ID, time.Now())
	require.NoError(t, err)
	_, err = store.ExtendLoan(ctx, loan.ID, time.Now())
	assert.ErrorIs(t, err, ledger.ErrMaxExtensionsReached)

	// act - return credits the copies back
	closed, err := store.ReturnLoan(ctx, loan.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, closed.IsActive())
	assertAvailable(t, store, book.ID, 3)
}

func Test_LendingStore_ReturnTwice_DoesNotCreditTwice(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 3)
	member := givenMember(t, store)
	loan := givenActiveLoan(t, store, book, member, 2)

	// act
	_, err := store.ReturnLoan(ctx, loan.ID, time.Now())
	require.NoError(t, err)
	_, err = store.ReturnLoan(ctx, loan.ID, time.Now())

	// assert - second return is rejected and availability stays at the total
	assert.ErrorIs(t, err, ledger.ErrAlreadyReturned)
	assertAvailable(t, store, book.ID, 3)
}

func Test_LendingStore_Borrow_FailsOnInsufficientInventory(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 1)
	member := givenMember(t, store)
	givenActiveLoan(t, store, book, member, 1)

	// act
	loan, err := ledger.BuildLoan(uuid.New(), book.ID, member.ID, 1, time.Now())
	require.NoError(t, err)
	err = store.BorrowBook(ctx, loan)

	// assert
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)
	assertAvailable(t, store, book.ID, 0)
}

func Test_LendingStore_Borrow_FailsAtDistinctBookLimit(t *testing.T) {
	// arrange - the member holds loans for the maximum number of distinct books
	ctx := context.Background()
	store := NewLendingStore()
	member := givenMember(t, store)

	for i := 0; i < ledger.MaxActiveBookLoans; i++ {
		book, err := ledger.BuildBook(uuid.New(), "Book", nil, nil, 1, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.AddBook(ctx, book))
		givenActiveLoan(t, store, book, member, 1)
	}

	oneMore, err := ledger.BuildBook(uuid.New(), "One More", nil, nil, 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.AddBook(ctx, oneMore))

	// act
	loan, err := ledger.BuildLoan(uuid.New(), oneMore.ID, member.ID, 1, time.Now())
	require.NoError(t, err)
	err = store.BorrowBook(ctx, loan)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotEligible)
}

func Test_LendingStore_Borrow_ExpiredMembershipNotEligible(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 1)
	member, err := store.RegisterMember(ctx, uuid.New(), "Charles Babbage", "charles@example.org", time.Now().AddDate(-2, 0, 0))
	require.NoError(t, err)

	// act
	loan, err := ledger.BuildLoan(uuid.New(), book.ID, member.ID, 1, time.Now())
	require.NoError(t, err)
	err = store.BorrowBook(ctx, loan)

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotEligible)
	assertAvailable(t, store, book.ID, 1)
}

func Test_LendingStore_ConcurrentBorrows_ExactlyOneWins(t *testing.T) {
	// arrange - one copy, many competing members
	const competitors = 16

	ctx := context.Background()
	store, book := givenStoreWithBook(t, 1)

	members := make([]ledger.Member, competitors)
	for i := range members {
		members[i] = givenMember(t, store)
	}

	// act - all competitors borrow the last copy at once
	results := make([]error, competitors)
	group := errgroup.Group{}

	for i := 0; i < competitors; i++ {
		group.Go(func() error {
			loan, buildErr := ledger.BuildLoan(uuid.New(), book.ID, members[i].ID, 1, time.Now())
			if buildErr != nil {
				return buildErr
			}

			results[i] = store.BorrowBook(ctx, loan)

			return nil
		})
	}
	require.NoError(t, group.Wait())

	// assert - exactly one success, everyone else sees insufficient inventory
	successes := 0
	for _, resultErr := range results {
		if resultErr == nil {
			successes++
		} else {
			assert.ErrorIs(t, resultErr, ledger.ErrInsufficientInventory)
		}
	}
	assert.Equal(t, 1, successes)
	assertAvailable(t, store, book.ID, 0)
}

func Test_LendingStore_ConcurrentBorrowAndReturn_InvariantHolds(t *testing.T) {
	// arrange
	const rounds = 50

	ctx := context.Background()
	store, book := givenStoreWithBook(t, 3)

	members := make([]ledger.Member, 4)
	for i := range members {
		members[i] = givenMember(t, store)
	}

	// act - members hammer borrow/return in parallel
	group := errgroup.Group{}
	for i := range members {
		group.Go(func() error {
			for r := 0; r < rounds; r++ {
				loan, buildErr := ledger.BuildLoan(uuid.New(), book.ID, members[i].ID, 1, time.Now())
				if buildErr != nil {
					return buildErr
				}

				if borrowErr := store.BorrowBook(ctx, loan); borrowErr != nil {
					continue // copy contention is expected
				}

				if _, returnErr := store.ReturnLoan(ctx, loan.ID, time.Now()); returnErr != nil {
					return returnErr
				}
			}

			return nil
		})
	}
	require.NoError(t, group.Wait())

	// assert - every loan was returned, so all copies are available again
	assertAvailable(t, store, book.ID, 3)

	activeLoans, err := store.ActiveLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, activeLoans)
}

func Test_LendingStore_AdjustLoanCopies(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 5)
	member := givenMember(t, store)
	loan := givenActiveLoan(t, store, book, member, 2)

	// act - grow the loan by one copy
	adjusted, err := store.AdjustLoanCopies(ctx, loan.ID, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, adjusted.Copies)
	assertAvailable(t, store, book.ID, 2)

	// act - shrink it back down to one copy and move the due date
	newDue := time.Now().Add(30 * 24 * time.Hour)
	adjusted, err = store.AdjustLoanCopies(ctx, loan.ID, 1, &newDue)
	require.NoError(t, err)
	assert.Equal(t, 1, adjusted.Copies)
	assert.Equal(t, ledger.ToTimestamp(newDue), adjusted.DueAt)
	assertAvailable(t, store, book.ID, 4)

	// act - growing past the available copies fails without changes
	_, err = store.AdjustLoanCopies(ctx, loan.ID, 6, nil)
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)
	assertAvailable(t, store, book.ID, 4)

	// act - setting the current count again is a no-op
	adjusted, err = store.AdjustLoanCopies(ctx, loan.ID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, adjusted.Copies)
	assertAvailable(t, store, book.ID, 4)
}

func Test_LendingStore_CancelLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 2)
	member := givenMember(t, store)
	loan := givenActiveLoan(t, store, book, member, 2)

	// act
	err := store.CancelLoan(ctx, loan.ID)

	// assert - the loan is gone and the copies are back
	require.NoError(t, err)
	assertAvailable(t, store, book.ID, 2)
	_, err = store.GetLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, ledger.ErrLoanNotFound)
}

func Test_LendingStore_CancelLoan_FailsOnReturnedLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 2)
	member := givenMember(t, store)
	loan := givenActiveLoan(t, store, book, member, 1)

	_, err := store.ReturnLoan(ctx, loan.ID, time.Now())
	require.NoError(t, err)

	// act
	err = store.CancelLoan(ctx, loan.ID)

	// assert - the closed loan stays in the ledger
	assert.ErrorIs(t, err, ledger.ErrAlreadyReturned)
	_, err = store.GetLoan(ctx, loan.ID)
	assert.NoError(t, err)
}

func Test_LendingStore_SetBookTotalCopies_GuardsCopiesOnLoan(t *testing.T) {
	// arrange - 5 total, 3 on loan
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 5)
	member := givenMember(t, store)
	givenActiveLoan(t, store, book, member, 3)

	// act - shrinking to the copies on loan is allowed
	corrected, err := store.SetBookTotalCopies(ctx, book.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, corrected.AvailableCopies)

	// act - shrinking below the copies on loan is rejected
	_, err = store.SetBookTotalCopies(ctx, book.ID, 2)
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)
}

func Test_LendingStore_RegisterMember_AssignsPerYearCardSequence(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := NewLendingStore()
	joined := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	// act
	first, err := store.RegisterMember(ctx, uuid.New(), "First", "first@example.org", joined)
	require.NoError(t, err)
	second, err := store.RegisterMember(ctx, uuid.New(), "Second", "second@example.org", joined.AddDate(0, 3, 0))
	require.NoError(t, err)
	nextYear, err := store.RegisterMember(ctx, uuid.New(), "Third", "third@example.org", joined.AddDate(1, 0, 0))
	require.NoError(t, err)

	// assert - the sequence counts per joining year
	assert.Equal(t, "20260001", first.CardNumber)
	assert.Equal(t, "20260002", second.CardNumber)
	assert.Equal(t, "20270001", nextYear.CardNumber)
}

func Test_LendingStore_RenewMembership_RestoresEligibility(t *testing.T) {
	// arrange - membership expired a year ago
	ctx := context.Background()
	store, book := givenStoreWithBook(t, 1)
	member, err := store.RegisterMember(ctx, uuid.New(), "Ada", "ada@example.org", time.Now().AddDate(-2, 0, 0))
	require.NoError(t, err)

	loan, err := ledger.BuildLoan(uuid.New(), book.ID, member.ID, 1, time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, store.BorrowBook(ctx, loan), ledger.ErrNotEligible)

	// act
	_, err = store.RenewMembership(ctx, member.ID, time.Now())
	require.NoError(t, err)

	// assert
	assert.NoError(t, store.BorrowBook(ctx, loan))
}
