package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BuildBook_StartsWithAllCopiesAvailable(t *testing.T) {
	// act
	book, err := BuildBook(uuid.New(), "The Dispossessed", []string{"Ursula K. Le Guin"}, []string{"sci-fi"}, 4, time.Now())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
	assert.Equal(t, 0, book.CopiesOnLoan())
}

func Test_BuildBook_RejectsNegativeTotal(t *testing.T) {
	_, err := BuildBook(uuid.New(), "Nothing", nil, nil, -1, time.Now())
	assert.ErrorIs(t, err, ErrNegativeTotalCopies)
}

func Test_Book_WithTotalCopies_PreservesCopiesOnLoan(t *testing.T) {
	// arrange - 5 total, 2 on loan
	book, err := BuildBook(uuid.New(), "Dune", []string{"Frank Herbert"}, nil, 5, time.Now())
	require.NoError(t, err)
	book.AvailableCopies = 3

	tests := []struct {
		name          string
		newTotal      int
		wantAvailable int
		wantErr       error
	}{
		{name: "grow the stock", newTotal: 8, wantAvailable: 6},
		{name: "shrink down to the copies on loan", newTotal: 2, wantAvailable: 0},
		{name: "shrink below the copies on loan", newTotal: 1, wantErr: ErrInsufficientInventory},
		{name: "negative total", newTotal: -2, wantErr: ErrNegativeTotalCopies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrected, correctErr := book.WithTotalCopies(tt.newTotal)

			if tt.wantErr != nil {
				assert.ErrorIs(t, correctErr, tt.wantErr)
				return
			}

			require.NoError(t, correctErr)
			assert.Equal(t, tt.newTotal, corrected.TotalCopies)
			assert.Equal(t, tt.wantAvailable, corrected.AvailableCopies)
			assert.Equal(t, book.CopiesOnLoan(), corrected.CopiesOnLoan(), "copies on loan must stay untouched")
		})
	}
}
