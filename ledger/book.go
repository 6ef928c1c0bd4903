package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Book is a catalog record with its copy counters.
//
// AvailableCopies is the only piece of shared mutable state in the system.
// It is mutated exclusively through an engine's reserve/release guard and
// must always satisfy 0 <= AvailableCopies <= TotalCopies.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Tags            []string  `json:"tags"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	AddedAt         time.Time `json:"addedAt"`
}

// BuildBook creates a new catalog record. A new book starts with all copies
// available.
func BuildBook(
	id uuid.UUID,
	title string,
	authors []string,
	tags []string,
	totalCopies int,
	addedAt time.Time,
) (Book, error) {

	if totalCopies < 0 {
		return Book{}, ErrNegativeTotalCopies
	}

	book := Book{
		ID:              id,
		Title:           title,
		Authors:         authors,
		Tags:            tags,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		AddedAt:         ToTimestamp(addedAt),
	}

	return book, nil
}

// CopiesOnLoan is the number of copies currently reserved by active loans.
func (b Book) CopiesOnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}

// WithTotalCopies applies a total-copies correction, moving the same delta
// onto AvailableCopies so that copies on loan stay untouched. It fails with
// ErrInsufficientInventory when more copies are on loan than the new total
// allows, and leaves the receiver unchanged on failure.
func (b Book) WithTotalCopies(newTotal int) (Book, error) {
	if newTotal < 0 {
		return Book{}, ErrNegativeTotalCopies
	}

	newAvailable := b.AvailableCopies + (newTotal - b.TotalCopies)
	if newAvailable < 0 {
		return Book{}, ErrInsufficientInventory
	}

	b.TotalCopies = newTotal
	b.AvailableCopies = newAvailable

	return b, nil
}
