package addbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "AddBook"
)

// Command represents the intent to add a new book to the catalog.
type Command struct {
	BookID      uuid.UUID
	Title       string
	Authors     []string
	Tags        []string
	TotalCopies int
	AddedAt     time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	bookID uuid.UUID,
	title string,
	authors []string,
	tags []string,
	totalCopies int,
	addedAt time.Time,
) Command {
	return Command{
		BookID:      bookID,
		Title:       title,
		Authors:     authors,
		Tags:        tags,
		TotalCopies: totalCopies,
		AddedAt:     ledger.ToTimestamp(addedAt),
	}
}
