package setbookcopies

import (
	"github.com/google/uuid"
)

const (
	commandType = "SetBookCopies"
)

// Command represents the intent to correct a book's total copy count, for
// example after a stocktake.
type Command struct {
	BookID   uuid.UUID
	NewTotal int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, newTotal int) Command {
	return Command{
		BookID:   bookID,
		NewTotal: newTotal,
	}
}
