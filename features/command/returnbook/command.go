package returnbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return a borrowed book.
type Command struct {
	LoanID     uuid.UUID
	ReturnedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, returnedAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		ReturnedAt: ledger.ToTimestamp(returnedAt),
	}
}
