package adjustloancopies

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "AdjustLoanCopies"
)

// Command represents the intent to change how many copies an active loan
// holds, and optionally move its due date.
type Command struct {
	LoanID    uuid.UUID
	NewCopies int
	NewDueAt  *time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, newCopies int, newDueAt *time.Time) Command {
	command := Command{
		LoanID:    loanID,
		NewCopies: newCopies,
	}

	if newDueAt != nil {
		ts := ledger.ToTimestamp(*newDueAt)
		command.NewDueAt = &ts
	}

	return command
}
