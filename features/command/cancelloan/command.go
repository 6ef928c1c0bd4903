package cancelloan

import (
	"github.com/google/uuid"
)

const (
	commandType = "CancelLoan"
)

// Command represents the intent to cancel an active loan as if it never
// happened.
type Command struct {
	LoanID uuid.UUID
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided loan ID.
func BuildCommand(loanID uuid.UUID) Command {
	return Command{
		LoanID: loanID,
	}
}
