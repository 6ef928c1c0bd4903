package extendloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "ExtendLoan"
)

// Command represents the intent to extend a loan by one loan period.
type Command struct {
	LoanID      uuid.UUID
	RequestedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, requestedAt time.Time) Command {
	return Command{
		LoanID:      loanID,
		RequestedAt: ledger.ToTimestamp(requestedAt),
	}
}
