package renewmembership

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "RenewMembership"
)

// Command represents the intent to renew a member's yearly membership.
type Command struct {
	MemberID    uuid.UUID
	RequestedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(memberID uuid.UUID, requestedAt time.Time) Command {
	return Command{
		MemberID:    memberID,
		RequestedAt: ledger.ToTimestamp(requestedAt),
	}
}
