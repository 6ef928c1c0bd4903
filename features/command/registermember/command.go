package registermember

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "RegisterMember"
)

// Command represents the intent to register a new library member.
type Command struct {
	MemberID uuid.UUID
	Name     string
	Email    string
	JoinedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(memberID uuid.UUID, name string, email string, joinedAt time.Time) Command {
	return Command{
		MemberID: memberID,
		Name:     name,
		Email:    email,
		JoinedAt: ledger.ToTimestamp(joinedAt),
	}
}
