package borrowbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	commandType = "BorrowBook"
)

// Command represents the intent of a member to borrow copies of a book.
type Command struct {
	LoanID     uuid.UUID
	BookID     uuid.UUID
	MemberID   uuid.UUID
	Copies     int
	BorrowedAt time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, bookID uuid.UUID, memberID uuid.UUID, copies int, borrowedAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		BookID:     bookID,
		MemberID:   memberID,
		Copies:     copies,
		BorrowedAt: ledger.ToTimestamp(borrowedAt),
	}
}
