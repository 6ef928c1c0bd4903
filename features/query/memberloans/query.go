package memberloans

import (
	"time"

	"github.com/google/uuid"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	queryType = "MemberLoans"
)

// Query represents the intent to inspect a member's loans and current
// borrowing standing.
type Query struct {
	MemberID uuid.UUID
	AsOf     time.Time
}

// BuildQuery creates a new Query with the provided member ID and reference time.
func BuildQuery(memberID uuid.UUID, asOf time.Time) Query {
	return Query{
		MemberID: memberID,
		AsOf:     ledger.ToTimestamp(asOf),
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
