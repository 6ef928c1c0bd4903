package lateloans

import (
	"time"

	"github.com/lendkit/lending-ledger-go/ledger"
)

const (
	queryType = "LateLoans"
)

// Query represents the intent to list the loans that are overdue at a given
// point in time.
type Query struct {
	AsOf time.Time
}

// BuildQuery creates a new Query with the provided reference time.
func BuildQuery(asOf time.Time) Query {
	return Query{
		AsOf: ledger.ToTimestamp(asOf),
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
