package memberloans_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendkit/lending-ledger-go/features/query/memberloans"
	"github.com/lendkit/lending-ledger-go/ledger"
)

func givenMember(joined time.Time) ledger.Member {
	return ledger.BuildMember(uuid.New(), "Grace Hopper", "grace@example.org", 1, joined)
}

func givenLoans(t *testing.T, memberID uuid.UUID, borrowedAt time.Time) (active, returned, late ledger.Loan) {
	t.Helper()

	active, err := ledger.BuildLoan(uuid.New(), uuid.New(), memberID, 1, borrowedAt)
	require.NoError(t, err)

	returned, err = ledger.BuildLoan(uuid.New(), uuid.New(), memberID, 2, borrowedAt)
	require.NoError(t, err)
	returned, err = returned.Close(borrowedAt.Add(24 * time.Hour))
	require.NoError(t, err)

	late, err = ledger.BuildLoan(uuid.New(), uuid.New(), memberID, 1, borrowedAt.Add(-2*ledger.LoanPeriod))
	require.NoError(t, err)

	return active, returned, late
}

func Test_ProjectMemberLoans_CountsDistinctActiveBooksAndFlagsLateness(t *testing.T) {
	// arrange
	joined := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	asOf := joined.Add(7 * 24 * time.Hour)
	member := givenMember(joined)
	active, returned, late := givenLoans(t, member.ID, joined)

	query := memberloans.BuildQuery(member.ID, asOf)

	// act
	result := memberloans.ProjectMemberLoans(member, ledger.Loans{active, returned, late}, query)

	// assert - the returned loan does not count toward active books
	assert.Equal(t, member.ID, result.MemberID)
	assert.Equal(t, member.CardNumber, result.CardNumber)
	assert.Equal(t, 2, result.ActiveBookCount)
	assert.Equal(t, 3, result.Count)
	assert.True(t, result.Eligible)

	byID := make(map[uuid.UUID]memberloans.MemberLoan)
	for _, l := range result.Loans {
		byID[l.LoanID] = l
	}

	assert.False(t, byID[active.ID].Late)
	assert.False(t, byID[returned.ID].Late)
	assert.True(t, byID[late.ID].Late)
	assert.NotNil(t, byID[returned.ID].ReturnedAt)
}

func Test_ProjectMemberLoans_ExpiredMembershipIsNotEligible(t *testing.T) {
	// arrange
	joined := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	member := givenMember(joined)
	asOf := member.MembershipValidTo.Add(time.Hour)

	query := memberloans.BuildQuery(member.ID, asOf)

	// act
	result := memberloans.ProjectMemberLoans(member, nil, query)

	// assert
	assert.False(t, result.Eligible)
	assert.Equal(t, 0, result.ActiveBookCount)
	assert.NotNil(t, result.Loans)
}
