package lateloans_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendkit/lending-ledger-go/features/query/lateloans"
	"github.com/lendkit/lending-ledger-go/ledger"
)

func givenLoanDueAt(t *testing.T, dueAt time.Time) ledger.Loan {
	t.Helper()

	loan, err := ledger.BuildLoan(uuid.New(), uuid.New(), uuid.New(), 1, dueAt.Add(-ledger.LoanPeriod))
	require.NoError(t, err)

	return loan
}

func Test_ProjectLateLoans_FiltersAndSortsByDueDate(t *testing.T) {
	// arrange
	asOf := time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC)
	veryLate := givenLoanDueAt(t, asOf.Add(-72*time.Hour))
	slightlyLate := givenLoanDueAt(t, asOf.Add(-time.Minute))
	notYetDue := givenLoanDueAt(t, asOf.Add(48*time.Hour))
	dueExactlyNow := givenLoanDueAt(t, asOf)

	query := lateloans.BuildQuery(asOf)

	// act
	result := lateloans.ProjectLateLoans(
		ledger.Loans{slightlyLate, notYetDue, veryLate, dueExactlyNow}, query)

	// assert - only past-due loans, most overdue first
	require.Equal(t, 2, result.Count)
	assert.Equal(t, veryLate.ID, result.Loans[0].LoanID)
	assert.Equal(t, slightlyLate.ID, result.Loans[1].LoanID)
	assert.Equal(t, 72*time.Hour, result.Loans[0].OverdueBy)
	assert.Equal(t, time.Minute, result.Loans[1].OverdueBy)
	assert.True(t, result.AsOf.Equal(asOf))
}

func Test_ProjectLateLoans_EmptyInput(t *testing.T) {
	// arrange
	query := lateloans.BuildQuery(time.Now())

	// act
	result := lateloans.ProjectLateLoans(nil, query)

	// assert
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Loans)
}
