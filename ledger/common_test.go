package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToTimestamp_NormalizesToUTCMicroseconds(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	in := time.Date(2026, time.August, 30, 14, 30, 45, 123456789, loc)

	out := ToTimestamp(in)

	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 123456000, out.Nanosecond(), "precision is truncated to microseconds")
	assert.True(t, out.Equal(in.Truncate(time.Microsecond)))
}

func Test_Loan_RoundTripsThroughJSON(t *testing.T) {
	// arrange - a closed loan exercises the nullable return timestamp
	loan, err := BuildLoan(uuid.New(), uuid.New(), uuid.New(), 2, time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	loan, err = loan.Extend(loan.BorrowedAt.Add(24 * time.Hour))
	require.NoError(t, err)
	closed, err := loan.Close(loan.BorrowedAt.Add(48 * time.Hour))
	require.NoError(t, err)

	// act
	data, err := jsoniter.ConfigFastest.Marshal(closed)
	require.NoError(t, err)

	var decoded Loan
	require.NoError(t, jsoniter.ConfigFastest.Unmarshal(data, &decoded))

	// assert - every field survives, including the closing state
	assert.Equal(t, closed, decoded)
}
