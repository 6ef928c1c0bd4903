package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member is a registry record with its membership validity window.
//
// The per-member active-loan count is not stored here: it is derived from the
// ledger at decision time, inside the same atomic section as the inventory
// reservation.
type Member struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	CardNumber        string    `json:"cardNumber"`
	FirstJoinedAt     time.Time `json:"firstJoinedAt"`
	RenewedAt         time.Time `json:"renewedAt"`
	MembershipValidTo time.Time `json:"membershipValidTo"`
}

// BuildMember creates a new member with a one-year validity window starting
// now. The card number combines the joining year with a per-year sequence
// number, e.g. 2026 and 17 become "20260017".
func BuildMember(id uuid.UUID, name string, email string, cardSequence int, joinedAt time.Time) Member {
	joined := ToTimestamp(joinedAt)

	return Member{
		ID:                id,
		Name:              name,
		Email:             email,
		CardNumber:        FormatCardNumber(joined.Year(), cardSequence),
		FirstJoinedAt:     joined,
		RenewedAt:         joined,
		MembershipValidTo: joined.AddDate(1, 0, 0),
	}
}

// FormatCardNumber builds a human-facing library card number from the joining
// year and the member's sequence number within that year.
func FormatCardNumber(year int, sequence int) string {
	return fmt.Sprintf("%d%04d", year, sequence)
}

// Renew resets the membership validity window to one year from now and leaves
// the receiver unchanged.
func (m Member) Renew(now time.Time) Member {
	ts := ToTimestamp(now)
	m.RenewedAt = ts
	m.MembershipValidTo = ts.AddDate(1, 0, 0)

	return m
}

// MembershipValidAt reports whether the membership covers the given moment.
func (m Member) MembershipValidAt(t time.Time) bool {
	return !m.MembershipValidTo.Before(t)
}
