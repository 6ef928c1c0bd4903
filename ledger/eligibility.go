package ledger

import (
	"errors"
	"time"
)

// MaxActiveBookLoans is the maximum number of distinct books a member may
// have on loan at the same time.
const MaxActiveBookLoans = 5

// IsEligible reports whether a member may borrow right now: the membership
// window must cover the moment of borrowing and the member must hold active
// loans for fewer than MaxActiveBookLoans distinct books.
//
// This is a pure function. Because concurrent borrows can change the active
// count between check and commit, engines must evaluate it inside the same
// atomic section that reserves the inventory, never ahead of it.
func IsEligible(member Member, activeBookCount int, now time.Time) bool {
	return member.MembershipValidAt(now) && activeBookCount < MaxActiveBookLoans
}

// CheckEligibility is IsEligible with the reason attached: it returns nil for
// an eligible member, and otherwise ErrNotEligible joined with
// ErrMembershipExpired when the membership window is the cause.
func CheckEligibility(member Member, activeBookCount int, now time.Time) error {
	if !member.MembershipValidAt(now) {
		return errors.Join(ErrNotEligible, ErrMembershipExpired)
	}

	if activeBookCount >= MaxActiveBookLoans {
		return ErrNotEligible
	}

	return nil
}
