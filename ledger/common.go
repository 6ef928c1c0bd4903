package ledger

import "time"

// ToTimestamp normalizes a time to UTC with microsecond precision so that
// records round-trip identically through every storage engine.
func ToTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
