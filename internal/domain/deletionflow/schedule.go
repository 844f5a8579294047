package deletionflow

import "time"

// EffectiveDate returns now + days*24h, exactly. The backend computes and
// persists the authoritative date; this value is a client-side preview that is
// only guaranteed to match it to the day.
func EffectiveDate(days int, now time.Time) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}
