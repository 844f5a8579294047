package checkin

import "time"

// BuildSummary computes count, average mood and the current daily streak
// from entries ordered newest first. The streak counts consecutive calendar
// days (UTC) with at least one check-in, and only counts as current when the
// latest entry is from today or yesterday.
func BuildSummary(entries []Entry, now time.Time) Summary {
	s := Summary{Count: len(entries)}
	if len(entries) == 0 {
		return s
	}

	total := 0
	for _, e := range entries {
		total += e.Mood
	}
	s.AverageMood = float64(total) / float64(len(entries))

	today := dateOf(now.UTC())
	latest := dateOf(entries[0].CreatedAt.UTC())
	if today.Sub(latest) > 24*time.Hour {
		return s
	}

	streak := 1
	prev := latest
	for _, e := range entries[1:] {
		day := dateOf(e.CreatedAt.UTC())
		if day.Equal(prev) {
			continue
		}
		if prev.Sub(day) != 24*time.Hour {
			break
		}
		streak++
		prev = day
	}
	s.StreakDays = streak
	return s
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
