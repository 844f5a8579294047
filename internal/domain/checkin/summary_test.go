package checkin

import (
	"math"
	"testing"
	"time"
)

func entryAt(mood int, t time.Time) Entry {
	return Entry{Mood: mood, CreatedAt: t}
}

func TestBuildSummaryEmpty(t *testing.T) {
	got := BuildSummary(nil, time.Now())
	if got.Count != 0 || got.AverageMood != 0 || got.StreakDays != 0 {
		t.Fatalf("expected zero summary, got %+v", got)
	}
}

func TestBuildSummaryAverage(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		entryAt(5, now),
		entryAt(4, now.Add(-1*time.Hour)),
		entryAt(2, now.Add(-2*time.Hour)),
	}
	got := BuildSummary(entries, now)
	if got.Count != 3 {
		t.Fatalf("count = %d, want 3", got.Count)
	}
	want := 11.0 / 3.0
	if math.Abs(got.AverageMood-want) > 1e-9 {
		t.Fatalf("average = %f, want %f", got.AverageMood, want)
	}
}

func TestBuildSummaryStreak(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	day := func(daysAgo int, hour int) time.Time {
		return time.Date(2026, 8, 29-daysAgo, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{
			name:    "single entry today",
			entries: []Entry{entryAt(3, day(0, 9))},
			want:    1,
		},
		{
			name: "three consecutive days",
			entries: []Entry{
				entryAt(3, day(0, 9)),
				entryAt(4, day(1, 20)),
				entryAt(2, day(2, 7)),
			},
			want: 3,
		},
		{
			name: "multiple entries on one day count once",
			entries: []Entry{
				entryAt(3, day(0, 21)),
				entryAt(3, day(0, 9)),
				entryAt(4, day(1, 12)),
			},
			want: 2,
		},
		{
			name: "gap breaks the streak",
			entries: []Entry{
				entryAt(3, day(0, 9)),
				entryAt(4, day(2, 12)),
				entryAt(2, day(3, 12)),
			},
			want: 1,
		},
		{
			name: "latest entry yesterday still counts",
			entries: []Entry{
				entryAt(3, day(1, 9)),
				entryAt(4, day(2, 12)),
			},
			want: 2,
		},
		{
			name: "stale history has no current streak",
			entries: []Entry{
				entryAt(3, day(3, 9)),
				entryAt(4, day(4, 12)),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSummary(tt.entries, now)
			if got.StreakDays != tt.want {
				t.Fatalf("streak = %d, want %d", got.StreakDays, tt.want)
			}
		})
	}
}
