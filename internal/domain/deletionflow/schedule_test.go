package deletionflow

import (
	"testing"
	"time"
)

func TestEffectiveDate(t *testing.T) {
	nows := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 23, 59, 59, 0, time.UTC),
		time.Date(2030, 12, 31, 12, 30, 0, 123, time.UTC),
	}

	for _, now := range nows {
		for _, days := range []int{0, 7, 14, 30} {
			got := EffectiveDate(days, now)
			want := now.Add(time.Duration(days) * 86400 * time.Second)
			if !got.Equal(want) {
				t.Fatalf("EffectiveDate(%d, %v) = %v, want %v", days, now, got, want)
			}
		}
	}
}
