package account

import (
	"strings"
	"testing"
)

func TestBuildEligibilityFreshAccount(t *testing.T) {
	eligibility := BuildEligibility(Facts{Status: StatusActive, AccountAgeDays: 2})

	if !eligibility.CanDelete {
		t.Fatal("expected fresh account to be deletable")
	}
	if len(eligibility.Blockers) != 0 {
		t.Fatalf("expected no blockers, got %v", eligibility.Blockers)
	}
	if len(eligibility.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", eligibility.Warnings)
	}
	if eligibility.RecommendGracePeriod {
		t.Fatal("did not expect grace recommendation for a fresh account")
	}
}

func TestBuildEligibilityBlockers(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  string
	}{
		{"suspended", Facts{Status: StatusSuspended}, "suspended"},
		{"export in flight", Facts{Status: StatusActive, ProcessingExports: 1}, "data export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eligibility := BuildEligibility(tt.facts)
			if eligibility.CanDelete {
				t.Fatal("expected account to be blocked")
			}
			if len(eligibility.Blockers) != 1 || !strings.Contains(eligibility.Blockers[0], tt.want) {
				t.Fatalf("unexpected blockers: %v", eligibility.Blockers)
			}
		})
	}
}

func TestBuildEligibilityWarningsDoNotBlock(t *testing.T) {
	eligibility := BuildEligibility(Facts{
		Status:              StatusActive,
		CheckinCount:        3,
		SurveyResponseCount: 2,
		GrantedConsents:     4,
	})

	if !eligibility.CanDelete {
		t.Fatal("warnings must not block deletion")
	}
	if len(eligibility.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", eligibility.Warnings)
	}
}

func TestBuildEligibilityGraceRecommendation(t *testing.T) {
	if !BuildEligibility(Facts{Status: StatusActive, CheckinCount: 10}).RecommendGracePeriod {
		t.Fatal("expected recommendation at 10 check-ins")
	}
	if !BuildEligibility(Facts{Status: StatusActive, AccountAgeDays: 30}).RecommendGracePeriod {
		t.Fatal("expected recommendation at 30 days of age")
	}
	if BuildEligibility(Facts{Status: StatusActive, CheckinCount: 9, AccountAgeDays: 29}).RecommendGracePeriod {
		t.Fatal("did not expect recommendation below both thresholds")
	}
}

func TestValidGracePeriod(t *testing.T) {
	for _, days := range []int{0, 7, 14, 30} {
		if !ValidGracePeriod(days) {
			t.Fatalf("expected %d to be valid", days)
		}
	}
	for _, days := range []int{-1, 1, 15, 31, 365} {
		if ValidGracePeriod(days) {
			t.Fatalf("did not expect %d to be valid", days)
		}
	}
}
