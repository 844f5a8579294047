package account

import "fmt"

// Facts are the server-side observations deletion eligibility derives from.
type Facts struct {
	Status              string
	AccountAgeDays      int
	CheckinCount        int
	SurveyResponseCount int
	ProcessingExports   int
	GrantedConsents     int
}

const recommendGraceCheckinThreshold = 10

// BuildEligibility turns facts into an eligibility verdict. Pure; the store
// gathers the facts, this decides.
func BuildEligibility(facts Facts) DeletionEligibility {
	eligibility := DeletionEligibility{
		Blockers: []string{},
		Warnings: []string{},
	}

	if facts.Status == StatusSuspended {
		eligibility.Blockers = append(eligibility.Blockers,
			"Your account is suspended. Contact support before requesting deletion.")
	}
	if facts.ProcessingExports > 0 {
		eligibility.Blockers = append(eligibility.Blockers,
			"A data export is still being prepared. Wait for it to finish before deleting your account.")
	}

	if facts.CheckinCount > 0 {
		eligibility.Warnings = append(eligibility.Warnings,
			fmt.Sprintf("%d mood check-ins will be permanently deleted.", facts.CheckinCount))
	}
	if facts.SurveyResponseCount > 0 {
		eligibility.Warnings = append(eligibility.Warnings,
			fmt.Sprintf("%d survey responses will be permanently deleted.", facts.SurveyResponseCount))
	}
	if facts.GrantedConsents > 0 {
		eligibility.Warnings = append(eligibility.Warnings,
			"All granted consents will be revoked.")
	}

	eligibility.CanDelete = len(eligibility.Blockers) == 0
	eligibility.RecommendGracePeriod = facts.CheckinCount >= recommendGraceCheckinThreshold ||
		facts.AccountAgeDays >= 30

	return eligibility
}
