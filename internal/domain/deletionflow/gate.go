package deletionflow

// ConfirmationPhrase must be typed verbatim before an immediate deletion is
// allowed to proceed.
const ConfirmationPhrase = "DELETE MY ACCOUNT"

// IsConfirmed reports whether input matches the confirmation phrase exactly.
// Case-sensitive, no trimming: the friction is the point.
func IsConfirmed(input string) bool {
	return input == ConfirmationPhrase
}
