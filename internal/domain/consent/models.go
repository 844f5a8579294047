package consent

import "time"

const (
	TypeDataUsage        = "dataUsage"
	TypeWithdrawConsent  = "withdrawConsent"
	TypeCamera           = "camera"
	TypeMicrophone       = "microphone"
	TypeVoiceRecording   = "voiceRecording"
	TypeEmotionAI        = "emotionAI"
	TypeSurveySubmission = "surveySubmission"
)

var KnownTypes = []string{
	TypeDataUsage,
	TypeWithdrawConsent,
	TypeCamera,
	TypeMicrophone,
	TypeVoiceRecording,
	TypeEmotionAI,
	TypeSurveySubmission,
}

func ValidType(consentType string) bool {
	for _, known := range KnownTypes {
		if consentType == known {
			return true
		}
	}
	return false
}

// Record is one grant/revoke event. Records are append-only; the newest record
// per type is the authoritative current value.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Granted   bool      `json:"granted"`
	CreatedAt time.Time `json:"timestamp"`
}
