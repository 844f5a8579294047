package export

import "testing"

func TestValidKind(t *testing.T) {
	for _, kind := range Kinds {
		if !ValidKind(kind) {
			t.Errorf("ValidKind(%q) = false, want true", kind)
		}
	}
	for _, kind := range []string{"", "everything", "Account", "mood_history"} {
		if ValidKind(kind) {
			t.Errorf("ValidKind(%q) = true, want false", kind)
		}
	}
}

func TestSummaryPDF(t *testing.T) {
	out, err := summaryPDF(Export{ID: "e1", Kind: KindConsents}, []string{"Consent records: 4"})
	if err != nil {
		t.Fatalf("summaryPDF: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
}
