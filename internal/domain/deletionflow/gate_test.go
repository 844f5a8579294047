package deletionflow

import "testing"

func TestIsConfirmed(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"DELETE MY ACCOUNT", true},
		{"delete my account", false},
		{"DELETE MY ACCOUNT ", false},
		{" DELETE MY ACCOUNT", false},
		{"DELETE  MY ACCOUNT", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsConfirmed(tt.input); got != tt.want {
			t.Fatalf("IsConfirmed(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
