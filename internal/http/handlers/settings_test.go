package handlers

import "testing"

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"exactly14chars", "***"},
		{"EAABsbCS1234567890abcdwxyz", "EAABsb***wxyz"},
	}

	for _, test := range tests {
		if got := maskSecret(test.input); got != test.want {
			t.Errorf("maskSecret(%q) = %q, expected %q", test.input, got, test.want)
		}
	}
}

func TestIsMasked(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"***", true},
		{"EAABsb***wxyz", true},
		{"EAABsbCS1234567890abcdwxyz", false},
		{"a-real-token", false},
		{"", false},
	}

	for _, test := range tests {
		if got := isMasked(test.input); got != test.want {
			t.Errorf("isMasked(%q) = %v, expected %v", test.input, got, test.want)
		}
	}
}

func TestMaskRoundTrip(t *testing.T) {
	// Whatever Get returns must be recognized as masked so an Update
	// echoing it back cannot overwrite the stored secret
	secrets := []string{
		"EAABsbCS1234567890abcdwxyz",
		"short",
		"a-token-longer-than-fourteen",
	}
	for _, secret := range secrets {
		masked := maskSecret(secret)
		if !isMasked(masked) {
			t.Errorf("maskSecret(%q) = %q is not recognized by isMasked", secret, masked)
		}
	}
}
