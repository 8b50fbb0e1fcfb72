package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local mobile", "0501234567", "+972501234567"},
		{"international plus", "+972501234567", "+972501234567"},
		{"country code no plus", "972501234567", "+972501234567"},
		{"spaces and dashes", "050-123 4567", "+972501234567"},
		{"parentheses", "(050) 123-4567", "+972501234567"},
		{"bare subscriber digits", "501234567", "+972501234567"},
		{"landline jerusalem", "02-123-4567", "+97221234567"},
		{"empty", "", "+972"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}

			// Normalization is a fixed point: feeding the output back in
			// must not change it.
			if again := NormalizePhone(got); again != got {
				t.Errorf("NormalizePhone not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestIsValidIsraeliPhone(t *testing.T) {
	valid := []string{
		"+972501234567",
		"+972521234567",
		"+972551234567",
		"+972581234567",
		"+972591234567",
		"+97221234567", // Jerusalem landline
		"+97231234567", // Tel Aviv landline
		"+97241234567",
		"+97281234567",
		"+97291234567",
		"+972771234567", // VoIP
	}
	for _, phone := range valid {
		if !IsValidIsraeliPhone(phone) {
			t.Errorf("IsValidIsraeliPhone(%q) = false, want true", phone)
		}
	}

	invalid := []string{
		"0501234567",     // not normalized
		"972501234567",   // missing plus
		"+972571234567",  // 57 is not an allocated mobile prefix
		"+97250123456",   // subscriber segment too short
		"+9725012345678", // subscriber segment too long
		"+97211234567",   // 1 is not an area code
		"+1501234567",    // wrong country
		"+972", "",
	}
	for _, phone := range invalid {
		if IsValidIsraeliPhone(phone) {
			t.Errorf("IsValidIsraeliPhone(%q) = true, want false", phone)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+972501234567", "+97250123****"},
		{"1234", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskPhone(tt.input); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
