package utils

import (
	"strconv"
	"testing"
)

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		t.Run(strconv.Itoa(length)+" digits", func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < 200; i++ {
				code, err := GenerateOTP(length)
				if err != nil {
					t.Fatalf("GenerateOTP(%d): %v", length, err)
				}
				if len(code) != length {
					t.Fatalf("GenerateOTP(%d) = %q, wrong length", length, code)
				}
				if code[0] == '0' {
					t.Fatalf("GenerateOTP(%d) = %q, leading zero breaks fixed length", length, code)
				}
				if _, err := strconv.ParseUint(code, 10, 64); err != nil {
					t.Fatalf("GenerateOTP(%d) = %q, not numeric", length, code)
				}
				seen[code] = true
			}
			// 200 draws from at least 9000 values colliding down to a handful
			// would indicate a broken random source.
			if len(seen) < 50 {
				t.Errorf("GenerateOTP(%d) produced only %d distinct codes in 200 draws", length, len(seen))
			}
		})
	}
}

func TestGenerateOTPRejectsBadLength(t *testing.T) {
	for _, length := range []int{0, -1, 19} {
		if _, err := GenerateOTP(length); err == nil {
			t.Errorf("GenerateOTP(%d) succeeded, want error", length)
		}
	}
}
