// config/auth.go
package config

import (
	"os"
	"strconv"
	"time"
)

// AuthConfig holds the OTP and session tunables.
type AuthConfig struct {
	OTPLength      int
	OTPTTL         time.Duration
	MaxOTPAttempts int
	BlockDuration  time.Duration
	SessionTTL     time.Duration
}

// LoadAuthConfig reads the OTP/session settings from the environment, falling
// back to the production defaults.
func LoadAuthConfig() AuthConfig {
	return AuthConfig{
		OTPLength:      envInt("OTP_LENGTH", 6),
		OTPTTL:         time.Duration(envInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		MaxOTPAttempts: envInt("OTP_MAX_ATTEMPTS", 3),
		BlockDuration:  time.Duration(envInt("OTP_BLOCK_MINUTES", 15)) * time.Minute,
		SessionTTL:     time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour,
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
