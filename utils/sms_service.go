// utils/sms_service.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// SmsGateway dispatches a text message to a phone number. Implementations own
// their timeout/retry policy; gateway flakiness must never corrupt OTP
// challenge state, so callers treat dispatch as a plain success/failure.
type SmsGateway interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSService sends messages through the bulk-SMS HTTP API.
type SMSService struct {
	Username     string
	Password     string
	SenderID     string
	APIPath      string
	Client       *http.Client
	MaxRetries   int
	RetryBackoff time.Duration

	logger *log.Logger
}

// SMSResponse represents the response from the bulk-SMS API
type SMSResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"message_id"`
		Cost      string `json:"cost"`
	} `json:"data"`
}

// NewSMSService creates an SMS service configured from the environment.
func NewSMSService() *SMSService {
	return &SMSService{
		Username:     os.Getenv("SMS_USERNAME"),
		Password:     os.Getenv("SMS_PASSWORD"),
		SenderID:     getEnvDefault("SMS_SENDER_ID", "IntAI"),
		APIPath:      os.Getenv("SMS_API_PATH"),
		Client:       &http.Client{Timeout: 10 * time.Second},
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
		logger:       log.New(os.Stdout, "[SMS] ", log.LstdFlags),
	}
}

// Send dispatches message to phone, retrying transient failures with backoff.
// The caller's context bounds the whole operation including retries.
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.RetryBackoff * time.Duration(attempt)):
			}
		}

		lastErr = s.sendOnce(ctx, phone, message)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("SMS dispatch to %s failed (attempt %d/%d): %v",
			MaskPhone(phone), attempt+1, s.MaxRetries+1, lastErr)
	}

	return fmt.Errorf("SMS dispatch failed after %d attempts: %w", s.MaxRetries+1, lastErr)
}

func (s *SMSService) sendOnce(ctx context.Context, phone, message string) error {
	params := url.Values{}
	params.Set("username", s.Username)
	params.Set("password", s.Password)
	params.Set("senderid", s.SenderID)
	params.Set("destination", phone)
	params.Set("message", message)

	fullURL := fmt.Sprintf("%s?%s", s.APIPath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", "IntAI-OTP-Service/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var smsResp SMSResponse
	if err := json.Unmarshal(body, &smsResp); err != nil {
		// Some provider endpoints answer with a bare text body on success.
		responseStr := strings.ToLower(strings.TrimSpace(string(body)))
		if strings.Contains(responseStr, "success") || strings.Contains(responseStr, "sent") {
			return nil
		}
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if smsResp.Status == "success" || smsResp.Status == "sent" {
		return nil
	}

	return fmt.Errorf("SMS sending failed: %s", smsResp.Message)
}

// LogSmsGateway writes messages to the process log instead of dispatching
// them. Used in development when no SMS provider is configured.
type LogSmsGateway struct {
	Logger *log.Logger
}

// NewLogSmsGateway creates a gateway that only logs outgoing messages.
func NewLogSmsGateway() *LogSmsGateway {
	return &LogSmsGateway{Logger: log.New(os.Stdout, "[SMS] ", log.LstdFlags)}
}

// Send logs the message and reports success.
func (g *LogSmsGateway) Send(ctx context.Context, phone, message string) error {
	g.Logger.Printf("SMS to %s: %s", phone, message)
	return nil
}

// OTPMessage renders the verification-code SMS body.
func OTPMessage(otp string, expiry time.Duration) string {
	return fmt.Sprintf("Your IntAI verification code is: %s. This code will expire in %d minutes.",
		otp, int(expiry.Minutes()))
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
