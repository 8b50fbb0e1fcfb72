package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/intai-app/intai_backend/config"
	"github.com/intai-app/intai_backend/middleware"
	"github.com/intai-app/intai_backend/models"
	"github.com/intai-app/intai_backend/repositories"
	"github.com/intai-app/intai_backend/services"
	"github.com/intai-app/intai_backend/store"
	"github.com/intai-app/intai_backend/utils"
)

// dependencyTimeout bounds each call to an external collaborator so a slow
// user store or SMS provider cannot hold a request open indefinitely.
const dependencyTimeout = 10 * time.Second

// AuthController orchestrates the phone/OTP authentication flow: send,
// verify, logout, and session introspection.
type AuthController struct {
	users      repositories.UserRepository
	challenges store.ChallengeStore
	sessions   *services.SessionService
	sms        utils.SmsGateway
	audit      repositories.AuditSink
	cfg        config.AuthConfig
	logger     *log.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(
	users repositories.UserRepository,
	challenges store.ChallengeStore,
	sessions *services.SessionService,
	sms utils.SmsGateway,
	audit repositories.AuditSink,
	cfg config.AuthConfig,
) *AuthController {
	return &AuthController{
		users:      users,
		challenges: challenges,
		sessions:   sessions,
		sms:        sms,
		audit:      audit,
		cfg:        cfg,
		logger:     log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

// SendOTP handles POST /api/auth/send-otp. It validates the destination,
// checks the purpose precondition against the user store, refuses while a
// lockout is in effect, and otherwise issues a fresh challenge and dispatches
// the code. A live pending challenge is silently superseded: resending is the
// common user recovery path and must not dead-end on an "already sent" error.
func (ac *AuthController) SendOTP(c echo.Context) error {
	var req models.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number and type are required",
		})
	}

	phone := utils.NormalizePhone(utils.SanitizeInput(req.Phone))
	if !utils.IsValidIsraeliPhone(phone) {
		return ac.respondDomainError(c, models.ErrInvalidPhoneFormat)
	}
	purpose := models.OTPPurpose(req.Type)

	ctx := c.Request().Context()

	user, err := ac.findUserByPhone(ctx, phone)
	if err != nil {
		return ac.respondLookupError(c, "send_otp", err)
	}

	switch purpose {
	case models.PurposeLogin:
		if user == nil {
			ac.recordAudit(c, models.AuditStatusError, "", auditMeta(phone, "otp_send_failed", "user_not_found"))
			return ac.respondDomainError(c, models.ErrUserNotFound)
		}
		if !user.IsActive {
			ac.recordAudit(c, models.AuditStatusError, user.ID.Hex(), auditMeta(phone, "otp_send_failed", "account_inactive"))
			return ac.respondDomainError(c, models.ErrAccountInactive)
		}
	case models.PurposeRegister:
		if user != nil {
			ac.recordAudit(c, models.AuditStatusError, user.ID.Hex(), auditMeta(phone, "otp_send_failed", "user_exists"))
			return ac.respondDomainError(c, models.ErrUserAlreadyExists)
		}
	}

	now := time.Now()

	// An active lockout refuses the send outright: no new challenge, no SMS.
	existing, err := ac.challenges.Get(ctx, phone)
	if err != nil {
		return ac.respondInternal(c, "send_otp: challenge lookup", err)
	}
	if existing != nil && existing.StateAt(now) == models.ChallengeBlocked {
		ac.recordAudit(c, models.AuditStatusError, userIDOf(user), auditMeta(phone, "otp_send_failed", "blocked"))
		return ac.respondDomainError(c, &models.TooManyAttemptsError{RetryAfter: existing.BlockRemaining(now)})
	}

	code, err := utils.GenerateOTP(ac.cfg.OTPLength)
	if err != nil {
		return ac.respondInternal(c, "send_otp: generate code", err)
	}

	challenge := &models.OTPChallenge{
		Phone:     phone,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(ac.cfg.OTPTTL),
	}
	if err := ac.challenges.Put(ctx, challenge); err != nil {
		return ac.respondInternal(c, "send_otp: store challenge", err)
	}

	smsCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	err = ac.sms.Send(smsCtx, phone, utils.OTPMessage(code, ac.cfg.OTPTTL))
	cancel()
	if err != nil {
		// The challenge stays in place so the user can retry delivery or
		// verify a code that did arrive despite the reported failure.
		ac.logger.Printf("SMS dispatch failed for %s: %v", utils.MaskPhone(phone), err)
		ac.recordAudit(c, models.AuditStatusError, userIDOf(user), auditMeta(phone, "otp_send_failed", "notification_failed"))
		if errors.Is(err, context.DeadlineExceeded) {
			return ac.respondDomainError(c, models.ErrDependencyTimeout)
		}
		return ac.respondDomainError(c, models.ErrNotificationFailed)
	}

	ac.recordAudit(c, models.AuditStatusSuccess, userIDOf(user), auditMeta(phone, "otp_sent", ""))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OTP sent to " + utils.MaskPhone(phone),
		Data: models.SendOTPData{
			Phone:     utils.MaskPhone(phone),
			ExpiresAt: challenge.ExpiresAt,
		},
	})
}

// VerifyOTP handles POST /api/auth/verify-otp. The challenge verdict and any
// attempt bookkeeping happen atomically inside the store update, so two
// concurrent verifications for one phone cannot both spend the final attempt.
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number and OTP code are required",
		})
	}

	phone := utils.NormalizePhone(utils.SanitizeInput(req.Phone))
	if !utils.IsValidIsraeliPhone(phone) {
		return ac.respondDomainError(c, models.ErrInvalidPhoneFormat)
	}
	otpCode := utils.SanitizeInput(req.OTPCode)

	ctx := c.Request().Context()
	now := time.Now()

	var verified *models.OTPChallenge
	_, err := ac.challenges.Update(ctx, phone, func(current *models.OTPChallenge) (*models.OTPChallenge, error) {
		if current == nil {
			return nil, models.ErrChallengeNotFound
		}

		switch current.StateAt(now) {
		case models.ChallengeBlocked:
			return current, &models.TooManyAttemptsError{RetryAfter: current.BlockRemaining(now)}
		case models.ChallengeExpired:
			// Expiry never consumes an attempt.
			return current, models.ErrOtpExpired
		}

		if subtle.ConstantTimeCompare([]byte(current.Code), []byte(otpCode)) != 1 {
			next := current.RecordFailure(now, ac.cfg.MaxOTPAttempts, ac.cfg.BlockDuration)
			if next.StateAt(now) == models.ChallengeBlocked {
				return &next, &models.TooManyAttemptsError{RetryAfter: next.BlockRemaining(now)}
			}
			return &next, models.ErrInvalidOtpCode
		}

		snapshot := *current
		verified = &snapshot
		return nil, nil // consumed
	})
	if err != nil {
		if models.IsDomainError(err) {
			ac.recordAudit(c, models.AuditStatusError, "", auditMeta(phone, "otp_verify_failed", err.Error()))
			return ac.respondDomainError(c, err)
		}
		return ac.respondInternal(c, "verify_otp: challenge update", err)
	}

	user, err := ac.completeVerification(ctx, c, verified, &req, now)
	if err != nil {
		if models.IsDomainError(err) {
			ac.recordAudit(c, models.AuditStatusError, "", auditMeta(phone, "otp_verify_failed", err.Error()))
			return ac.respondDomainError(c, err)
		}
		return ac.respondInternal(c, "verify_otp: account update", err)
	}

	token, _, err := ac.sessions.Issue(ctx, user)
	if err != nil {
		return ac.respondInternal(c, "verify_otp: issue session", err)
	}
	middleware.SetSessionCookie(c, token, ac.cfg.SessionTTL)

	ac.recordAudit(c, models.AuditStatusSuccess, user.ID.Hex(), auditMeta(phone, "otp_verified", ""))

	message := "Login successful"
	if verified.Purpose == models.PurposeRegister {
		message = "Registration completed successfully"
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data: models.VerifyOTPData{
			User:  user.Projection(),
			Token: token,
		},
	})
}

// completeVerification applies the account-side effects of a verified
// challenge: creating the account for register, or stamping the login.
func (ac *AuthController) completeVerification(
	ctx context.Context,
	c echo.Context,
	verified *models.OTPChallenge,
	req *models.VerifyOTPRequest,
	now time.Time,
) (*models.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	if verified.Purpose == models.PurposeRegister {
		existing, err := ac.users.FindByPhone(opCtx, verified.Phone)
		if err != nil {
			return nil, wrapTimeout(err)
		}
		if existing != nil {
			return nil, models.ErrUserAlreadyExists
		}

		email := ""
		if req.Email != "" {
			email, err = utils.SanitizeEmail(req.Email)
			if err != nil {
				email = ""
			}
		}

		user := &models.User{
			FirstName:          utils.SanitizeInput(req.FirstName),
			LastName:           utils.SanitizeInput(req.LastName),
			Phone:              verified.Phone,
			Email:              email,
			NationalID:         utils.SanitizeInput(req.NationalID),
			Role:               "user",
			IsActive:           true,
			IsPhoneVerified:    true,
			Language:           "he",
			EmailNotifications: true,
			SMSNotifications:   true,
			AppNotifications:   true,
			LastLogin:          &now,
		}
		created, err := ac.users.Create(opCtx, user)
		if err != nil {
			return nil, wrapTimeout(err)
		}
		return created, nil
	}

	user, err := ac.users.FindByPhone(opCtx, verified.Phone)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, models.ErrAccountInactive
	}

	updated, err := ac.users.Update(opCtx, user.ID.Hex(), map[string]interface{}{
		"lastLogin":       now,
		"isPhoneVerified": true,
	})
	if err != nil {
		return nil, wrapTimeout(err)
	}
	if updated == nil {
		return nil, models.ErrUserNotFound
	}
	return updated, nil
}

// Logout handles POST /api/auth/logout. Revocation is immediate and the
// operation is idempotent: a request without a live session still succeeds.
func (ac *AuthController) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if session, err := ac.sessions.Resolve(ctx, middleware.SessionToken(c)); err == nil {
		if err := ac.sessions.Revoke(ctx, session.ID); err != nil {
			ac.logger.Printf("Failed to revoke session %s: %v", session.ID, err)
		}
		ac.recordAudit(c, models.AuditStatusSuccess, session.UserID,
			map[string]interface{}{"action": "logout"})
	}

	middleware.ClearSessionCookie(c)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logout successful",
	})
}

// Current handles GET /api/auth/current. It resolves the presented session
// and returns a fresh projection of the account, or a null user when no valid
// session exists. A session whose account has been deactivated or deleted is
// revoked on sight.
func (ac *AuthController) Current(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := ac.sessions.Resolve(ctx, middleware.SessionToken(c))
	if err != nil {
		return c.JSON(http.StatusOK, models.Response{
			Status: http.StatusOK,
			Data:   models.CurrentData{User: nil},
		})
	}

	user, err := ac.findUserByID(ctx, session.UserID)
	if err != nil {
		return ac.respondLookupError(c, "current", err)
	}
	if user == nil || !user.IsActive {
		if err := ac.sessions.Revoke(ctx, session.ID); err != nil {
			ac.logger.Printf("Failed to revoke stale session %s: %v", session.ID, err)
		}
		middleware.ClearSessionCookie(c)
		return c.JSON(http.StatusOK, models.Response{
			Status: http.StatusOK,
			Data:   models.CurrentData{User: nil},
		})
	}

	projection := user.Projection()
	return c.JSON(http.StatusOK, models.Response{
		Status: http.StatusOK,
		Data:   models.CurrentData{User: &projection},
	})
}

func (ac *AuthController) findUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	user, err := ac.users.FindByPhone(opCtx, phone)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	return user, nil
}

func (ac *AuthController) findUserByID(ctx context.Context, id string) (*models.User, error) {
	opCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
	defer cancel()

	user, err := ac.users.FindByID(opCtx, id)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	return user, nil
}

// respondDomainError maps a caller-recoverable error to its HTTP shape. The
// error text is the response message, verbatim.
func (ac *AuthController) respondDomainError(c echo.Context, err error) error {
	var tooMany *models.TooManyAttemptsError
	if errors.As(err, &tooMany) {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: tooMany.Error(),
			Data:    map[string]interface{}{"remainingSeconds": tooMany.RemainingSeconds()},
		})
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrChallengeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUserAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrAccountInactive):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotificationFailed):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrDependencyTimeout):
		status = http.StatusGatewayTimeout
	}

	return c.JSON(status, models.Response{
		Status:  status,
		Message: err.Error(),
	})
}

// respondLookupError distinguishes a dependency timeout from other storage
// faults on a collaborator read.
func (ac *AuthController) respondLookupError(c echo.Context, action string, err error) error {
	if errors.Is(err, models.ErrDependencyTimeout) {
		return ac.respondDomainError(c, models.ErrDependencyTimeout)
	}
	return ac.respondInternal(c, action+": user lookup", err)
}

// respondInternal reports a storage/collaborator fault without leaking
// internal detail to the caller.
func (ac *AuthController) respondInternal(c echo.Context, action string, err error) error {
	ac.logger.Printf("%s: %v", action, err)
	ac.recordAudit(c, models.AuditStatusError, "",
		map[string]interface{}{"action": action, "reason": "internal"})
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong. Please try again.",
	})
}

func (ac *AuthController) recordAudit(c echo.Context, status, userID string, metadata map[string]interface{}) {
	event := models.AuditEvent{
		Type:        models.AuditTypeAuth,
		Status:      status,
		UserID:      userID,
		TriggeredBy: models.AuditTriggeredBySystem,
		IP:          c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
		Metadata:    metadata,
		OccurredAt:  time.Now(),
	}
	if err := ac.audit.Record(c.Request().Context(), event); err != nil {
		ac.logger.Printf("Audit record failed: %v", err)
	}
}

func auditMeta(phone, action, reason string) map[string]interface{} {
	meta := map[string]interface{}{
		"phone":  utils.MaskPhone(phone),
		"action": action,
	}
	if reason != "" {
		meta["reason"] = reason
	}
	return meta
}

func userIDOf(user *models.User) string {
	if user == nil {
		return ""
	}
	return user.ID.Hex()
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrDependencyTimeout
	}
	return err
}
