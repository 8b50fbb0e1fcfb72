// services/session_service.go
package services

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/intai-app/intai_backend/models"
)

// ErrSessionNotFound is returned when a presented token does not resolve to a
// live session: unknown, expired, revoked, or tampered with.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side credential minted after a successful OTP
// verification. It carries only the account identifier and role, so a
// compromised session store leaks minimal information.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionClaims is the signed wire form of a session reference. The token is
// opaque to clients; validity additionally requires the server-side record,
// so revocation takes effect immediately regardless of the token's signature.
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	jwt.StandardClaims
}

// SessionService issues, resolves and revokes sessions.
type SessionService struct {
	store  SessionStore
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a session service signing tokens with secret.
func NewSessionService(store SessionStore, secret []byte, ttl time.Duration) *SessionService {
	return &SessionService{store: store, secret: secret, ttl: ttl}
}

// GetJWTSecret returns the token-signing secret from the environment.
func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return []byte(secret)
}

// Issue mints a session for the user and returns the signed token alongside
// the stored record.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (string, *Session, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID.Hex(),
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := &SessionClaims{
		SessionID: session.ID,
		UserID:    session.UserID,
		Role:      session.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: session.ExpiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}

	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return "", nil, err
	}
	return signed, session, nil
}

// Resolve verifies the token and returns the live session it references.
// Revoked, expired, or forged tokens all fail with ErrSessionNotFound.
func (s *SessionService) Resolve(ctx context.Context, tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrSessionNotFound
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionNotFound
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.SessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.store.Find(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Revoke invalidates the session. Revoking an absent session succeeds, so
// logout stays idempotent.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
