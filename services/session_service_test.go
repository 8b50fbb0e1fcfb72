package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intai-app/intai_backend/models"
)

var testSecret = []byte("test-secret-0123456789")

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Phone: "+972501234567",
		Role:  "user",
	}
}

func TestIssueAndResolve(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(NewMemorySessionStore(), testSecret, time.Hour)
	user := testUser()

	token, session, err := svc.Issue(ctx, user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || session == nil {
		t.Fatal("Issue returned empty token or session")
	}
	if session.UserID != user.ID.Hex() || session.Role != "user" {
		t.Fatalf("session = %+v, want user identity", session)
	}

	resolved, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.ID != session.ID || resolved.UserID != session.UserID {
		t.Fatalf("resolved %+v, want %+v", resolved, session)
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(NewMemorySessionStore(), testSecret, time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Resolve(ctx, token); err != ErrSessionNotFound {
			t.Errorf("Resolve(%q) err = %v, want ErrSessionNotFound", token, err)
		}
	}
}

func TestResolveRejectsTamperedToken(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(NewMemorySessionStore(), testSecret, time.Hour)

	token, _, err := svc.Issue(ctx, testUser())
	if err != nil {
		t.Fatal(err)
	}

	// Flip the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := svc.Resolve(ctx, tampered); err != ErrSessionNotFound {
		t.Errorf("Resolve(tampered) err = %v, want ErrSessionNotFound", err)
	}

	// A token signed with a different secret fails even with valid claims.
	other := NewSessionService(NewMemorySessionStore(), []byte("other-secret"), time.Hour)
	foreign, _, err := other.Issue(ctx, testUser())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resolve(ctx, foreign); err != ErrSessionNotFound {
		t.Errorf("Resolve(foreign) err = %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(NewMemorySessionStore(), testSecret, time.Hour)

	token, session, err := svc.Issue(ctx, testUser())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Revoke(ctx, session.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// The JWT is still validly signed, but the server-side record is gone.
	if _, err := svc.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Errorf("Resolve after revoke err = %v, want ErrSessionNotFound", err)
	}

	// Revoking again still succeeds.
	if err := svc.Revoke(ctx, session.ID); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
}

func TestResolveRejectsExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	svc := NewSessionService(store, testSecret, time.Hour)

	token, session, err := svc.Issue(ctx, testUser())
	if err != nil {
		t.Fatal(err)
	}

	// Age the stored record past its deadline.
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, session, time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Resolve(ctx, token); err != ErrSessionNotFound {
		t.Errorf("Resolve of expired session err = %v, want ErrSessionNotFound", err)
	}
}
