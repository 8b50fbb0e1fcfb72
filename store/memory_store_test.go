package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/intai-app/intai_backend/models"
)

const testPhone = "+972501234567"

func pendingChallenge(phone string) *models.OTPChallenge {
	now := time.Now()
	return &models.OTPChallenge{
		Phone:     phone,
		Code:      "123456",
		Purpose:   models.PurposeLogin,
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, testPhone)
	if err != nil || got != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", got, err)
	}

	ch := pendingChallenge(testPhone)
	if err := s.Put(ctx, ch); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err = s.Get(ctx, testPhone)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Code != ch.Code {
		t.Fatalf("Get = %+v, want stored challenge", got)
	}

	// The store hands out copies; mutating the result must not leak back.
	got.Code = "tampered"
	again, _ := s.Get(ctx, testPhone)
	if again.Code != "123456" {
		t.Fatal("Get returned a shared reference")
	}

	if err := s.Delete(ctx, testPhone); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = s.Get(ctx, testPhone)
	if got != nil {
		t.Fatal("challenge survived Delete")
	}

	// Deleting an absent record is not an error.
	if err := s.Delete(ctx, testPhone); err != nil {
		t.Fatalf("Delete of absent record: %v", err)
	}
}

func TestMemoryStoreUpdatePersistsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Put(ctx, pendingChallenge(testPhone)); err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("wrong code")
	next, err := s.Update(ctx, testPhone, func(current *models.OTPChallenge) (*models.OTPChallenge, error) {
		cp := *current
		cp.Attempts++
		return &cp, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update err = %v, want sentinel passed through", err)
	}
	if next == nil || next.Attempts != 1 {
		t.Fatalf("Update returned %+v, want updated record", next)
	}

	// The failed attempt must be durable even though fn reported an error.
	got, _ := s.Get(ctx, testPhone)
	if got == nil || got.Attempts != 1 {
		t.Fatalf("stored record = %+v, want Attempts=1", got)
	}
}

func TestMemoryStoreUpdateDeleteAndAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// fn sees nil for an absent record.
	_, err := s.Update(ctx, testPhone, func(current *models.OTPChallenge) (*models.OTPChallenge, error) {
		if current != nil {
			t.Errorf("fn received %+v, want nil", current)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// Returning nil consumes the record.
	if err := s.Put(ctx, pendingChallenge(testPhone)); err != nil {
		t.Fatal(err)
	}
	_, err = s.Update(ctx, testPhone, func(current *models.OTPChallenge) (*models.OTPChallenge, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, testPhone)
	if got != nil {
		t.Fatal("record survived a consuming Update")
	}
}

// Concurrent failed verifications must serialize: every attempt is counted and
// the lockout fires exactly when the budget is spent, never twice.
func TestMemoryStoreConcurrentFailures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Put(ctx, pendingChallenge(testPhone)); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(ctx, testPhone, func(current *models.OTPChallenge) (*models.OTPChallenge, error) {
				if current == nil {
					return nil, nil
				}
				if current.StateAt(now) == models.ChallengeBlocked {
					return current, nil
				}
				next := current.RecordFailure(now, 3, 15*time.Minute)
				return &next, nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, testPhone)
	if err != nil || got == nil {
		t.Fatalf("Get = (%+v, %v)", got, err)
	}
	if got.Attempts != 3 {
		t.Errorf("Attempts = %d, want exactly 3", got.Attempts)
	}
	if got.StateAt(now) != models.ChallengeBlocked {
		t.Error("challenge should be blocked")
	}
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	live := pendingChallenge(testPhone)
	if err := s.Put(ctx, live); err != nil {
		t.Fatal(err)
	}

	lapsed := pendingChallenge("+972521234567")
	lapsed.ExpiresAt = now.Add(-time.Minute)
	if err := s.Put(ctx, lapsed); err != nil {
		t.Fatal(err)
	}

	// A lapsed code under an active lockout must be retained.
	blocked := pendingChallenge("+972541234567")
	blocked.ExpiresAt = now.Add(-time.Minute)
	until := now.Add(10 * time.Minute)
	blocked.BlockedUntil = &until
	if err := s.Put(ctx, blocked); err != nil {
		t.Fatal(err)
	}

	if purged := s.PurgeExpired(now); purged != 1 {
		t.Errorf("PurgeExpired = %d, want 1", purged)
	}
	if got, _ := s.Get(ctx, testPhone); got == nil {
		t.Error("live challenge was purged")
	}
	if got, _ := s.Get(ctx, blocked.Phone); got == nil {
		t.Error("blocked challenge was purged before its lockout lapsed")
	}
}
