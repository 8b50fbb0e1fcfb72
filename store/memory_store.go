// store/memory_store.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/intai-app/intai_backend/models"
)

// MemoryStore keeps challenges in process memory. Suitable for a
// single-instance deployment and for tests; multi-instance deployments use
// RedisStore so all instances observe the same attempt counters.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*models.OTPChallenge
	locks      map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]*models.OTPChallenge),
		locks:      make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing mutations for one phone. Reads of
// unrelated phones proceed without contending on it.
func (s *MemoryStore) keyLock(phone string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[phone] = lock
	}
	return lock
}

// Get returns a copy of the stored challenge, or nil when absent.
func (s *MemoryStore) Get(ctx context.Context, phone string) (*models.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[phone]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

// Put stores the challenge, superseding any existing record for the phone.
func (s *MemoryStore) Put(ctx context.Context, challenge *models.OTPChallenge) error {
	lock := s.keyLock(challenge.Phone)
	lock.Lock()
	defer lock.Unlock()

	cp := *challenge
	s.mu.Lock()
	s.challenges[challenge.Phone] = &cp
	s.mu.Unlock()
	return nil
}

// Delete removes the challenge for phone, if any.
func (s *MemoryStore) Delete(ctx context.Context, phone string) error {
	lock := s.keyLock(phone)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	delete(s.challenges, phone)
	s.mu.Unlock()
	return nil
}

// Update applies fn under the per-phone lock and persists the result.
func (s *MemoryStore) Update(ctx context.Context, phone string, fn UpdateFunc) (*models.OTPChallenge, error) {
	lock := s.keyLock(phone)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current := s.challenges[phone]
	s.mu.Unlock()

	var snapshot *models.OTPChallenge
	if current != nil {
		cp := *current
		snapshot = &cp
	}

	next, err := fn(snapshot)

	s.mu.Lock()
	if next == nil {
		delete(s.challenges, phone)
	} else {
		cp := *next
		s.challenges[phone] = &cp
	}
	s.mu.Unlock()

	return next, err
}

// PurgeExpired drops records that are past both their expiry and any block
// window. Expiry is still detected lazily on reads; this only bounds memory.
func (s *MemoryStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for phone, ch := range s.challenges {
		if ch.Retention(now) == 0 {
			delete(s.challenges, phone)
			delete(s.locks, phone)
			purged++
		}
	}
	return purged
}
