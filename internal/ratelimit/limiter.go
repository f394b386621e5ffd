package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GlobalIdentity is the bucket key used when the caller does not
// distinguish clients.
const GlobalIdentity = "global"

// Limiter is a token-bucket admission gate with one bucket per identity
// key. Buckets are created lazily on first use; each bucket holds up to
// capacity tokens and refills continuously at refillPerSecond.
type Limiter struct {
	mu              sync.Mutex
	buckets         map[string]*rate.Limiter
	capacity        int
	refillPerSecond float64
	maxIdentities   int
}

// NewLimiter creates a limiter. maxIdentities bounds bucket-map growth;
// zero or negative means unbounded.
func NewLimiter(capacity int, refillPerSecond float64, maxIdentities int) *Limiter {
	return &Limiter{
		buckets:         make(map[string]*rate.Limiter),
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
		maxIdentities:   maxIdentities,
	}
}

// bucket returns the limiter for an identity, creating it on first use.
// Caller holds the lock.
func (l *Limiter) bucket(identity string) *rate.Limiter {
	// MEMORY PROTECTION: Prevent unlimited growth
	if l.maxIdentities > 0 && len(l.buckets) >= l.maxIdentities {
		if _, exists := l.buckets[identity]; !exists {
			l.buckets = make(map[string]*rate.Limiter)
		}
	}

	b, exists := l.buckets[identity]
	if !exists {
		b = rate.NewLimiter(rate.Limit(l.refillPerSecond), l.capacity)
		l.buckets[identity] = b
	}
	return b
}

// Admit consumes one token from the identity's bucket if available.
// A rejected request does not mutate the bucket beyond the refill.
func (l *Limiter) Admit(identity string) bool {
	l.mu.Lock()
	b := l.bucket(identity)
	l.mu.Unlock()

	return b.Allow()
}

// Remaining returns the whole tokens currently available to an identity.
func (l *Limiter) Remaining(identity string) int {
	l.mu.Lock()
	b := l.bucket(identity)
	l.mu.Unlock()

	remaining := int(b.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ResetAfter returns how long until the identity's bucket is full again.
func (l *Limiter) ResetAfter(identity string) time.Duration {
	l.mu.Lock()
	b := l.bucket(identity)
	l.mu.Unlock()

	missing := float64(l.capacity) - b.Tokens()
	if missing <= 0 || l.refillPerSecond <= 0 {
		return 0
	}
	return time.Duration(missing / l.refillPerSecond * float64(time.Second))
}

// Capacity returns the configured bucket capacity.
func (l *Limiter) Capacity() int {
	return l.capacity
}
