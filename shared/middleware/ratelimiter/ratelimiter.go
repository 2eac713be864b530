package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for a single key
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	timer      *time.Timer
}

// Limiter keeps one token bucket per key (usually a user id).
// Idle buckets are dropped after expiration.
type Limiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	capacity   float64
	expiration time.Duration
	now        func() time.Time
}

func New(rate float64, burst int, expiration time.Duration) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   float64(burst),
		expiration: expiration,
		now:        time.Now,
	}
}

func (l *Limiter) drop(key string, b *bucket) {
	l.mu.Lock()
	if l.buckets[key] == b {
		delete(l.buckets, key)
	}
	l.mu.Unlock()
}

func (l *Limiter) touch(key string, b *bucket) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(l.expiration, func() { l.drop(key, b) })
}

func (l *Limiter) get(key string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = &bucket{tokens: l.capacity, lastRefill: l.now()}
	l.buckets[key] = b
	return b
}

// Allow takes one token from key's bucket and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	b := l.get(key)

	b.mu.Lock()
	defer b.mu.Unlock()
	l.touch(key, b)

	now := l.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Stop cancels expiration timers.
func (l *Limiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.buckets {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
	}
}
