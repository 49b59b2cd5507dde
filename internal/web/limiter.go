package web

// limiter.go bounds how many conversions run at once.
//
// Parsing and re-encoding hold whole request bodies in memory, so the
// server admits at most a fixed number of conversions. When every slot is
// taken a request waits up to maxWait and then fails with
// ErrTooManyConversions. WaitForDrain lets shutdown wait for in-flight work.

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrTooManyConversions is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyConversions = errors.New("too many conversions in progress, please try again later")

// DefaultMaxConversions is the default limit for parallel conversions.
const DefaultMaxConversions = 5

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 30 * time.Second

// ConversionLimiter is a counting semaphore over conversion requests.
type ConversionLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewConversionLimiter allows at most maxConcurrent simultaneous conversions.
// Non-positive arguments fall back to the defaults.
func NewConversionLimiter(maxConcurrent int, maxWait time.Duration) *ConversionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConversions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &ConversionLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait.
// The caller MUST call Release when the conversion completes.
func (l *ConversionLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManyConversions
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (l *ConversionLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ConversionLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of conversions in flight.
func (l *ConversionLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ConversionLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no conversion is in flight or ctx ends.
func (l *ConversionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter for the health endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ConversionLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// Middleware holds a slot for the duration of each request and answers
// 503 when none frees up in time.
func (l *ConversionLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.Acquire(r.Context()); err != nil {
			w.Header().Set("Retry-After", "5")
			respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		defer l.Release()
		next.ServeHTTP(w, r)
	})
}
