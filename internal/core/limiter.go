package core

// limiter.go bounds the number of previews decoded at once.
//
// Each preview holds the whole file and its decoded text in memory, so the
// service admits at most maxConcurrent of them. When every slot is taken a
// request waits up to maxWait before failing with ErrTooManyPreviews.
// WaitForDrain lets shutdown block until in-flight previews finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyPreviews is returned when all preview slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyPreviews = errors.New("too many concurrent previews")

// DefaultMaxConcurrentPreviews is the default limit for parallel previews.
const DefaultMaxConcurrentPreviews = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// PreviewLimiter admits a bounded number of previews. A slot is a token in
// the buffered channel, so the channel length is the active count.
type PreviewLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	served atomic.Int64
	denied atomic.Int64
}

// NewPreviewLimiter creates a limiter that allows at most maxConcurrent
// simultaneous previews. Requests that cannot acquire a slot within maxWait
// receive ErrTooManyPreviews.
func NewPreviewLimiter(maxConcurrent int, maxWait time.Duration) *PreviewLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentPreviews
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &PreviewLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits up to the limiter's maxWait for a slot. Every successful
// Acquire must be paired with one Release.
func (l *PreviewLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.served.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		l.denied.Add(1)
		return ErrTooManyPreviews
	}
}

// Release frees a slot taken by Acquire.
func (l *PreviewLimiter) Release() {
	<-l.slots
}

// ActiveCount returns the number of previews currently running.
func (l *PreviewLimiter) ActiveCount() int {
	return len(l.slots)
}

// WaitForDrain blocks until all active previews complete or ctx is done.
func (l *PreviewLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
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

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"maxConcurrent"`
	Served        int64 `json:"served"`
	Denied        int64 `json:"denied"`
}

// Status returns the current limiter state for monitoring.
func (l *PreviewLimiter) Status() LimiterStatus {
	active := len(l.slots)
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
		Served:        l.served.Load(),
		Denied:        l.denied.Load(),
	}
}
