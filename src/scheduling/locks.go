package scheduling

import (
	"context"
	"sync"
)

// providerLocks serializes reservation attempts per provider. All writes to a
// provider's holding set funnel through its lock, so the availability check and
// the insert behave as one unit. The locks are process-local; a multi-instance
// deployment would move this to a shared lock in Redis.
type providerLocks struct {
	sems sync.Map
}

func (l *providerLocks) sem(providerID uint) chan struct{} {
	if ch, ok := l.sems.Load(providerID); ok {
		return ch.(chan struct{})
	}
	ch, _ := l.sems.LoadOrStore(providerID, make(chan struct{}, 1))
	return ch.(chan struct{})
}

// Acquire blocks until the provider's lock is free or ctx expires.
// Expiry maps to ErrBusy so callers surface a retryable error instead of hanging.
func (l *providerLocks) Acquire(ctx context.Context, providerID uint) error {
	select {
	case l.sem(providerID) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ErrBusy
	}
}

func (l *providerLocks) Release(providerID uint) {
	<-l.sem(providerID)
}
